package arenadto

import "encoding/json"

// Inbound event types.
const (
    TypeRegister          = "register"
    TypeCreateOffer       = "createOffer"
    TypeJoinOffer         = "joinOffer"
    TypeRequestChallenge  = "requestChallenge"
    TypeAcceptChallenge   = "acceptChallenge"
    TypeSubmitMove        = "submitMove"
    TypeResign            = "resign"
    TypeRegisterSpectator = "registerSpectator"
    TypeSendChatMessage   = "sendChatMessage"
    TypeListOffers        = "listOffers"
)

// Outbound event types.
const (
    TypeRegistered          = "registered"
    TypeRegisterFailed      = "registerFailed"
    TypeOfferCreated        = "offerCreated"
    TypeOfferJoinFailed     = "offerJoinFailed"
    TypeOfferJoined         = "offerJoined"
    TypeGameStarted         = "gameStarted"
    TypeGameRequest         = "gameRequest"
    TypeMoveApplied         = "moveApplied"
    TypeMoveRejected        = "moveRejected"
    TypeGameEnded           = "gameEnded"
    TypeSpectatorRegistered = "spectatorRegistered"
    TypeSpectatorFailed     = "spectatorFailed"
    TypeChatMessage         = "chatMessage"
    TypeOpenOffers          = "openOffers"
    TypeError               = "error"
)

// Envelope is the wire frame in both directions.
type Envelope struct {
    Type    string          `json:"type"`
    Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is an outbound frame before encoding.
type Event struct {
    Type    string `json:"type"`
    Payload any    `json:"payload,omitempty"`
}

func NewEvent(typ string, payload any) Event { return Event{Type: typ, Payload: payload} }

// TimeSpecs echoes the negotiated time control.
type TimeSpecs struct {
    TotalTime float64 `json:"totalTime"`
    Increment float64 `json:"increment"`
}

// Reason is the payload of every failure event.
type Reason struct {
    Reason string `json:"reason"`
}
