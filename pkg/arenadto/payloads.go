package arenadto

// Inbound payloads.

type RegisterRequest struct {
    Name string `json:"name"`
}

type CreateOfferRequest struct {
    Visibility  string  `json:"visibility"`
    TargetName  string  `json:"targetName,omitempty"`
    TotalTime   float64 `json:"totalTime"`
    Increment   float64 `json:"increment"`
    EvalVisible bool    `json:"evalVisible"`
    Color       string  `json:"color,omitempty"`
}

type JoinOfferRequest struct {
    OfferID string `json:"offerId"`
}

type AcceptChallengeRequest struct {
    ChallengeID string `json:"challengeId"`
}

// SubmitMoveRequest carries either Move (UCI or SAN) or From/To/Promotion.
type SubmitMoveRequest struct {
    Move      string `json:"move,omitempty"`
    From      string `json:"from,omitempty"`
    To        string `json:"to,omitempty"`
    Promotion string `json:"promotion,omitempty"`
    Color     string `json:"color"`
}

// Notation folds the request into a single move string.
func (r SubmitMoveRequest) Notation() string {
    if r.Move != "" { return r.Move }
    if r.From == "" || r.To == "" { return "" }
    return r.From + r.To + r.Promotion
}

type RegisterSpectatorRequest struct {
    Ref string `json:"ref"`
}

type ChatRequest struct {
    Group string `json:"group"`
    Text  string `json:"text"`
}

// Outbound payloads.

type Registered struct {
    Name string `json:"name"`
}

type OfferCreated struct {
    Kind       string    `json:"kind"` // "offer" or "challenge"
    ID         string    `json:"id"`
    TargetName string    `json:"targetName,omitempty"`
    TimeSpecs  TimeSpecs `json:"timeSpecs"`
}

type OfferJoined struct {
    SessionID    string    `json:"sessionId"`
    OpponentName string    `json:"opponentName"`
    MyColor      string    `json:"myColor"`
    TimeSpecs    TimeSpecs `json:"timeSpecs"`
}

type GameStarted struct {
    SessionID   string    `json:"sessionId"`
    WhiteName   string    `json:"whiteName"`
    BlackName   string    `json:"blackName"`
    TimeSpecs   TimeSpecs `json:"timeSpecs"`
    EvalVisible bool      `json:"evalVisible"`
    WhiteClock  int64     `json:"whiteClockRemaining"`
    BlackClock  int64     `json:"blackClockRemaining"`
    Position    string    `json:"canonicalPosition"`
}

type GameRequest struct {
    ChallengeID string    `json:"challengeId"`
    FromName    string    `json:"fromName"`
    TimeSpecs   TimeSpecs `json:"timeSpecs"`
    EvalVisible bool      `json:"evalVisible"`
    ExpiresAt   int64     `json:"expiresAt"`
}

type MoveApplied struct {
    SessionID  string `json:"sessionId"`
    Move       string `json:"move"`
    UCI        string `json:"uci"`
    Color      string `json:"color"`
    WhiteClock int64  `json:"whiteClockRemaining"`
    BlackClock int64  `json:"blackClockRemaining"`
    Position   string `json:"canonicalPosition"`
    MoveNumber int    `json:"moveNumber"`
}

type GameEnded struct {
    SessionID     string `json:"sessionId"`
    IsDraw        bool   `json:"isDraw"`
    WinnerColor   string `json:"winnerColor,omitempty"`
    WinnerName    string `json:"winnerName,omitempty"`
    Cause         string `json:"cause"`
    Method        string `json:"method,omitempty"`
    HistoryExport string `json:"historyExport"`
    Position      string `json:"canonicalPosition"`
    WhiteClock    int64  `json:"whiteClockRemaining"`
    BlackClock    int64  `json:"blackClockRemaining"`
}

type SpectatorRegistered struct {
    SessionID   string   `json:"sessionId"`
    WhiteName   string   `json:"whiteName"`
    BlackName   string   `json:"blackName"`
    Position    string   `json:"canonicalPosition"`
    WhiteClock  int64    `json:"whiteClockRemaining"`
    BlackClock  int64    `json:"blackClockRemaining"`
    EvalVisible bool     `json:"evalVisible"`
    Moves       []string `json:"moves"`
}

type ChatMessage struct {
    Group     string `json:"group"`
    Sender    string `json:"sender"`
    Text      string `json:"text"`
    Timestamp int64  `json:"timestamp"`
}

type OfferSummary struct {
    OfferID     string    `json:"offerId"`
    CreatorName string    `json:"creatorName"`
    Targeted    bool      `json:"targeted"`
    TimeSpecs   TimeSpecs `json:"timeSpecs"`
    EvalVisible bool      `json:"evalVisible"`
}

type OpenOffers struct {
    Offers []OfferSummary `json:"offers"`
}

// ServerInfo is served at /serverInfo.
type ServerInfo struct {
    PlayersOnline int `json:"playersOnline"`
    LiveSessions  int `json:"liveSessions"`
    OpenOffers    int `json:"openOffers"`
}
