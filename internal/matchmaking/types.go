package matchmaking

import (
    "math"
    "strings"
    "time"
)

// Visibility of an open offer.
type Visibility string

const (
    Public   Visibility = "public"
    Targeted Visibility = "targeted"
)

// ColorChoice is the creator's color preference.
type ColorChoice string

const (
    ColorWhite  ColorChoice = "white"
    ColorBlack  ColorChoice = "black"
    ColorRandom ColorChoice = "random"
)

// ParseColorChoice maps free text to a ColorChoice; anything unknown is random.
func ParseColorChoice(s string) ColorChoice {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "white", "w":
        return ColorWhite
    case "black", "b":
        return ColorBlack
    default:
        return ColorRandom
    }
}

// TimeSpec is a time control as submitted by clients: minutes plus seconds of increment.
type TimeSpec struct {
    TotalMinutes     float64 `json:"totalTime"`
    IncrementSeconds float64 `json:"increment"`
}

// Validate checks bounds. Limits <= 0 disable the upper bound.
func (ts TimeSpec) Validate(maxMinutes, maxIncrementSec float64) error {
    if math.IsNaN(ts.TotalMinutes) || math.IsInf(ts.TotalMinutes, 0) || ts.TotalMinutes <= 0 { return ErrInvalidTime }
    if maxMinutes > 0 && ts.TotalMinutes > maxMinutes { return ErrInvalidTime }
    if math.IsNaN(ts.IncrementSeconds) || math.IsInf(ts.IncrementSeconds, 0) || ts.IncrementSeconds < 0 { return ErrInvalidTime }
    if maxIncrementSec > 0 && ts.IncrementSeconds > maxIncrementSec { return ErrInvalidTime }
    return nil
}

// Durations converts the spec once into clock units.
func (ts TimeSpec) Durations() (total, increment time.Duration) {
    total = time.Duration(ts.TotalMinutes * float64(time.Minute))
    increment = time.Duration(ts.IncrementSeconds * float64(time.Second))
    return total, increment
}

// Label renders the PGN TimeControl tag value (seconds+increment).
func (ts TimeSpec) Label() string {
    total, inc := ts.Durations()
    return formatSeconds(total) + "+" + formatSeconds(inc)
}

// Offer is an open game waiting in the lobby.
type Offer struct {
    ID           string      `json:"offerId"`
    CreatorConn  string      `json:"-"`
    CreatorName  string      `json:"creatorName"`
    Visibility   Visibility  `json:"visibility"`
    TargetName   string      `json:"targetName,omitempty"`
    Time         TimeSpec    `json:"timeControl"`
    CreatorColor ColorChoice `json:"creatorColor"`
    EvalVisible  bool        `json:"evalVisible"`
    CreatedAt    time.Time   `json:"createdAt"`
}

// VisibleTo reports whether viewer may see and join the offer.
// A targeted offer without a target name is open to everyone.
func (o Offer) VisibleTo(viewer string) bool {
    if o.Visibility != Targeted || o.TargetName == "" { return true }
    return o.TargetName == viewer
}

// CheckJoin reports why the identity (conn, name) may not take the offer.
func (o Offer) CheckJoin(conn, name string, idle bool) error {
    switch {
    case o.CreatorConn == conn:
        return ErrOwnOffer
    case !o.VisibleTo(name):
        return ErrTargetMismatch
    case !idle:
        return ErrNotIdle
    }
    return nil
}

// Challenge is a direct, expiring game request.
type Challenge struct {
    ID          string
    FromConn    string
    FromName    string
    ToName      string
    Time        TimeSpec
    EvalVisible bool
    ExpiresAt   time.Time
}

// Expired reports whether now is at or past the deadline.
func (c Challenge) Expired(now time.Time) bool { return !now.Before(c.ExpiresAt) }

var (
    ErrOfferGone      = errf("offer not found or already taken")
    ErrTargetMismatch = errf("offer is targeted at another player")
    ErrOwnOffer       = errf("cannot join own offer")
    ErrNotIdle        = errf("player is not idle")
    ErrInvalidTime    = errf("invalid time control")
    ErrIDExhausted    = errf("failed to allocate id")
)

type staticErr string
func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }
