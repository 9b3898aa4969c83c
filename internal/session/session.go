package session

import (
    "errors"
    "fmt"
    "time"

    "github.com/park285/cheese-arena/internal/clock"
    "github.com/park285/cheese-arena/internal/matchmaking"
    "github.com/park285/cheese-arena/internal/rules"
)

// State of a session. Starting only exists while the session is being wired.
type State string

const (
    StateStarting State = "starting"
    StateActive   State = "active"
    StateEnded    State = "ended"
)

var (
    ErrNotActive      = errors.New("session is not active")
    ErrNotParticipant = errors.New("connection is not a participant")
    ErrNotYourTurn    = errors.New("not your turn")
    ErrBinding        = errors.New("color binding mismatch")
    ErrFlagFell       = errors.New("clock expired")
)

type Player struct {
    Conn string
    Name string
}

// Session is one live game. It is owned by the arena manager and is not safe for
// concurrent use.
type Session struct {
    ID          string
    White       Player
    Black       Player
    Time        matchmaking.TimeSpec
    EvalVisible bool
    StartedAt   time.Time

    state      State
    pos        rules.Position
    whiteClock *clock.Clock
    blackClock *clock.Clock
    total      time.Duration
    settleStop func() bool
    final      [2]time.Duration
}

// Config carries the time source and grace for the clock pair.
type Config struct {
    Now   func() time.Time
    Grace time.Duration
}

// New builds a session with both clocks reset to the negotiated total.
func New(id string, white, black Player, ts matchmaking.TimeSpec, evalVisible bool, cfg Config) *Session {
    now := cfg.Now
    if now == nil {
        now = time.Now
    }
    total, inc := ts.Durations()
    opts := []clock.Option{clock.WithNow(now), clock.WithGrace(cfg.Grace)}
    s := &Session{
        ID:          id,
        White:       white,
        Black:       black,
        Time:        ts,
        EvalVisible: evalVisible,
        StartedAt:   now(),
        state:       StateStarting,
        pos:         rules.NewPosition(),
        whiteClock:  clock.New(total, inc, opts...),
        blackClock:  clock.New(total, inc, opts...),
        total:       total,
    }
    s.whiteClock.Reset(total)
    s.blackClock.Reset(total)
    return s
}

// Activate moves Starting to Active.
func (s *Session) Activate() {
    if s.state == StateStarting {
        s.state = StateActive
    }
}

func (s *Session) State() State            { return s.state }
func (s *Session) Position() rules.Position { return s.pos }
func (s *Session) MoveCount() int          { return rules.MoveCount(s.pos) }

// ColorOf returns the color bound to conn.
func (s *Session) ColorOf(conn string) (rules.Color, bool) {
    switch conn {
    case s.White.Conn:
        return rules.White, true
    case s.Black.Conn:
        return rules.Black, true
    }
    return "", false
}

func (s *Session) Player(c rules.Color) Player {
    if c == rules.Black { return s.Black }
    return s.White
}

func (s *Session) Clock(c rules.Color) *clock.Clock {
    if c == rules.Black { return s.blackClock }
    return s.whiteClock
}

// Clocks returns both peeks.
func (s *Session) Clocks() (white, black time.Duration) {
    if s.state == StateEnded { return s.final[0], s.final[1] }
    return s.whiteClock.Peek(), s.blackClock.Peek()
}

// SetSettleTimer records the cancel func of the delayed white clock start.
func (s *Session) SetSettleTimer(stop func() bool) { s.settleStop = stop }

// StartWhiteClock starts white's clock unless a move was already made or the game ended.
func (s *Session) StartWhiteClock() bool {
    if s.state != StateActive || s.MoveCount() > 0 { return false }
    s.whiteClock.Start()
    return true
}

// Expired reports whether either flag has fallen.
func (s *Session) Expired() bool {
    return s.whiteClock.Expired() || s.blackClock.Expired()
}

// TimeoutWinner picks the side with the less negative clock; ties go to white.
func (s *Session) TimeoutWinner() rules.Color {
    w, b := s.Clocks()
    if w < b { return rules.Black }
    return rules.White
}

// MoveResult describes an applied move.
type MoveResult struct {
    Applied    rules.Applied
    WhiteLeft  time.Duration
    BlackLeft  time.Duration
    Position   string
    MoveNumber int
    Terminal   rules.Terminal
}

// Submit runs the move pipeline for conn. name is the display name the directory
// holds for conn. ErrFlagFell means the caller must end the game on time; any other
// error is a rejection that changed nothing.
func (s *Session) Submit(conn, name, move string, claimed rules.Color) (MoveResult, error) {
    if s.state != StateActive { return MoveResult{}, ErrNotActive }
    if _, ok := s.ColorOf(conn); !ok { return MoveResult{}, ErrNotParticipant }
    if claimed != rules.SideToMove(s.pos) { return MoveResult{}, ErrNotYourTurn }
    bound := s.Player(claimed)
    if bound.Conn != conn || bound.Name != name { return MoveResult{}, ErrBinding }

    first := s.MoveCount() == 0
    if first {
        s.whiteClock.Reset(s.total)
        s.blackClock.Reset(s.total)
    }
    if s.Expired() { return MoveResult{}, ErrFlagFell }

    next, applied, err := rules.TryApply(s.pos, move)
    if err != nil { return MoveResult{}, fmt.Errorf("submit %q: %w", move, err) }
    s.pos = next
    if first {
        s.whiteClock.Start()
        if s.settleStop != nil {
            s.settleStop()
            s.settleStop = nil
        }
    }

    s.Clock(claimed).Stop()
    s.Clock(claimed.Opposite()).Start()

    w, b := s.Clocks()
    return MoveResult{
        Applied:    applied,
        WhiteLeft:  w,
        BlackLeft:  b,
        Position:   rules.ExportCanonical(s.pos),
        MoveNumber: rules.MoveCount(s.pos),
        Terminal:   rules.TerminalStatus(s.pos),
    }, nil
}

// End marks the session ended and freezes both clocks. It reports false when the
// session had already ended.
func (s *Session) End() (white, black time.Duration, first bool) {
    white, black = s.Clocks()
    if s.state == StateEnded { return white, black, false }
    s.state = StateEnded
    if s.settleStop != nil {
        s.settleStop()
        s.settleStop = nil
    }
    s.final = [2]time.Duration{white, black}
    return white, black, true
}
