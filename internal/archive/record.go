package archive

import (
    "context"
    "errors"
    "time"

    "github.com/park285/cheese-arena/internal/obslog"
    "go.uber.org/zap"
)

// Record is the final state of a finished session.
type Record struct {
    SessionID   string    `json:"session_id"`
    WhiteName   string    `json:"white_name"`
    BlackName   string    `json:"black_name"`
    Result      string    `json:"result"` // white | black | draw
    Cause       string    `json:"cause"`
    Method      string    `json:"method,omitempty"`
    PGN         string    `json:"pgn"`
    FEN         string    `json:"fen"`
    MovesUCI    []string  `json:"moves_uci"`
    MovesSAN    []string  `json:"moves_san"`
    TimeControl string    `json:"time_control"`
    WhiteLeftMS int64     `json:"white_left_ms"`
    BlackLeftMS int64     `json:"black_left_ms"`
    StartedAt   time.Time `json:"started_at"`
    EndedAt     time.Time `json:"ended_at"`
}

// Sink stores finished games.
type Sink interface {
    Save(ctx context.Context, r Record) error
}

// Multi fans a record out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Save(ctx context.Context, r Record) error {
    var errs []error
    for _, s := range m {
        if s == nil { continue }
        if err := s.Save(ctx, r); err != nil {
            errs = append(errs, err)
        }
    }
    return errors.Join(errs...)
}

// Async runs Save off the caller's goroutine with a bounded timeout.
type Async struct {
    Sink    Sink
    Timeout time.Duration
}

func (a Async) Archive(r Record) {
    if a.Sink == nil { return }
    timeout := a.Timeout
    if timeout <= 0 {
        timeout = 10 * time.Second
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), timeout)
        defer cancel()
        if err := a.Sink.Save(ctx, r); err != nil {
            obslog.L().Warn("arena_archive_error", zap.String("session_id", r.SessionID), zap.Error(err))
            return
        }
        obslog.L().Info("arena_archive", zap.String("session_id", r.SessionID), zap.String("result", r.Result), zap.String("cause", r.Cause))
    }()
}
