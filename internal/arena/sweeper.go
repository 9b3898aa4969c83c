package arena

import (
    "context"
    "sort"
    "time"

    "github.com/park285/cheese-arena/internal/obslog"
    "github.com/park285/cheese-arena/internal/session"
    "go.uber.org/zap"
)

// RunSweeper polls every SweepInterval until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context) {
    t := time.NewTicker(m.opts.SweepInterval)
    defer t.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-t.C:
            if n := m.SweepOnce(); n > 0 {
                obslog.L().Debug("arena_sweep", zap.Int("timeouts", n))
            }
        }
    }
}

// SweepOnce ends every active session with a fallen flag and returns how many it
// ended. Expired sessions are collected first and terminated after the scan.
func (m *Manager) SweepOnce() int {
    m.mu.Lock()
    defer m.mu.Unlock()

    var expired []*session.Session
    for _, s := range m.sessions {
        if s.State() == session.StateActive && s.Expired() {
            expired = append(expired, s)
        }
    }
    sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
    for _, s := range expired {
        m.terminate(s, outcome{winner: s.TimeoutWinner(), cause: CauseTimeout})
    }
    return len(expired)
}
