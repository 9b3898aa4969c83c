package arena

import (
    "errors"

    "github.com/park285/cheese-arena/internal/archive"
    "github.com/park285/cheese-arena/internal/identity"
    "github.com/park285/cheese-arena/internal/metrics"
    "github.com/park285/cheese-arena/internal/obslog"
    "github.com/park285/cheese-arena/internal/rules"
    "github.com/park285/cheese-arena/internal/session"
    "github.com/park285/cheese-arena/pkg/arenadto"
    "go.uber.org/zap"
)

// Cause labels why a session ended.
type Cause string

const (
    CauseCheckmate   Cause = "checkmate"
    CauseDraw        Cause = "draw"
    CauseResignation Cause = "resignation"
    CauseTimeout     Cause = "timeout"
    CauseDisconnect  Cause = "disconnect"
)

type outcome struct {
    draw   bool
    winner rules.Color
    cause  Cause
    method string
}

func (m *Manager) submitMove(conn string, req arenadto.SubmitMoveRequest) {
    reject := func(code, key string, data any) {
        metrics.MovesRejected.WithLabelValues(code).Inc()
        m.emit(conn, arenadto.TypeMoveRejected, arenadto.Reason{Reason: m.reason(key, data)})
    }
    id, ok := m.dir.Get(conn)
    if !ok || id.Status != identity.Playing {
        reject("no_session", "move.no_session", nil)
        return
    }
    s, ok := m.sessions[id.SessionID]
    if !ok {
        reject("no_session", "move.no_session", nil)
        return
    }
    claimed, ok := rules.ParseColor(req.Color)
    if !ok {
        claimed, _ = s.ColorOf(conn)
    }
    move := req.Notation()

    res, err := s.Submit(conn, id.Name, move, claimed)
    switch {
    case err == nil:
    case errors.Is(err, session.ErrFlagFell):
        m.terminate(s, outcome{winner: s.TimeoutWinner(), cause: CauseTimeout})
        return
    case errors.Is(err, session.ErrNotActive):
        reject("no_session", "move.no_session", nil)
        return
    case errors.Is(err, session.ErrNotParticipant):
        reject("not_participant", "move.not_participant", nil)
        return
    case errors.Is(err, session.ErrNotYourTurn):
        reject("not_your_turn", "move.not_your_turn", nil)
        return
    case errors.Is(err, session.ErrBinding):
        reject("binding", "move.binding", nil)
        return
    default:
        obslog.L().Debug("arena_move_rejected", zap.String("session_id", s.ID), zap.String("move", move), zap.Error(err))
        reject("illegal", "move.illegal", map[string]any{"Move": move})
        return
    }

    metrics.MovesApplied.Inc()
    obslog.L().Info("arena_move",
        zap.String("session_id", s.ID),
        zap.String("color", string(res.Applied.Color)),
        zap.String("uci", res.Applied.UCI),
        zap.String("san", res.Applied.SAN),
        zap.Int("ply", res.MoveNumber),
    )
    m.broadcast(s.ID, arenadto.TypeMoveApplied, arenadto.MoveApplied{
        SessionID:  s.ID,
        Move:       res.Applied.SAN,
        UCI:        res.Applied.UCI,
        Color:      string(res.Applied.Color),
        WhiteClock: res.WhiteLeft.Milliseconds(),
        BlackClock: res.BlackLeft.Milliseconds(),
        Position:   res.Position,
        MoveNumber: res.MoveNumber,
    })

    switch res.Terminal.Kind {
    case rules.Checkmate:
        m.terminate(s, outcome{winner: res.Terminal.Winner, cause: CauseCheckmate, method: res.Terminal.Method})
    case rules.Draw:
        m.terminate(s, outcome{draw: true, cause: CauseDraw, method: res.Terminal.Method})
    }
}

func (m *Manager) resign(conn string) {
    id, ok := m.dir.Get(conn)
    if !ok || id.Status != identity.Playing { return }
    s, ok := m.sessions[id.SessionID]
    if !ok { return }
    color, ok := s.ColorOf(conn)
    if !ok { return }
    m.terminate(s, outcome{winner: color.Opposite(), cause: CauseResignation})
}

// terminate ends s exactly once. Sessions no longer in the live map are ignored.
func (m *Manager) terminate(s *session.Session, out outcome) {
    if s == nil || m.sessions[s.ID] != s { return }
    w, b, first := s.End()
    if !first { return }
    delete(m.sessions, s.ID)

    result := string(out.winner)
    winnerName := ""
    if out.draw {
        result = "draw"
    } else {
        winnerName = s.Player(out.winner).Name
    }
    now := m.opts.Now()
    pos := s.Position()
    pgn := rules.ExportHistory(pos, rules.Header{
        White:       s.White.Name,
        Black:       s.Black.Name,
        TimeControl: s.Time.Label(),
        Termination: string(out.cause),
        Result:      result,
        Date:        now,
    })
    fen := rules.ExportCanonical(pos)

    ended := arenadto.GameEnded{
        SessionID:     s.ID,
        IsDraw:        out.draw,
        Cause:         string(out.cause),
        Method:        out.method,
        HistoryExport: pgn,
        Position:      fen,
        WhiteClock:    w.Milliseconds(),
        BlackClock:    b.Milliseconds(),
    }
    if !out.draw {
        ended.WinnerColor = string(out.winner)
        ended.WinnerName = winnerName
    }
    m.broadcast(s.ID, arenadto.TypeGameEnded, ended)

    for _, p := range []session.Player{s.White, s.Black} {
        if id, ok := m.dir.Get(p.Conn); ok && id.SessionID == s.ID {
            m.dir.SetStatus(p.Conn, identity.Idle, "")
        }
    }

    group := s.ID
    if m.fabric != nil {
        if m.opts.GroupTeardown <= 0 {
            m.fabric.ClearGroup(group)
        } else {
            m.after(m.opts.GroupTeardown, func() {
                if _, live := m.sessions[group]; live { return }
                m.fabric.ClearGroup(group)
            })
        }
    }

    if m.opts.Archiver != nil {
        m.opts.Archiver.Archive(archive.Record{
            SessionID:   s.ID,
            WhiteName:   s.White.Name,
            BlackName:   s.Black.Name,
            Result:      result,
            Cause:       string(out.cause),
            Method:      out.method,
            PGN:         pgn,
            FEN:         fen,
            MovesUCI:    rules.MovesUCI(pos),
            MovesSAN:    rules.MovesSAN(pos),
            TimeControl: s.Time.Label(),
            WhiteLeftMS: w.Milliseconds(),
            BlackLeftMS: b.Milliseconds(),
            StartedAt:   s.StartedAt,
            EndedAt:     now,
        })
    }

    metrics.SessionsEnded.WithLabelValues(string(out.cause)).Inc()
    m.updateGauges()
    obslog.L().Info("arena_session_end",
        zap.String("session_id", s.ID),
        zap.String("result", result),
        zap.String("cause", string(out.cause)),
        zap.String("method", out.method),
        zap.Int("plies", rules.MoveCount(pos)),
    )
}
