package arena

import (
    "slices"
    "strings"
    "unicode/utf8"

    "github.com/park285/cheese-arena/internal/identity"
    "github.com/park285/cheese-arena/internal/obslog"
    "github.com/park285/cheese-arena/internal/rules"
    "github.com/park285/cheese-arena/internal/session"
    "github.com/park285/cheese-arena/pkg/arenadto"
    "go.uber.org/zap"
)

// MaxChatRunes bounds a chat line.
const MaxChatRunes = 500

// registerSpectator resolves ref as a session id first, then as a playing name.
func (m *Manager) registerSpectator(conn string, req arenadto.RegisterSpectatorRequest) {
    ref := strings.TrimSpace(req.Ref)
    s := m.resolveSession(ref)
    if s == nil {
        m.emit(conn, arenadto.TypeSpectatorFailed, arenadto.Reason{Reason: m.reason("spectator.not_found", map[string]any{"Ref": ref})})
        return
    }
    if m.fabric != nil {
        m.fabric.Join(s.ID, conn)
    }
    w, b := s.Clocks()
    m.emit(conn, arenadto.TypeSpectatorRegistered, arenadto.SpectatorRegistered{
        SessionID:   s.ID,
        WhiteName:   s.White.Name,
        BlackName:   s.Black.Name,
        Position:    rules.ExportCanonical(s.Position()),
        WhiteClock:  w.Milliseconds(),
        BlackClock:  b.Milliseconds(),
        EvalVisible: s.EvalVisible,
        Moves:       rules.MovesSAN(s.Position()),
    })
    obslog.L().Info("arena_spectate", zap.String("conn", conn), zap.String("session_id", s.ID))
}

func (m *Manager) resolveSession(ref string) *session.Session {
    if ref == "" { return nil }
    if s, ok := m.sessions[ref]; ok { return s }
    if id, ok := m.dir.ByName(ref); ok && id.Status == identity.Playing {
        return m.sessions[id.SessionID]
    }
    return nil
}

// sendChat relays text to a group the registered sender belongs to. Anything else
// is dropped.
func (m *Manager) sendChat(conn string, req arenadto.ChatRequest) {
    sender, ok := m.dir.Get(conn)
    if !ok || m.fabric == nil { return }
    group := strings.TrimSpace(req.Group)
    text := strings.TrimSpace(req.Text)
    if group == "" || text == "" || utf8.RuneCountInString(text) > MaxChatRunes { return }
    if !slices.Contains(m.fabric.Members(group), conn) {
        obslog.L().Debug("arena_chat_dropped", zap.String("conn", conn), zap.String("group", group))
        return
    }
    m.broadcast(group, arenadto.TypeChatMessage, arenadto.ChatMessage{
        Group:     group,
        Sender:    sender.Name,
        Text:      text,
        Timestamp: m.opts.Now().UnixMilli(),
    })
}
