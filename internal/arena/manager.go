package arena

import (
    "crypto/rand"
    "encoding/json"
    "math/big"
    "sync"
    "time"

    "github.com/park285/cheese-arena/internal/archive"
    "github.com/park285/cheese-arena/internal/identity"
    "github.com/park285/cheese-arena/internal/matchmaking"
    "github.com/park285/cheese-arena/internal/metrics"
    "github.com/park285/cheese-arena/internal/msgcat"
    "github.com/park285/cheese-arena/internal/obslog"
    "github.com/park285/cheese-arena/internal/rules"
    "github.com/park285/cheese-arena/internal/session"
    "github.com/park285/cheese-arena/pkg/arenadto"
    "go.uber.org/zap"
)

// Fabric delivers events to connections and broadcast groups. Implementations must
// not block: the manager calls it while holding its lock.
type Fabric interface {
    Emit(conn string, ev arenadto.Event)
    EmitGroup(group string, ev arenadto.Event)
    Join(group, conn string)
    Members(group string) []string
    ClearGroup(group string)
}

// Archiver receives finished games. Archive must return immediately.
type Archiver interface {
    Archive(r archive.Record)
}

// Options tunes timing and injects collaborators. Zero values take defaults.
type Options struct {
    Grace           time.Duration
    ChallengeTTL    time.Duration
    GroupTeardown   time.Duration
    StartSettle     time.Duration
    SweepInterval   time.Duration
    MaxTotalMinutes float64
    MaxIncrementSec float64

    Catalog  *msgcat.Catalog
    Archiver Archiver

    Now       func() time.Time
    Coin      func() bool
    AfterFunc func(time.Duration, func()) (stop func() bool)
}

// Manager owns every identity, offer, challenge and live session. All mutation
// happens under mu, so handlers, timers and sweeps never interleave.
type Manager struct {
    mu       sync.Mutex
    opts     Options
    fabric   Fabric
    dir      *identity.Directory
    reg      *matchmaking.Registry
    sessions map[string]*session.Session
}

func New(fabric Fabric, opts Options) *Manager {
    if opts.Grace < 0 {
        opts.Grace = 0
    }
    if opts.ChallengeTTL <= 0 {
        opts.ChallengeTTL = 15 * time.Second
    }
    if opts.GroupTeardown < 0 {
        opts.GroupTeardown = 0
    }
    if opts.SweepInterval <= 0 {
        opts.SweepInterval = 2 * time.Second
    }
    if opts.MaxTotalMinutes <= 0 {
        opts.MaxTotalMinutes = 180
    }
    if opts.MaxIncrementSec <= 0 {
        opts.MaxIncrementSec = 180
    }
    if opts.Now == nil {
        opts.Now = time.Now
    }
    if opts.Coin == nil {
        opts.Coin = secureCoin
    }
    if opts.AfterFunc == nil {
        opts.AfterFunc = func(d time.Duration, f func()) func() bool { return time.AfterFunc(d, f).Stop }
    }
    return &Manager{
        opts:     opts,
        fabric:   fabric,
        dir:      identity.NewDirectory(),
        reg:      matchmaking.NewRegistry(),
        sessions: map[string]*session.Session{},
    }
}

// Handle dispatches one inbound event from conn.
func (m *Manager) Handle(conn, typ string, payload json.RawMessage) {
    m.mu.Lock()
    defer m.mu.Unlock()

    switch typ {
    case arenadto.TypeRegister:
        var req arenadto.RegisterRequest
        if m.decode(conn, payload, &req) { m.register(conn, req) }
    case arenadto.TypeCreateOffer, arenadto.TypeRequestChallenge:
        // Visibility follows the target name for both.
        var req arenadto.CreateOfferRequest
        if m.decode(conn, payload, &req) { m.createOffer(conn, req) }
    case arenadto.TypeJoinOffer:
        var req arenadto.JoinOfferRequest
        if m.decode(conn, payload, &req) { m.joinOffer(conn, req) }
    case arenadto.TypeAcceptChallenge:
        var req arenadto.AcceptChallengeRequest
        if m.decode(conn, payload, &req) { m.acceptChallenge(conn, req) }
    case arenadto.TypeSubmitMove:
        var req arenadto.SubmitMoveRequest
        if m.decode(conn, payload, &req) { m.submitMove(conn, req) }
    case arenadto.TypeResign:
        m.resign(conn)
    case arenadto.TypeRegisterSpectator:
        var req arenadto.RegisterSpectatorRequest
        if m.decode(conn, payload, &req) { m.registerSpectator(conn, req) }
    case arenadto.TypeSendChatMessage:
        var req arenadto.ChatRequest
        if m.decode(conn, payload, &req) { m.sendChat(conn, req) }
    case arenadto.TypeListOffers:
        m.listOffers(conn)
    default:
        m.emit(conn, arenadto.TypeError, arenadto.Reason{Reason: m.reason("envelope.unknown_type", map[string]any{"Type": typ})})
    }
}

// Malformed answers a frame that could not be decoded as an envelope.
func (m *Manager) Malformed(conn string) {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.emit(conn, arenadto.TypeError, arenadto.Reason{Reason: m.reason("envelope.malformed", nil)})
}

// Disconnect runs the lifecycle transition for a closed connection.
func (m *Manager) Disconnect(conn string) {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.disconnect(conn)
}

// ServerInfo reports counts for the status endpoint.
func (m *Manager) ServerInfo() arenadto.ServerInfo {
    m.mu.Lock()
    defer m.mu.Unlock()
    return arenadto.ServerInfo{
        PlayersOnline: m.dir.Count(),
        LiveSessions:  len(m.sessions),
        OpenOffers:    m.reg.OfferCount(),
    }
}

// Position returns the current position of a live session.
func (m *Manager) Position(sessionID string) (rules.Position, bool) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.sessions[sessionID]
    if !ok { return rules.Position{}, false }
    return s.Position(), true
}

func (m *Manager) decode(conn string, payload json.RawMessage, v any) bool {
    if len(payload) == 0 { return true }
    if err := json.Unmarshal(payload, v); err != nil {
        obslog.L().Debug("arena_decode_error", zap.String("conn", conn), zap.Error(err))
        m.emit(conn, arenadto.TypeError, arenadto.Reason{Reason: m.reason("envelope.malformed", nil)})
        return false
    }
    return true
}

func (m *Manager) emit(conn, typ string, payload any) {
    if m.fabric == nil { return }
    m.fabric.Emit(conn, arenadto.NewEvent(typ, payload))
}

func (m *Manager) broadcast(group, typ string, payload any) {
    if m.fabric == nil { return }
    m.fabric.EmitGroup(group, arenadto.NewEvent(typ, payload))
}

func (m *Manager) reason(key string, data any) string { return m.opts.Catalog.Reason(key, data) }

// locked wraps a timer callback so it runs under the manager lock.
func (m *Manager) locked(f func()) func() {
    return func() {
        m.mu.Lock()
        defer m.mu.Unlock()
        f()
    }
}

func (m *Manager) after(d time.Duration, f func()) func() bool {
    return m.opts.AfterFunc(d, m.locked(f))
}

func (m *Manager) idTaken(id string) bool {
    if m.reg.Exists(id) { return true }
    _, ok := m.sessions[id]
    return ok
}

func (m *Manager) updateGauges() {
    metrics.PlayersOnline.Set(float64(m.dir.Count()))
    metrics.LiveSessions.Set(float64(len(m.sessions)))
}

func secureCoin() bool {
    n, err := rand.Int(rand.Reader, big.NewInt(2))
    if err != nil || n == nil { return time.Now().UnixNano()%2 == 0 }
    return n.Int64() == 0
}

func timeSpecs(ts matchmaking.TimeSpec) arenadto.TimeSpecs {
    return arenadto.TimeSpecs{TotalTime: ts.TotalMinutes, Increment: ts.IncrementSeconds}
}
