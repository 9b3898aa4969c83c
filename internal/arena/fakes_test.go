package arena

import (
    "encoding/json"
    "sort"
    "sync"
    "testing"
    "time"

    "github.com/park285/cheese-arena/internal/archive"
    "github.com/park285/cheese-arena/internal/msgcat"
    "github.com/park285/cheese-arena/pkg/arenadto"
)

type fakeFabric struct {
    mu      sync.Mutex
    inbox   map[string][]arenadto.Event
    groups  map[string]map[string]bool
    cleared []string
}

func newFakeFabric() *fakeFabric {
    return &fakeFabric{inbox: map[string][]arenadto.Event{}, groups: map[string]map[string]bool{}}
}

func (f *fakeFabric) Emit(conn string, ev arenadto.Event) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.inbox[conn] = append(f.inbox[conn], ev)
}

func (f *fakeFabric) EmitGroup(group string, ev arenadto.Event) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for conn := range f.groups[group] {
        f.inbox[conn] = append(f.inbox[conn], ev)
    }
}

func (f *fakeFabric) Join(group, conn string) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.groups[group] == nil {
        f.groups[group] = map[string]bool{}
    }
    f.groups[group][conn] = true
}

func (f *fakeFabric) Members(group string) []string {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []string
    for c := range f.groups[group] {
        out = append(out, c)
    }
    sort.Strings(out)
    return out
}

func (f *fakeFabric) ClearGroup(group string) {
    f.mu.Lock()
    defer f.mu.Unlock()
    delete(f.groups, group)
    f.cleared = append(f.cleared, group)
}

func (f *fakeFabric) events(conn, typ string) []arenadto.Event {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []arenadto.Event
    for _, ev := range f.inbox[conn] {
        if ev.Type == typ {
            out = append(out, ev)
        }
    }
    return out
}

func (f *fakeFabric) last(t *testing.T, conn, typ string) arenadto.Event {
    t.Helper()
    evs := f.events(conn, typ)
    if len(evs) == 0 { t.Fatalf("%s received no %s event", conn, typ) }
    return evs[len(evs)-1]
}

type fakeTimer struct {
    d    time.Duration
    f    func()
    done bool
}

type fakeTimers struct {
    mu   sync.Mutex
    list []*fakeTimer
}

func (ft *fakeTimers) AfterFunc(d time.Duration, f func()) func() bool {
    ft.mu.Lock()
    defer ft.mu.Unlock()
    tm := &fakeTimer{d: d, f: f}
    ft.list = append(ft.list, tm)
    return func() bool {
        ft.mu.Lock()
        defer ft.mu.Unlock()
        if tm.done { return false }
        tm.done = true
        return true
    }
}

// Fire runs every pending timer scheduled with duration d and returns how many ran.
func (ft *fakeTimers) Fire(d time.Duration) int {
    ft.mu.Lock()
    var due []func()
    for _, tm := range ft.list {
        if !tm.done && tm.d == d {
            tm.done = true
            due = append(due, tm.f)
        }
    }
    ft.mu.Unlock()
    for _, f := range due {
        f()
    }
    return len(due)
}

type fakeNow struct {
    mu sync.Mutex
    t  time.Time
}

func (f *fakeNow) Now() time.Time {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.t
}

func (f *fakeNow) Advance(d time.Duration) {
    f.mu.Lock()
    f.t = f.t.Add(d)
    f.mu.Unlock()
}

type fakeArchiver struct {
    mu      sync.Mutex
    records []archive.Record
}

func (a *fakeArchiver) Archive(r archive.Record) {
    a.mu.Lock()
    defer a.mu.Unlock()
    a.records = append(a.records, r)
}

const (
    testTTL      = 15 * time.Second
    testTeardown = 60 * time.Second
)

type harness struct {
    t        *testing.T
    m        *Manager
    fab      *fakeFabric
    timers   *fakeTimers
    clock    *fakeNow
    archiver *fakeArchiver
    coin     bool
}

// newHarness builds a manager with fake time. The coin defaults to true, which
// gives white to the offer creator or challenger. White's clock starts at game
// start unless an option sets StartSettle.
func newHarness(t *testing.T, opts ...func(*Options)) *harness {
    t.Helper()
    cat, err := msgcat.New("")
    if err != nil { t.Fatalf("catalog: %v", err) }
    h := &harness{
        t:        t,
        fab:      newFakeFabric(),
        timers:   &fakeTimers{},
        clock:    &fakeNow{t: time.Unix(1_700_000_000, 0)},
        archiver: &fakeArchiver{},
        coin:     true,
    }
    o := Options{
        Grace:         300 * time.Millisecond,
        ChallengeTTL:  testTTL,
        GroupTeardown: testTeardown,
        StartSettle:   0,
        Catalog:       cat,
        Archiver:      h.archiver,
        Now:           h.clock.Now,
        Coin:          func() bool { return h.coin },
        AfterFunc:     h.timers.AfterFunc,
    }
    for _, opt := range opts {
        opt(&o)
    }
    h.m = New(h.fab, o)
    return h
}

func (h *harness) send(conn, typ string, payload any) {
    h.t.Helper()
    var raw json.RawMessage
    if payload != nil {
        b, err := json.Marshal(payload)
        if err != nil { h.t.Fatalf("marshal: %v", err) }
        raw = b
    }
    h.m.Handle(conn, typ, raw)
}

func (h *harness) register(conn, name string) {
    h.t.Helper()
    h.send(conn, arenadto.TypeRegister, arenadto.RegisterRequest{Name: name})
    h.fab.last(h.t, conn, arenadto.TypeRegistered)
}

// startGame registers both players, opens a public offer by the first and joins
// with the second. It returns the session id.
func (h *harness) startGame(creatorConn, creatorName, joinerConn, joinerName string, minutes, inc float64) string {
    h.t.Helper()
    h.register(creatorConn, creatorName)
    h.register(joinerConn, joinerName)
    h.send(creatorConn, arenadto.TypeCreateOffer, arenadto.CreateOfferRequest{Visibility: "public", TotalTime: minutes, Increment: inc})
    created := h.fab.last(h.t, creatorConn, arenadto.TypeOfferCreated).Payload.(arenadto.OfferCreated)
    h.send(joinerConn, arenadto.TypeJoinOffer, arenadto.JoinOfferRequest{OfferID: created.ID})
    joined := h.fab.last(h.t, joinerConn, arenadto.TypeOfferJoined).Payload.(arenadto.OfferJoined)
    return joined.SessionID
}

func (h *harness) move(conn, mv, color string) {
    h.t.Helper()
    h.send(conn, arenadto.TypeSubmitMove, arenadto.SubmitMoveRequest{Move: mv, Color: color})
}
