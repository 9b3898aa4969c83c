package matchmaking

import (
    "errors"
    "testing"
    "time"
)

func TestNewIDDeterministicAndCollisionRetry(t *testing.T) {
    now := time.Unix(1_700_000_000, 42)
    id1, err := NewID("alice", now, nil)
    if err != nil { t.Fatalf("NewID: %v", err) }
    if len(id1) != 12 { t.Fatalf("id length=%d", len(id1)) }
    id2, _ := NewID("alice", now, nil)
    if id1 != id2 { t.Fatalf("same inputs gave different ids") }

    id3, err := NewID("alice", now, func(id string) bool { return id == id1 })
    if err != nil { t.Fatalf("NewID retry: %v", err) }
    if id3 == id1 { t.Fatalf("collision not avoided") }

    if _, err := NewID("alice", now, func(string) bool { return true }); !errors.Is(err, ErrIDExhausted) {
        t.Fatalf("expected ErrIDExhausted, got %v", err)
    }
}

func TestTakeOfferFirstWins(t *testing.T) {
    r := NewRegistry()
    r.PutOffer(Offer{ID: "o1", CreatorConn: "c1", CreatorName: "alice", Visibility: Public})
    if !r.Exists("o1") { t.Fatalf("offer missing") }
    if _, ok := r.TakeOffer("o1"); !ok { t.Fatalf("first take failed") }
    if _, ok := r.TakeOffer("o1"); ok { t.Fatalf("second take must fail") }
}

func TestListOffersVisibilityAndOrder(t *testing.T) {
    r := NewRegistry()
    base := time.Unix(100, 0)
    r.PutOffer(Offer{ID: "b", Visibility: Public, CreatedAt: base.Add(time.Second)})
    r.PutOffer(Offer{ID: "a", Visibility: Public, CreatedAt: base})
    r.PutOffer(Offer{ID: "t", Visibility: Targeted, TargetName: "carol", CreatedAt: base})

    got := r.ListOffers("dave")
    if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" { t.Fatalf("dave sees %+v", got) }
    if got := r.ListOffers("carol"); len(got) != 3 { t.Fatalf("carol sees %d offers", len(got)) }
}

func TestOfferCheckJoin(t *testing.T) {
    o := Offer{ID: "t", CreatorConn: "c1", Visibility: Targeted, TargetName: "carol"}
    if err := o.CheckJoin("c1", "alice", true); !errors.Is(err, ErrOwnOffer) { t.Fatalf("own: %v", err) }
    if err := o.CheckJoin("c2", "dave", true); !errors.Is(err, ErrTargetMismatch) { t.Fatalf("target: %v", err) }
    if err := o.CheckJoin("c3", "carol", false); !errors.Is(err, ErrNotIdle) { t.Fatalf("busy: %v", err) }
    if err := o.CheckJoin("c3", "carol", true); err != nil { t.Fatalf("carol: %v", err) }

    open := Offer{ID: "u", CreatorConn: "c1", Visibility: Targeted}
    if !open.VisibleTo("dave") { t.Fatalf("targeted offer without a name must be open") }
}

func TestRemoveOffersBy(t *testing.T) {
    r := NewRegistry()
    r.PutOffer(Offer{ID: "o1", CreatorConn: "c1"})
    r.PutOffer(Offer{ID: "o2", CreatorConn: "c1"})
    r.PutOffer(Offer{ID: "o3", CreatorConn: "c2"})
    if got := r.RemoveOffersBy("c1"); len(got) != 2 { t.Fatalf("removed %d", len(got)) }
    if r.OfferCount() != 1 { t.Fatalf("remaining=%d", r.OfferCount()) }
}

func TestTakeChallengeStopsTimer(t *testing.T) {
    r := NewRegistry()
    stopped := 0
    r.PutChallenge(Challenge{ID: "c1", FromConn: "x", ToName: "bob"}, func() bool { stopped++; return true })
    if got := r.ChallengesInvolving("y", "bob"); len(got) != 1 { t.Fatalf("involving target: %d", len(got)) }
    if got := r.ChallengesInvolving("x", ""); len(got) != 1 { t.Fatalf("involving sender: %d", len(got)) }
    if _, ok := r.TakeChallenge("c1"); !ok || stopped != 1 { t.Fatalf("take ok=%v stopped=%d", ok, stopped) }
    if _, ok := r.ExpireChallenge("c1"); ok { t.Fatalf("expire after take must be a no-op") }
}

func TestChallengeExpiredBoundary(t *testing.T) {
    exp := time.Unix(200, 0)
    c := Challenge{ExpiresAt: exp}
    if c.Expired(exp.Add(-time.Millisecond)) { t.Fatalf("expired early") }
    if !c.Expired(exp) { t.Fatalf("not expired at deadline") }
}

func TestTimeSpec(t *testing.T) {
    ok := TimeSpec{TotalMinutes: 5, IncrementSeconds: 3}
    if err := ok.Validate(180, 180); err != nil { t.Fatalf("Validate: %v", err) }
    total, inc := ok.Durations()
    if total != 5*time.Minute || inc != 3*time.Second { t.Fatalf("durations %v %v", total, inc) }
    if ok.Label() != "300+3" { t.Fatalf("label=%q", ok.Label()) }

    bad := []TimeSpec{{TotalMinutes: 0}, {TotalMinutes: -1}, {TotalMinutes: 181}, {TotalMinutes: 5, IncrementSeconds: -1}, {TotalMinutes: 5, IncrementSeconds: 200}}
    for _, ts := range bad {
        if err := ts.Validate(180, 180); !errors.Is(err, ErrInvalidTime) { t.Fatalf("Validate(%+v)=%v", ts, err) }
    }
    if got := (TimeSpec{TotalMinutes: 0.5}); got.Label() != "30+0" { t.Fatalf("label=%q", got.Label()) }
}

func TestParseColorChoice(t *testing.T) {
    if ParseColorChoice("W") != ColorWhite || ParseColorChoice("black") != ColorBlack || ParseColorChoice("") != ColorRandom {
        t.Fatalf("ParseColorChoice mapping")
    }
}
