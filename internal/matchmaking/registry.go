package matchmaking

import (
    "crypto/sha256"
    "encoding/hex"
    "sort"
    "strconv"
    "time"
)

const idLen = 12

// NewID derives a short id from sha256(name + creation time in ns). On collision the
// timestamp is nudged and the hash recomputed.
func NewID(name string, now time.Time, exists func(string) bool) (string, error) {
    ns := now.UnixNano()
    for i := 0; i < 8; i++ {
        sum := sha256.Sum256([]byte(name + strconv.FormatInt(ns+int64(i), 10)))
        id := hex.EncodeToString(sum[:])[:idLen]
        if exists == nil || !exists(id) { return id, nil }
    }
    return "", ErrIDExhausted
}

type challengeEntry struct {
    ch   Challenge
    stop func() bool
}

// Registry holds open offers and pending challenges. It is not safe for concurrent
// use; the arena manager serialises access.
type Registry struct {
    offers     map[string]*Offer
    challenges map[string]*challengeEntry
}

func NewRegistry() *Registry {
    return &Registry{offers: map[string]*Offer{}, challenges: map[string]*challengeEntry{}}
}

// Exists reports whether id is used by an offer or a challenge.
func (r *Registry) Exists(id string) bool {
    if _, ok := r.offers[id]; ok { return true }
    _, ok := r.challenges[id]
    return ok
}

func (r *Registry) PutOffer(o Offer) {
    cp := o
    r.offers[o.ID] = &cp
}

func (r *Registry) Offer(id string) (Offer, bool) {
    o, ok := r.offers[id]
    if !ok { return Offer{}, false }
    return *o, true
}

// TakeOffer removes and returns the offer. Only the first caller gets it.
func (r *Registry) TakeOffer(id string) (Offer, bool) {
    o, ok := r.offers[id]
    if !ok { return Offer{}, false }
    delete(r.offers, id)
    return *o, true
}

// RemoveOffersBy deletes every offer created by conn.
func (r *Registry) RemoveOffersBy(conn string) []Offer {
    var out []Offer
    for id, o := range r.offers {
        if o.CreatorConn == conn {
            out = append(out, *o)
            delete(r.offers, id)
        }
    }
    return out
}

// ListOffers returns offers viewer may join, oldest first.
func (r *Registry) ListOffers(viewer string) []Offer {
    out := make([]Offer, 0, len(r.offers))
    for _, o := range r.offers {
        if o.VisibleTo(viewer) {
            out = append(out, *o)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].CreatedAt.Equal(out[j].CreatedAt) { return out[i].ID < out[j].ID }
        return out[i].CreatedAt.Before(out[j].CreatedAt)
    })
    return out
}

func (r *Registry) OfferCount() int { return len(r.offers) }

// PutChallenge stores ch; stop cancels its expiry timer and may be nil.
func (r *Registry) PutChallenge(ch Challenge, stop func() bool) {
    r.challenges[ch.ID] = &challengeEntry{ch: ch, stop: stop}
}

func (r *Registry) Challenge(id string) (Challenge, bool) {
    e, ok := r.challenges[id]
    if !ok { return Challenge{}, false }
    return e.ch, true
}

// TakeChallenge removes the challenge and cancels its expiry timer.
func (r *Registry) TakeChallenge(id string) (Challenge, bool) {
    e, ok := r.challenges[id]
    if !ok { return Challenge{}, false }
    delete(r.challenges, id)
    if e.stop != nil {
        e.stop()
    }
    return e.ch, true
}

// ExpireChallenge removes the challenge without touching its timer; used from the
// timer callback itself.
func (r *Registry) ExpireChallenge(id string) (Challenge, bool) {
    e, ok := r.challenges[id]
    if !ok { return Challenge{}, false }
    delete(r.challenges, id)
    return e.ch, true
}

// ChallengesInvolving lists challenges sent by conn or addressed to name.
func (r *Registry) ChallengesInvolving(conn, name string) []Challenge {
    var out []Challenge
    for _, e := range r.challenges {
        if e.ch.FromConn == conn || (name != "" && e.ch.ToName == name) {
            out = append(out, e.ch)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out
}

func formatSeconds(d time.Duration) string {
    return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
