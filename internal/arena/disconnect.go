package arena

import (
    "github.com/park285/cheese-arena/internal/identity"
    "github.com/park285/cheese-arena/internal/obslog"
    "go.uber.org/zap"
)

// departure is the status-specific half of a disconnect.
type departure func(m *Manager, id identity.Identity)

var departures = map[identity.Status]departure{
    identity.Idle:    func(*Manager, identity.Identity) {},
    identity.Queued:  (*Manager).retract,
    identity.Playing: (*Manager).forfeit,
}

func (m *Manager) disconnect(conn string) {
    id, ok := m.dir.Get(conn)
    if !ok { return }
    if step, ok := departures[id.Status]; ok {
        step(m, id)
    }
    m.withdrawChallengesTo(id.Name)
    m.dir.Unregister(conn)
    m.updateGauges()
    obslog.L().Info("arena_disconnect", zap.String("conn", conn), zap.String("name", id.Name), zap.String("status", string(id.Status)))
}

// retract removes the offers and challenges the identity created.
func (m *Manager) retract(id identity.Identity) {
    for _, o := range m.reg.RemoveOffersBy(id.ConnID) {
        obslog.L().Info("arena_offer_retract", zap.String("offer_id", o.ID), zap.String("creator", id.Name))
    }
    for _, ch := range m.reg.ChallengesInvolving(id.ConnID, "") {
        if ch.FromConn != id.ConnID { continue }
        m.reg.TakeChallenge(ch.ID)
        obslog.L().Info("arena_challenge_retract", zap.String("challenge_id", ch.ID), zap.String("from", id.Name))
    }
}

// forfeit ends the identity's live session in the opponent's favour.
func (m *Manager) forfeit(id identity.Identity) {
    s, ok := m.sessions[id.SessionID]
    if !ok { return }
    color, ok := s.ColorOf(id.ConnID)
    if !ok { return }
    m.terminate(s, outcome{winner: color.Opposite(), cause: CauseDisconnect})
}

// withdrawChallengesTo drops pending challenges addressed to name and frees their senders.
func (m *Manager) withdrawChallengesTo(name string) {
    for _, ch := range m.reg.ChallengesInvolving("", name) {
        if ch.ToName != name { continue }
        m.reg.TakeChallenge(ch.ID)
        m.releaseChallenger(ch)
        obslog.L().Info("arena_challenge_withdraw", zap.String("challenge_id", ch.ID), zap.String("to", name))
    }
}
