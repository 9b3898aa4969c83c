package arena

import (
    "errors"
    "strings"

    "github.com/park285/cheese-arena/internal/identity"
    "github.com/park285/cheese-arena/internal/matchmaking"
    "github.com/park285/cheese-arena/internal/metrics"
    "github.com/park285/cheese-arena/internal/obslog"
    "github.com/park285/cheese-arena/internal/rules"
    "github.com/park285/cheese-arena/internal/session"
    "github.com/park285/cheese-arena/pkg/arenadto"
    "go.uber.org/zap"
)

func (m *Manager) register(conn string, req arenadto.RegisterRequest) {
    id, err := m.dir.Register(conn, req.Name)
    if err != nil {
        var key string
        switch {
        case errors.Is(err, identity.ErrNameTaken):
            key = "register.name_taken"
        case errors.Is(err, identity.ErrAlreadyRegistered):
            key = "register.already_registered"
        default:
            key = "register.invalid_name"
        }
        data := map[string]any{"Name": strings.TrimSpace(req.Name), "Max": identity.MaxNameRunes}
        if prev, ok := m.dir.Get(conn); ok {
            data["Name"] = prev.Name
        }
        obslog.L().Info("arena_register_failed", zap.String("conn", conn), zap.String("name", req.Name), zap.Error(err))
        m.emit(conn, arenadto.TypeRegisterFailed, arenadto.Reason{Reason: m.reason(key, data)})
        return
    }
    m.updateGauges()
    obslog.L().Info("arena_register", zap.String("conn", conn), zap.String("name", id.Name))
    m.emit(conn, arenadto.TypeRegistered, arenadto.Registered{Name: id.Name})
}

// createOffer opens a lobby offer, or a challenge when the target is present and idle.
// Requests from non-idle identities and invalid time controls are dropped silently.
func (m *Manager) createOffer(conn string, req arenadto.CreateOfferRequest) {
    creator, ok := m.dir.Get(conn)
    if !ok || creator.Status != identity.Idle {
        obslog.L().Debug("arena_offer_ignored", zap.String("conn", conn), zap.String("reason", "not idle"))
        return
    }
    ts := matchmaking.TimeSpec{TotalMinutes: req.TotalTime, IncrementSeconds: req.Increment}
    if err := ts.Validate(m.opts.MaxTotalMinutes, m.opts.MaxIncrementSec); err != nil {
        obslog.L().Info("arena_offer_ignored", zap.String("conn", conn), zap.Float64("total", req.TotalTime), zap.Float64("increment", req.Increment), zap.Error(err))
        return
    }
    target := strings.TrimSpace(req.TargetName)
    if target == creator.Name {
        obslog.L().Debug("arena_offer_ignored", zap.String("conn", conn), zap.String("reason", "self target"))
        return
    }
    if target != "" {
        if t, ok := m.dir.ByName(target); ok && t.Status == identity.Idle {
            m.openChallenge(creator, t, ts, req.EvalVisible)
            return
        }
    }

    // An empty target name yields a public offer.
    vis := matchmaking.Public
    if target != "" {
        vis = matchmaking.Targeted
    }
    now := m.opts.Now()
    id, err := matchmaking.NewID(creator.Name, now, m.idTaken)
    if err != nil {
        obslog.L().Warn("arena_offer_id_error", zap.String("conn", conn), zap.Error(err))
        return
    }
    o := matchmaking.Offer{
        ID:           id,
        CreatorConn:  conn,
        CreatorName:  creator.Name,
        Visibility:   vis,
        TargetName:   target,
        Time:         ts,
        CreatorColor: matchmaking.ParseColorChoice(req.Color),
        EvalVisible:  req.EvalVisible,
        CreatedAt:    now,
    }
    m.reg.PutOffer(o)
    m.dir.SetStatus(conn, identity.Queued, "")
    obslog.L().Info("arena_offer_create", zap.String("offer_id", id), zap.String("creator", creator.Name), zap.String("visibility", string(vis)), zap.String("target", target))
    m.emit(conn, arenadto.TypeOfferCreated, arenadto.OfferCreated{Kind: "offer", ID: id, TargetName: target, TimeSpecs: timeSpecs(ts)})
}

func (m *Manager) openChallenge(from, to identity.Identity, ts matchmaking.TimeSpec, eval bool) {
    now := m.opts.Now()
    id, err := matchmaking.NewID(from.Name, now, m.idTaken)
    if err != nil {
        obslog.L().Warn("arena_challenge_id_error", zap.String("conn", from.ConnID), zap.Error(err))
        return
    }
    ch := matchmaking.Challenge{
        ID:          id,
        FromConn:    from.ConnID,
        FromName:    from.Name,
        ToName:      to.Name,
        Time:        ts,
        EvalVisible: eval,
        ExpiresAt:   now.Add(m.opts.ChallengeTTL),
    }
    stop := m.after(m.opts.ChallengeTTL, func() { m.expireChallenge(id) })
    m.reg.PutChallenge(ch, stop)
    m.dir.SetStatus(from.ConnID, identity.Queued, "")
    obslog.L().Info("arena_challenge_create", zap.String("challenge_id", id), zap.String("from", from.Name), zap.String("to", to.Name))
    m.emit(to.ConnID, arenadto.TypeGameRequest, arenadto.GameRequest{
        ChallengeID: id,
        FromName:    from.Name,
        TimeSpecs:   timeSpecs(ts),
        EvalVisible: eval,
        ExpiresAt:   ch.ExpiresAt.UnixMilli(),
    })
    m.emit(from.ConnID, arenadto.TypeOfferCreated, arenadto.OfferCreated{Kind: "challenge", ID: id, TargetName: to.Name, TimeSpecs: timeSpecs(ts)})
}

// expireChallenge is the timer callback. It is a no-op when the challenge was
// already accepted or withdrawn.
func (m *Manager) expireChallenge(id string) {
    ch, ok := m.reg.ExpireChallenge(id)
    if !ok { return }
    m.releaseChallenger(ch)
    obslog.L().Info("arena_challenge_expire", zap.String("challenge_id", id), zap.String("from", ch.FromName), zap.String("to", ch.ToName))
}

// releaseChallenger returns a still-waiting challenger to Idle.
func (m *Manager) releaseChallenger(ch matchmaking.Challenge) {
    if from, ok := m.dir.Get(ch.FromConn); ok && from.Status == identity.Queued {
        m.dir.SetStatus(ch.FromConn, identity.Idle, "")
    }
}

// acceptChallenge fails silently on every rejection path.
func (m *Manager) acceptChallenge(conn string, req arenadto.AcceptChallengeRequest) {
    acceptor, ok := m.dir.Get(conn)
    if !ok { return }
    id := strings.TrimSpace(req.ChallengeID)
    ch, ok := m.reg.Challenge(id)
    if !ok {
        obslog.L().Debug("arena_challenge_accept_ignored", zap.String("challenge_id", id), zap.String("reason", "absent"))
        return
    }
    if ch.Expired(m.opts.Now()) {
        m.reg.TakeChallenge(id)
        m.releaseChallenger(ch)
        obslog.L().Info("arena_challenge_expire", zap.String("challenge_id", id), zap.String("from", ch.FromName), zap.String("to", ch.ToName))
        return
    }
    if acceptor.Name != ch.ToName || acceptor.Status != identity.Idle {
        obslog.L().Debug("arena_challenge_accept_ignored", zap.String("challenge_id", id), zap.String("reason", "acceptor"))
        return
    }
    challenger, ok := m.dir.Get(ch.FromConn)
    if !ok || challenger.Name != ch.FromName {
        m.reg.TakeChallenge(id)
        return
    }
    if _, ok := m.reg.TakeChallenge(id); !ok { return }

    a := session.Player{Conn: challenger.ConnID, Name: challenger.Name}
    b := session.Player{Conn: acceptor.ConnID, Name: acceptor.Name}
    if !m.opts.Coin() {
        a, b = b, a
    }
    m.startSession(id, a, b, ch.Time, ch.EvalVisible, acceptor.ConnID)
}

func (m *Manager) joinOffer(conn string, req arenadto.JoinOfferRequest) {
    fail := func(err error) {
        obslog.L().Debug("arena_offer_join_failed", zap.String("conn", conn), zap.String("offer_id", req.OfferID), zap.Error(err))
        m.emit(conn, arenadto.TypeOfferJoinFailed, arenadto.Reason{Reason: m.reason(joinFailureKey(err), nil)})
    }
    joiner, ok := m.dir.Get(conn)
    if !ok {
        fail(matchmaking.ErrNotIdle)
        return
    }
    id := strings.TrimSpace(req.OfferID)
    o, ok := m.reg.Offer(id)
    if !ok {
        fail(matchmaking.ErrOfferGone)
        return
    }
    if err := o.CheckJoin(conn, joiner.Name, joiner.Status == identity.Idle); err != nil {
        fail(err)
        return
    }
    creator, ok := m.dir.Get(o.CreatorConn)
    if !ok {
        m.reg.TakeOffer(id)
        fail(matchmaking.ErrOfferGone)
        return
    }
    if _, ok := m.reg.TakeOffer(id); !ok {
        fail(matchmaking.ErrOfferGone)
        return
    }

    c := session.Player{Conn: creator.ConnID, Name: creator.Name}
    j := session.Player{Conn: joiner.ConnID, Name: joiner.Name}
    white, black := c, j
    switch o.CreatorColor {
    case matchmaking.ColorBlack:
        white, black = j, c
    case matchmaking.ColorRandom:
        if !m.opts.Coin() {
            white, black = j, c
        }
    }
    m.startSession(id, white, black, o.Time, o.EvalVisible, joiner.ConnID)
}

func joinFailureKey(err error) string {
    switch {
    case errors.Is(err, matchmaking.ErrOwnOffer):
        return "offer.own_offer"
    case errors.Is(err, matchmaking.ErrTargetMismatch):
        return "offer.targeted"
    case errors.Is(err, matchmaking.ErrNotIdle):
        return "offer.busy"
    default:
        return "offer.not_found"
    }
}

func (m *Manager) listOffers(conn string) {
    viewer := ""
    if id, ok := m.dir.Get(conn); ok {
        viewer = id.Name
    }
    offers := m.reg.ListOffers(viewer)
    out := arenadto.OpenOffers{Offers: make([]arenadto.OfferSummary, 0, len(offers))}
    for _, o := range offers {
        out.Offers = append(out.Offers, arenadto.OfferSummary{
            OfferID:     o.ID,
            CreatorName: o.CreatorName,
            Targeted:    o.Visibility == matchmaking.Targeted,
            TimeSpecs:   timeSpecs(o.Time),
            EvalVisible: o.EvalVisible,
        })
    }
    m.emit(conn, arenadto.TypeOpenOffers, out)
}

// startSession wires a new session: clocks, identities, broadcast group and the
// delayed white clock start.
func (m *Manager) startSession(id string, white, black session.Player, ts matchmaking.TimeSpec, eval bool, joinerConn string) {
    s := session.New(id, white, black, ts, eval, session.Config{Now: m.opts.Now, Grace: m.opts.Grace})
    m.sessions[id] = s
    m.dir.SetStatus(white.Conn, identity.Playing, id)
    m.dir.SetStatus(black.Conn, identity.Playing, id)
    if m.fabric != nil {
        m.fabric.Join(id, white.Conn)
        m.fabric.Join(id, black.Conn)
    }
    s.Activate()

    joinerColor := rules.White
    opponent := black
    if joinerConn == black.Conn {
        joinerColor = rules.Black
        opponent = white
    }
    m.emit(joinerConn, arenadto.TypeOfferJoined, arenadto.OfferJoined{
        SessionID:    id,
        OpponentName: opponent.Name,
        MyColor:      string(joinerColor),
        TimeSpecs:    timeSpecs(ts),
    })
    w, b := s.Clocks()
    m.broadcast(id, arenadto.TypeGameStarted, arenadto.GameStarted{
        SessionID:   id,
        WhiteName:   white.Name,
        BlackName:   black.Name,
        TimeSpecs:   timeSpecs(ts),
        EvalVisible: eval,
        WhiteClock:  w.Milliseconds(),
        BlackClock:  b.Milliseconds(),
        Position:    rules.ExportCanonical(s.Position()),
    })

    if m.opts.StartSettle <= 0 {
        s.StartWhiteClock()
    } else {
        s.SetSettleTimer(m.after(m.opts.StartSettle, func() {
            if m.sessions[id] == s {
                s.StartWhiteClock()
            }
        }))
    }

    metrics.SessionsStarted.Inc()
    m.updateGauges()
    obslog.L().Info("arena_session_start",
        zap.String("session_id", id),
        zap.String("white", white.Name),
        zap.String("black", black.Name),
        zap.String("time_control", ts.Label()),
    )
}
