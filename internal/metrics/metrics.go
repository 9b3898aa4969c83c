package metrics

import (
    "github.com/prometheus/client_golang/prometheus"
)

var (
    SessionsStarted = prometheus.NewCounter(
        prometheus.CounterOpts{
            Name: "arena_sessions_started_total",
            Help: "Total sessions started",
        },
    )
    SessionsEnded = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "arena_sessions_ended_total",
            Help: "Total sessions ended, by cause",
        },
        []string{"cause"},
    )
    MovesApplied = prometheus.NewCounter(
        prometheus.CounterOpts{
            Name: "arena_moves_applied_total",
            Help: "Total moves accepted by the pipeline",
        },
    )
    MovesRejected = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "arena_moves_rejected_total",
            Help: "Total moves rejected, by reason",
        },
        []string{"reason"},
    )
    PlayersOnline = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Name: "arena_players_online",
            Help: "Registered identities",
        },
    )
    LiveSessions = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Name: "arena_live_sessions",
            Help: "Sessions currently in play",
        },
    )
    DroppedFrames = prometheus.NewCounter(
        prometheus.CounterOpts{
            Name: "arena_dropped_frames_total",
            Help: "Outbound frames dropped because a connection queue was full",
        },
    )
)

func init() {
    prometheus.MustRegister(SessionsStarted, SessionsEnded, MovesApplied, MovesRejected, PlayersOnline, LiveSessions, DroppedFrames)
}
