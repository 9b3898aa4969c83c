package archive

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    _ "github.com/lib/pq"
)

// PostgresSink upserts results into arena_games.
type PostgresSink struct {
    db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS arena_games (
    session_id    TEXT PRIMARY KEY,
    white_name    TEXT NOT NULL,
    black_name    TEXT NOT NULL,
    time_control  TEXT NOT NULL,
    result        TEXT NOT NULL,
    cause         TEXT NOT NULL,
    method        TEXT NOT NULL DEFAULT '',
    moves_uci     JSONB NOT NULL,
    moves_san     JSONB NOT NULL,
    pgn           TEXT NOT NULL,
    fen           TEXT NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL
)`

func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
    if strings.TrimSpace(databaseURL) == "" {
        return nil, fmt.Errorf("DATABASE_URL is required")
    }
    db, err := sql.Open("postgres", databaseURL)
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(8)
    db.SetMaxIdleConns(4)
    db.SetConnMaxLifetime(30 * time.Minute)
    pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := db.PingContext(pctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    if _, err := db.ExecContext(pctx, schema); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ensure schema: %w", err)
    }
    return &PostgresSink{db: db}, nil
}

func (p *PostgresSink) Close() error {
    if p == nil || p.db == nil { return nil }
    return p.db.Close()
}

func (p *PostgresSink) Save(ctx context.Context, r Record) error {
    if p == nil || p.db == nil { return nil }
    movesUCIRaw, _ := json.Marshal(nonNil(r.MovesUCI))
    movesSANRaw, _ := json.Marshal(nonNil(r.MovesSAN))
    duration := r.EndedAt.Sub(r.StartedAt).Milliseconds()
    if duration < 0 { duration = 0 }

    q := `INSERT INTO arena_games (
        session_id, white_name, black_name, time_control,
        result, cause, method, moves_uci, moves_san, pgn, fen,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
      ) ON CONFLICT (session_id) DO UPDATE SET
        white_name=EXCLUDED.white_name,
        black_name=EXCLUDED.black_name,
        time_control=EXCLUDED.time_control,
        result=EXCLUDED.result,
        cause=EXCLUDED.cause,
        method=EXCLUDED.method,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        fen=EXCLUDED.fen,
        started_at=EXCLUDED.started_at,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

    _, err := p.db.ExecContext(ctx, q,
        r.SessionID, r.WhiteName, r.BlackName, r.TimeControl,
        r.Result, r.Cause, r.Method, string(movesUCIRaw), string(movesSANRaw), r.PGN, r.FEN,
        r.StartedAt, r.EndedAt, duration,
    )
    return err
}

func nonNil(s []string) []string {
    if s == nil { return []string{} }
    return s
}
