package archive

import (
    "context"
    "encoding/json"
    "fmt"
    "net/url"
    "sort"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

const resultTTL = 24 * time.Hour

// RedisSink keeps recent results under arena:result:<id> with a per-player index.
type RedisSink struct {
    rdb *redis.Client
}

func NewRedisSink(rdb *redis.Client) *RedisSink { return &RedisSink{rdb: rdb} }

// DialRedis parses a redis:// URL and pings the server.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
    if strings.TrimSpace(redisURL) == "" { return nil, fmt.Errorf("REDIS_URL is empty") }
    opts, err := parseRedisURL(redisURL)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opts)
    if err := rdb.Ping(ctx).Err(); err != nil {
        _ = rdb.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return rdb, nil
}

func (s *RedisSink) Save(ctx context.Context, r Record) error {
    if s == nil || s.rdb == nil { return nil }
    raw, err := json.Marshal(r)
    if err != nil { return err }
    if err := s.rdb.Set(ctx, resultKey(r.SessionID), raw, resultTTL).Err(); err != nil { return err }
    for _, name := range []string{r.WhiteName, r.BlackName} {
        if strings.TrimSpace(name) == "" { continue }
        key := playerKey(name)
        if err := s.rdb.SAdd(ctx, key, r.SessionID).Err(); err != nil { return err }
        _ = s.rdb.Expire(ctx, key, resultTTL).Err()
    }
    return nil
}

// Get returns the archived record or nil when unknown.
func (s *RedisSink) Get(ctx context.Context, id string) (*Record, error) {
    if s == nil || s.rdb == nil { return nil, nil }
    raw, err := s.rdb.Get(ctx, resultKey(id)).Bytes()
    if err == redis.Nil { return nil, nil }
    if err != nil { return nil, err }
    var r Record
    if err := json.Unmarshal(raw, &r); err != nil { return nil, err }
    return &r, nil
}

// ByPlayer lists archived records for a display name, newest first.
func (s *RedisSink) ByPlayer(ctx context.Context, name string) ([]*Record, error) {
    if s == nil || s.rdb == nil { return nil, nil }
    ids, err := s.rdb.SMembers(ctx, playerKey(name)).Result()
    if err != nil { return nil, err }
    var out []*Record
    for _, id := range ids {
        r, gerr := s.Get(ctx, id)
        if gerr != nil || r == nil { continue }
        out = append(out, r)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
    return out, nil
}

func resultKey(id string) string { return "arena:result:" + strings.TrimSpace(id) }
func playerKey(name string) string { return "arena:index:player:" + strings.TrimSpace(name) }

func parseRedisURL(raw string) (*redis.Options, error) {
    u, err := url.Parse(raw)
    if err != nil { return nil, err }
    if u.Scheme != "redis" && u.Scheme != "rediss" { return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme) }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" {
        if n, err := strconv.Atoi(p); err == nil { db = n }
    }
    pass, _ := u.User.Password()
    return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
