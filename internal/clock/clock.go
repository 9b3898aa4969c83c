package clock

import "time"

// DefaultGrace is the latency buffer subtracted from every measured turn.
const DefaultGrace = 300 * time.Millisecond

// Clock is one side's countdown. It is not safe for concurrent use; the owning
// session serialises access.
type Clock struct {
    remaining time.Duration
    running   bool
    lastStart time.Time
    increment time.Duration
    grace     time.Duration
    now       func() time.Time
}

type Option func(*Clock)

// WithNow replaces the time source (tests).
func WithNow(now func() time.Time) Option {
    return func(c *Clock) {
        if now != nil { c.now = now }
    }
}

// WithGrace overrides DefaultGrace. Negative values are treated as zero.
func WithGrace(d time.Duration) Option {
    return func(c *Clock) {
        if d < 0 { d = 0 }
        c.grace = d
    }
}

func New(remaining, increment time.Duration, opts ...Option) *Clock {
    c := &Clock{
        remaining: remaining,
        increment: increment,
        grace:     DefaultGrace,
        now:       time.Now,
    }
    for _, opt := range opts {
        opt(c)
    }
    return c
}

// Start begins charging time. Calling Start on a running clock does nothing.
func (c *Clock) Start() {
    if c.running { return }
    c.lastStart = c.now()
    c.running = true
}

// Stop charges the elapsed turn (minus grace) and credits the increment.
func (c *Clock) Stop() {
    if !c.running { return }
    c.remaining -= c.elapsed()
    c.remaining += c.increment
    c.running = false
}

// Peek reports the remaining time without mutating the clock. The value may be negative.
func (c *Clock) Peek() time.Duration {
    if !c.running { return c.remaining }
    return c.remaining - c.elapsed()
}

// Reset sets the remaining time and restarts the current turn measurement.
// The running flag is left as is.
func (c *Clock) Reset(remaining time.Duration) {
    c.remaining = remaining
    c.lastStart = c.now()
}

func (c *Clock) Expired() bool { return c.Peek() <= 0 }

func (c *Clock) Running() bool { return c.running }

func (c *Clock) Increment() time.Duration { return c.increment }

// elapsed never goes negative: grace absorbs transit time but never refunds it.
func (c *Clock) elapsed() time.Duration {
    d := c.now().Sub(c.lastStart) - c.grace
    if d < 0 { return 0 }
    return d
}
