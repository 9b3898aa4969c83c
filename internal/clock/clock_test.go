package clock

import (
    "testing"
    "time"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) Now() time.Time          { return f.t }
func (f *fakeNow) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestClock(remaining, inc time.Duration) (*Clock, *fakeNow) {
    fn := &fakeNow{t: time.Unix(1_700_000_000, 0)}
    return New(remaining, inc, WithNow(fn.Now), WithGrace(300*time.Millisecond)), fn
}

func TestPeekAfterStartEqualsRemaining(t *testing.T) {
    c, fn := newTestClock(5*time.Minute, 0)
    c.Start()
    if got := c.Peek(); got != 5*time.Minute { t.Fatalf("peek right after start: %v", got) }
    // within grace nothing is charged
    fn.Advance(250 * time.Millisecond)
    if got := c.Peek(); got != 5*time.Minute { t.Fatalf("peek within grace: %v", got) }
}

func TestPeekMonotonicWhileRunning(t *testing.T) {
    c, fn := newTestClock(time.Minute, 0)
    c.Start()
    prev := c.Peek()
    for i := 0; i < 20; i++ {
        fn.Advance(170 * time.Millisecond)
        cur := c.Peek()
        if cur > prev { t.Fatalf("peek increased: %v -> %v", prev, cur) }
        prev = cur
    }
    if c.Running() == false { t.Fatalf("peek must not stop the clock") }
}

func TestStopChargesElapsedMinusGraceAndAddsIncrement(t *testing.T) {
    c, fn := newTestClock(time.Minute, 2*time.Second)
    c.Start()
    fn.Advance(10*time.Second + 300*time.Millisecond)
    c.Stop()
    want := time.Minute - 10*time.Second + 2*time.Second
    if got := c.Peek(); got != want { t.Fatalf("remaining=%v want %v", got, want) }
}

func TestStopWithinGraceNeverRefunds(t *testing.T) {
    c, fn := newTestClock(time.Minute, 0)
    c.Start()
    fn.Advance(100 * time.Millisecond)
    c.Stop()
    if got := c.Peek(); got != time.Minute { t.Fatalf("remaining=%v want unchanged", got) }
}

func TestIncrementOncePerStop(t *testing.T) {
    c, fn := newTestClock(time.Minute, time.Second)
    c.Stop() // not running: no increment
    if got := c.Peek(); got != time.Minute { t.Fatalf("stop on idle clock changed time: %v", got) }
    c.Start()
    c.Stop()
    c.Start()
    c.Start() // idempotent
    fn.Advance(200 * time.Millisecond)
    c.Stop()
    c.Stop() // second stop is a no-op
    if got := c.Peek(); got != time.Minute+2*time.Second { t.Fatalf("remaining=%v want %v", got, time.Minute+2*time.Second) }
}

func TestResetKeepsRunningAndRestampsStart(t *testing.T) {
    c, fn := newTestClock(time.Minute, 0)
    c.Start()
    fn.Advance(30 * time.Second)
    c.Reset(5 * time.Minute)
    if !c.Running() { t.Fatalf("reset must not change running flag") }
    if got := c.Peek(); got != 5*time.Minute { t.Fatalf("peek after reset: %v", got) }

    idle, _ := newTestClock(time.Minute, 0)
    idle.Reset(2 * time.Minute)
    if idle.Running() { t.Fatalf("reset started an idle clock") }
}

func TestExpiredAndNegative(t *testing.T) {
    c, fn := newTestClock(time.Second, 0)
    c.Start()
    fn.Advance(time.Second + 300*time.Millisecond)
    if !c.Expired() { t.Fatalf("expected expired at exactly zero") }
    fn.Advance(50 * time.Millisecond)
    if got := c.Peek(); got != -50*time.Millisecond { t.Fatalf("peek=%v want -50ms", got) }
}
