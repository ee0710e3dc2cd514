package clock

import (
	"testing"
	"time"
)

func TestFixedClock(t *testing.T) {
	at := time.Date(2024, 1, 31, 10, 30, 0, 0, time.UTC)
	c := FixedClock{T: at}
	if !c.Now().Equal(at) || !c.Now().Equal(c.Now()) {
		t.Fatalf("FixedClock drifted: %v", c.Now())
	}
}

func TestSystemClockAdvances(t *testing.T) {
	var c Clock = SystemClock{}
	a := c.Now()
	b := c.Now()
	if b.Before(a) {
		t.Fatalf("system clock went backwards: %v then %v", a, b)
	}
}

func TestFunc(t *testing.T) {
	calls := 0
	c := Func(func() time.Time {
		calls++
		return time.Unix(0, 0)
	})
	c.Now()
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
