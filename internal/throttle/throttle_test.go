package throttle

import (
	"sync"
	"testing"
	"time"
)

func TestFirstEmissionAllowed(t *testing.T) {
	g := NewGate(time.Second)

	if !g.Allow(time.Unix(10, 0)) {
		t.Error("first emission should always be allowed")
	}
}

func TestWindowSuppression(t *testing.T) {
	g := NewGate(time.Second)
	base := time.Unix(100, 0)

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"first", base, true},
		{"inside window", base.Add(500 * time.Millisecond), false},
		{"just under window", base.Add(time.Second - time.Nanosecond), false},
		{"at window boundary", base.Add(time.Second), true},
		{"inside next window", base.Add(1500 * time.Millisecond), false},
		{"after next window", base.Add(2 * time.Second), true},
	}

	for _, tc := range cases {
		if got := g.Allow(tc.at); got != tc.want {
			t.Errorf("%s: Allow(%v) = %v, want %v", tc.name, tc.at, got, tc.want)
		}
	}
}

func TestNonPositiveWindow(t *testing.T) {
	g := NewGate(0)
	at := time.Unix(5, 0)

	for i := 0; i < 3; i++ {
		if !g.Allow(at) {
			t.Fatal("zero window must allow every emission")
		}
	}
}

func TestConcurrentSingleWinner(t *testing.T) {
	g := NewGate(time.Hour)
	at := time.Unix(42, 0)

	const goroutines = 16
	var wg sync.WaitGroup
	results := make(chan bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- g.Allow(at)
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}
	if allowed != 1 {
		t.Errorf("exactly one concurrent caller should win the slot, got %d", allowed)
	}
}
