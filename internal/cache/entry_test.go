package cache

import (
	"sync"
	"testing"
	"time"
)

func TestEntryStaleBoundary(t *testing.T) {
	fetched := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	e := NewEntry("payload", fetched)

	for _, ttl := range []time.Duration{6 * time.Hour, 24 * time.Hour} {
		tests := []struct {
			name  string
			at    time.Time
			stale bool
		}{
			{"at fetch", fetched, false},
			{"ttl minus 1ms", fetched.Add(ttl - time.Millisecond), false},
			{"exactly ttl", fetched.Add(ttl), false},
			{"ttl plus 1ms", fetched.Add(ttl + time.Millisecond), true},
			{"far future", fetched.Add(10 * ttl), true},
		}
		for _, tt := range tests {
			t.Run(ttl.String()+"/"+tt.name, func(t *testing.T) {
				if got := e.Stale(tt.at, ttl); got != tt.stale {
					t.Errorf("Stale(%v, %v) = %v, want %v", tt.at, ttl, got, tt.stale)
				}
			})
		}
	}
}

func TestEntryFetchedAtAndAge(t *testing.T) {
	fetched := time.Date(2025, 2, 14, 12, 0, 0, 250_000_000, time.UTC)
	e := NewEntry(1, fetched)

	if !e.FetchedAt().Equal(fetched) {
		t.Errorf("FetchedAt = %v, want %v", e.FetchedAt(), fetched)
	}
	if got := e.Age(fetched.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("Age = %v, want 90s", got)
	}
}

func TestTableConcurrentAccess(t *testing.T) {
	table := NewTable[int, string]()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(k int) {
			defer wg.Done()
			table.Put(k, NewEntry("v", now))
		}(i)
		go func(k int) {
			defer wg.Done()
			table.Get(k)
		}(i)
	}
	wg.Wait()

	if table.Len() != 50 {
		t.Errorf("Len = %d, want 50", table.Len())
	}
	if e, ok := table.Get(7); !ok || e.Value != "v" {
		t.Errorf("Get(7) = %+v, %v", e, ok)
	}
	if _, ok := table.Get(999); ok {
		t.Error("Get(999) found an entry that was never stored")
	}
}

func TestManualClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)
	c.Advance(time.Hour)
	if got := c.Now(); !got.Equal(start.Add(time.Hour)) {
		t.Errorf("Now = %v", got)
	}
	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now after Set = %v", got)
	}
}
