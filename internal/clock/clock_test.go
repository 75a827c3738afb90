package clock

import (
	"testing"
	"time"
)

func TestManual(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 10, 23, 30, 0, 0, time.UTC)
	c := NewManual(start)
	if !c.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, c.Now())
	}
	if got := Today(c); !got.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected today: %v", got)
	}

	c.Advance(time.Hour)
	if got := Today(c); !got.Equal(time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected date to roll over, got %v", got)
	}
}
