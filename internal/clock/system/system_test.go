// Package system exercises the wall clock adapter.
package system

import (
	"testing"
	"time"
)

// TestClockNowLocation ensures the clock reports times in its location.
func TestClockNowLocation(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	clk := New(tokyo)

	before := time.Now().Add(-time.Second)
	got := clk.Now()
	after := time.Now().Add(time.Second)

	if got.Location() != tokyo {
		t.Fatalf("expected JST location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

// TestClockDefaultsToLocal checks a nil location falls back to time.Local.
func TestClockDefaultsToLocal(t *testing.T) {
	t.Parallel()

	if got := New(nil).Now().Location(); got != time.Local {
		t.Fatalf("expected time.Local, got %v", got)
	}
}

// TestClockNowMonotonic checks successive timestamps are non-decreasing.
func TestClockNowMonotonic(t *testing.T) {
	t.Parallel()

	clk := New(time.UTC)
	first := clk.Now()
	second := clk.Now()
	if second.Before(first) {
		t.Fatalf("expected second call %v to be >= first %v", second, first)
	}
}
