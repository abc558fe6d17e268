// Package schedule plans randomized pre-request delays within a total time budget.
package schedule

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

var (
	// ErrInvalidBudget is returned when the budget cannot cover every mandatory minimum delay.
	ErrInvalidBudget = errors.New("budget cannot cover minimum delays")
	// ErrDeadlinePassed is returned when a deadline lies before the start time.
	ErrDeadlinePassed = errors.New("deadline must come after start time")
)

// Plan returns count delays, each at least minDelay, summing to no more than
// budget, in shuffled order. A nil rng uses a fresh unseeded source.
func Plan(rng *rand.Rand, minDelay, budget time.Duration, count int) ([]time.Duration, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be > 0, got %d", ErrInvalidBudget, count)
	}
	if minDelay < 0 || budget < 0 {
		return nil, fmt.Errorf("%w: negative min delay %v or budget %v", ErrInvalidBudget, minDelay, budget)
	}
	mandatory := minDelay * time.Duration(count)
	if mandatory/time.Duration(count) != minDelay || mandatory > budget {
		return nil, fmt.Errorf("%w: %d x %v exceeds %v", ErrInvalidBudget, count, minDelay, budget)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	delays := make([]time.Duration, count)
	for i := range delays {
		delays[i] = minDelay
	}

	// Each draw is capped at an equal share of what is left, so the running
	// total can never pass the budget.
	remaining := budget - mandatory
	for i := range delays {
		if remaining <= 0 {
			break
		}
		share := float64(remaining) / float64(count-i)
		extra := time.Duration(rng.Float64() * share)
		delays[i] += extra
		remaining -= extra
	}

	rng.Shuffle(len(delays), func(i, j int) {
		delays[i], delays[j] = delays[j], delays[i]
	})
	return delays, nil
}

// NewSeeded returns a deterministic random source for reproducible plans.
func NewSeeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// BudgetUntil returns the time left between start and deadline.
func BudgetUntil(start, deadline time.Time) (time.Duration, error) {
	if start.After(deadline) {
		return 0, fmt.Errorf("%w: start %s, deadline %s", ErrDeadlinePassed,
			start.Format(time.RFC3339), deadline.Format(time.RFC3339))
	}
	return deadline.Sub(start), nil
}

// Total sums a plan.
func Total(delays []time.Duration) time.Duration {
	var sum time.Duration
	for _, d := range delays {
		sum += d
	}
	return sum
}
