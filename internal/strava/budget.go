package strava

import (
	"context"
	"time"
)

// Strava grants roughly 200 requests per 15-minute window. The fetch plan
// keeps a margin under that so listing pages and token refreshes share the
// same window without tripping the quota.

const (
	DefaultWindowCap = 180
	DefaultCooldown  = 15 * time.Minute
)

// SleepFunc blocks for d or until ctx is cancelled
type SleepFunc func(ctx context.Context, d time.Duration) error

// Budget tracks stream requests spent against a fixed quota window.
// It is not safe for concurrent use: stream requests are issued
// sequentially by a single fetch loop.
type Budget struct {
	Cap      int
	Cooldown time.Duration

	// Sleep is swapped out in tests; nil means block on a real timer.
	Sleep SleepFunc

	spent int
}

// NewBudget creates a budget with the default window cap and cooldown
func NewBudget() *Budget {
	return &Budget{Cap: DefaultWindowCap, Cooldown: DefaultCooldown}
}

// BatchSizes splits n stream requests into batches sized for the window
// limit. The plan always uses one more batch than the minimum (n/limit + 1),
// which spreads requests evenly across windows instead of saturating each
// one. Every batch fits within limit and the sizes sum to n.
func BatchSizes(n, limit int) []int {
	if n <= 0 || limit <= 0 {
		return nil
	}
	batches := n/limit + 1
	size := (n + batches - 1) / batches

	sizes := make([]int, 0, batches)
	for rem := n; rem > 0; rem -= size {
		if rem < size {
			sizes = append(sizes, rem)
		} else {
			sizes = append(sizes, size)
		}
	}
	return sizes
}

// Plan returns the batch sizes for n stream requests under this budget
func (b *Budget) Plan(n int) []int {
	return BatchSizes(n, b.Cap)
}

// Spend records one issued stream request
func (b *Budget) Spend() {
	b.spent++
}

// Spent returns the number of requests issued since the last cooldown
func (b *Budget) Spent() int {
	return b.spent
}

// Wait blocks for a full cooldown so the quota window rolls over, then
// resets the spent counter. The fetch loop calls this before every batch
// after the first.
func (b *Budget) Wait(ctx context.Context) error {
	sleep := b.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	if err := sleep(ctx, b.Cooldown); err != nil {
		return err
	}
	b.spent = 0
	return nil
}

// SleepContext blocks for d or until ctx is cancelled. It is the
// default Budget sleeper; callers that wrap Sleep for reporting can
// delegate the actual waiting here.
func SleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
