package strava

import (
	"context"
	"testing"
	"time"
)

func TestBatchSizes(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		limit int
		want  []int
	}{
		{
			name:  "zero requests",
			n:     0,
			limit: 180,
			want:  nil,
		},
		{
			name:  "single request",
			n:     1,
			limit: 180,
			want:  []int{1},
		},
		{
			name:  "just under the cap stays in one batch",
			n:     179,
			limit: 180,
			want:  []int{179},
		},
		{
			name:  "exactly the cap splits evenly",
			n:     180,
			limit: 180,
			want:  []int{90, 90},
		},
		{
			name:  "uneven remainder lands in the last batch",
			n:     10,
			limit: 3,
			want:  []int{3, 3, 3, 1},
		},
		{
			name:  "divisible load drops the empty trailing batch",
			n:     12,
			limit: 3,
			want:  []int{3, 3, 3, 3},
		},
		{
			name:  "typical backfill",
			n:     308,
			limit: 180,
			want:  []int{154, 154},
		},
		{
			name:  "large backfill spreads evenly",
			n:     600,
			limit: 180,
			want:  []int{150, 150, 150, 150},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BatchSizes(tt.n, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("BatchSizes(%d, %d) = %v, want %v", tt.n, tt.limit, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("batch %d: got %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Every plan must cover all n requests without any batch exceeding the limit.
func TestBatchSizesInvariants(t *testing.T) {
	for _, limit := range []int{1, 3, 7, 50, 180} {
		for n := 0; n <= 500; n++ {
			sizes := BatchSizes(n, limit)

			sum := 0
			for i, s := range sizes {
				if s <= 0 {
					t.Fatalf("n=%d limit=%d: batch %d has non-positive size %d", n, limit, i, s)
				}
				if s > limit {
					t.Fatalf("n=%d limit=%d: batch %d size %d exceeds limit", n, limit, i, s)
				}
				sum += s
			}
			if sum != n {
				t.Fatalf("n=%d limit=%d: sizes %v sum to %d", n, limit, sizes, sum)
			}
		}
	}
}

func TestBudgetWait(t *testing.T) {
	var slept []time.Duration
	b := &Budget{
		Cap:      5,
		Cooldown: 15 * time.Minute,
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	for i := 0; i < 5; i++ {
		b.Spend()
	}
	if b.Spent() != 5 {
		t.Fatalf("expected 5 spent, got %d", b.Spent())
	}

	if err := b.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if len(slept) != 1 || slept[0] != 15*time.Minute {
		t.Errorf("expected one full cooldown sleep, got %v", slept)
	}
	if b.Spent() != 0 {
		t.Errorf("expected spent counter reset after cooldown, got %d", b.Spent())
	}
}

func TestBudgetWaitCancelled(t *testing.T) {
	b := &Budget{
		Cap:      5,
		Cooldown: 15 * time.Minute,
		Sleep:    SleepContext,
	}
	b.Spend()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Wait(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if b.Spent() != 1 {
		t.Errorf("spent counter must not reset on aborted cooldown, got %d", b.Spent())
	}
}
