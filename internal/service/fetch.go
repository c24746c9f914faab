package service

import (
	"context"
	"fmt"

	"github.com/Luke-Ashton/trainload/internal/strava"
)

// StreamSource fetches the raw stream set for one activity. *strava.Client
// satisfies it; tests substitute a stub.
type StreamSource interface {
	GetActivityStreams(ctx context.Context, activityID int64) (*strava.Streams, error)
}

// Outcome is the result of one stream fetch. Either Streams or Err is set.
// Index is the activity's position in the input list, so callers can line
// outcomes back up with what they asked for.
type Outcome struct {
	Index      int
	ActivityID int64
	Streams    *strava.Streams
	Err        error
}

// FetchAll fetches streams for every activity in ids, pacing requests
// against the budget's batch plan with a full cooldown between batches.
// Requests within a batch are issued sequentially.
//
// A failed fetch does not stop the run: the error is recorded in that
// activity's Outcome and the loop moves on. Two failures are fatal and
// return the outcomes collected so far alongside the error: a cancelled
// context, and an authentication failure, which would only repeat for
// every remaining activity.
func FetchAll(ctx context.Context, src StreamSource, ids []int64, budget *strava.Budget, onProgress func(completed, total int)) ([]Outcome, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sizes := budget.Plan(len(ids))
	outcomes := make([]Outcome, 0, len(ids))

	idx := 0
	for batch, size := range sizes {
		if batch > 0 {
			if err := budget.Wait(ctx); err != nil {
				return outcomes, err
			}
		}

		for j := 0; j < size; j++ {
			select {
			case <-ctx.Done():
				return outcomes, ctx.Err()
			default:
			}

			id := ids[idx]

			streams, err := src.GetActivityStreams(ctx, id)
			budget.Spend()

			if err != nil {
				if ctx.Err() != nil {
					return outcomes, ctx.Err()
				}
				if strava.IsAuthError(err) {
					return outcomes, fmt.Errorf("fetching streams for %d: %w", id, err)
				}
				outcomes = append(outcomes, Outcome{Index: idx, ActivityID: id, Err: err})
			} else {
				outcomes = append(outcomes, Outcome{Index: idx, ActivityID: id, Streams: streams})
			}

			idx++
			if onProgress != nil {
				onProgress(idx, len(ids))
			}
		}
	}

	return outcomes, nil
}
