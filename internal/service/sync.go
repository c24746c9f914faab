package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Luke-Ashton/trainload/internal/config"
	"github.com/Luke-Ashton/trainload/internal/store"
	"github.com/Luke-Ashton/trainload/internal/strava"
	"github.com/Luke-Ashton/trainload/internal/trimp"
)

// Sync phases reported through SyncProgress
const (
	PhaseActivities = "activities"
	PhaseStreams    = "streams"
	PhaseCooldown   = "cooldown"
)

// SyncService orchestrates syncing data from Strava into the local table
type SyncService struct {
	client *strava.Client
	store  *store.DB
	zones  trimp.Zones
	sport  string
	cutoff time.Time
	budget *strava.Budget
}

// NewSyncService creates a sync service from a validated config. The
// athlete zones are checked again here so a service built from an
// unvalidated config fails at construction, not mid-sync.
func NewSyncService(client *strava.Client, db *store.DB, cfg *config.Config) (*SyncService, error) {
	zones := trimp.Zones{RestingHR: cfg.Athlete.RestingHR, MaxHR: cfg.Athlete.MaxHR}
	if err := zones.Validate(); err != nil {
		return nil, err
	}
	cutoff, err := cfg.CutoffTime()
	if err != nil {
		return nil, err
	}

	return &SyncService{
		client: client,
		store:  db,
		zones:  zones,
		sport:  cfg.Sync.Sport,
		cutoff: cutoff,
		budget: &strava.Budget{Cap: cfg.Sync.WindowCap, Cooldown: cfg.Cooldown()},
	}, nil
}

// Budget exposes the request budget, mainly so tests and callers can
// swap the cooldown sleeper.
func (s *SyncService) Budget() *strava.Budget {
	return s.budget
}

// APIUsage returns the most recent rate-limit readout from the client
func (s *SyncService) APIUsage() (shortUsage, shortLimit, dailyUsage, dailyLimit int) {
	return s.client.Usage().Snapshot()
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string // "activities", "streams", "cooldown"
	Total           int
	Completed       int
	CurrentActivity string
	Cooldown        time.Duration // set during the cooldown phase
}

// FetchFailure records one activity whose streams could not be turned
// into samples. Failures keep the order the activities were attempted in.
type FetchFailure struct {
	Index      int
	ActivityID int64
	Name       string
	Reason     string
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	RunID             uuid.UUID
	ActivitiesListed  int
	ActivitiesStored  int
	SkippedIneligible int
	StreamsFetched    int
	ActivitiesSampled int
	SamplesComputed   int
	Failures          []FetchFailure
	Errors            []error
}

// SyncAll performs a full sync: activity listing, then stream fetch and
// sample building for every stored activity that still needs it.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{RunID: uuid.New()}

	if err := s.syncActivities(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing activities: %w", err)
	}

	if err := s.syncSamples(ctx, progress, result); err != nil {
		return result, fmt.Errorf("building samples: %w", err)
	}

	if err := s.store.SetSyncState(lastRunIDKey, result.RunID.String()); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("recording run id: %w", err))
	}

	return result, nil
}

// syncActivities lists activities from Strava and stores the eligible
// ones. The configured cutoff is an exclusive upper bound: with one set,
// re-running the sync always sees the same listing no matter how many
// activities have accrued since.
func (s *SyncService) syncActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	after := s.listAfter()

	if progress != nil {
		progress <- SyncProgress{Phase: PhaseActivities}
	}

	activities, err := s.client.GetAllActivities(ctx, after, s.cutoff, func(fetched int) {
		if progress != nil {
			progress <- SyncProgress{Phase: PhaseActivities, Total: fetched, Completed: fetched}
		}
	})
	if err != nil {
		return err
	}

	result.ActivitiesListed = len(activities)

	for _, a := range activities {
		if !Eligible(a, s.sport) {
			result.SkippedIneligible++
			continue
		}
		if err := s.store.UpsertActivity(convertActivity(a)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing activity %d: %w", a.ID, err))
			continue
		}
		result.ActivitiesStored++
	}

	if err := s.store.SetSyncTime(lastActivitySyncKey, time.Now()); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("recording sync time: %w", err))
	}

	return nil
}

// listAfter picks the "after" watermark for the listing call: the last
// successful sync, or unbounded for a first run. With a cutoff configured
// the watermark is skipped and the whole pinned window is relisted, so
// moving the cutoff later still picks up the activities it admits.
// Upserts keep the relisting idempotent.
func (s *SyncService) listAfter() time.Time {
	if !s.cutoff.IsZero() {
		return time.Time{}
	}
	last, err := s.store.GetSyncTime(lastActivitySyncKey)
	if err != nil {
		return time.Time{}
	}
	return last
}

// syncSamples fetches streams for stored activities that have no samples
// yet and turns each stream set into table rows.
func (s *SyncService) syncSamples(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	pending, err := s.store.GetActivitiesNeedingSamples()
	if err != nil {
		return fmt.Errorf("getting activities needing samples: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	ids := make([]int64, len(pending))
	for i, a := range pending {
		ids[i] = a.ID
	}

	// Surface cooldown waits through the progress channel while keeping
	// whatever sleeper was installed (tests replace it).
	baseSleep := s.budget.Sleep
	s.budget.Sleep = func(ctx context.Context, d time.Duration) error {
		if progress != nil {
			progress <- SyncProgress{Phase: PhaseCooldown, Total: len(ids), Cooldown: d}
		}
		if baseSleep != nil {
			return baseSleep(ctx, d)
		}
		return strava.SleepContext(ctx, d)
	}
	defer func() { s.budget.Sleep = baseSleep }()

	if progress != nil {
		progress <- SyncProgress{Phase: PhaseStreams, Total: len(ids)}
	}

	outcomes, fetchErr := FetchAll(ctx, s.client, ids, s.budget, func(completed, total int) {
		if progress != nil {
			name := ""
			if completed < len(pending) {
				name = pending[completed].Name
			}
			progress <- SyncProgress{Phase: PhaseStreams, Total: total, Completed: completed, CurrentActivity: name}
		}
	})

	// Turn whatever was fetched into samples before deciding the run's
	// fate: streams already paid for should not be thrown away.
	for _, o := range outcomes {
		activity := pending[o.Index]

		if o.Err != nil {
			result.Failures = append(result.Failures, FetchFailure{
				Index:      o.Index,
				ActivityID: o.ActivityID,
				Name:       activity.Name,
				Reason:     o.Err.Error(),
			})
			continue
		}
		result.StreamsFetched++

		samples, err := trimp.Normalize(&activity, o.Streams, s.zones)
		if err != nil {
			var integrity *trimp.IntegrityError
			if errors.As(err, &integrity) {
				result.Failures = append(result.Failures, FetchFailure{
					Index:      o.Index,
					ActivityID: o.ActivityID,
					Name:       activity.Name,
					Reason:     err.Error(),
				})
			} else {
				result.Errors = append(result.Errors, fmt.Errorf("normalizing %d: %w", o.ActivityID, err))
			}
			continue
		}

		if err := s.store.SaveSamples(o.ActivityID, samples); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("saving samples for %d: %w", o.ActivityID, err))
			continue
		}
		if err := s.store.MarkSamplesSynced(o.ActivityID, trimp.SessionTRIMP(samples), len(samples)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("marking synced for %d: %w", o.ActivityID, err))
			continue
		}

		result.ActivitiesSampled++
		result.SamplesComputed += len(samples)
	}

	return fetchErr
}

// convertActivity converts a Strava API activity to a store activity
func convertActivity(a strava.Activity) *store.Activity {
	activity := &store.Activity{
		ID:                 a.ID,
		AthleteID:          a.Athlete.ID,
		Name:               a.Name,
		Type:               a.Type,
		SportType:          a.SportType,
		StartDate:          a.StartDate,
		StartDateLocal:     a.StartDateLocal,
		Timezone:           a.Timezone,
		Manual:             a.Manual,
		Distance:           a.Distance,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		AverageSpeed:       a.AverageSpeed,
		MaxSpeed:           a.MaxSpeed,
		HasHeartrate:       a.HasHeartrate,
		SamplesSynced:      false,
	}

	if a.HasStart() {
		lat, lng := a.StartLatLng[0], a.StartLatLng[1]
		activity.StartLat = &lat
		activity.StartLng = &lng
	}
	if a.AverageHeartrate > 0 {
		hr := a.AverageHeartrate
		activity.AverageHeartrate = &hr
	}
	if a.MaxHeartrate > 0 {
		hr := a.MaxHeartrate
		activity.MaxHeartrate = &hr
	}

	return activity
}
