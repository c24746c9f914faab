package service

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Luke-Ashton/trainload/internal/config"
	"github.com/Luke-Ashton/trainload/internal/store"
	"github.com/Luke-Ashton/trainload/internal/strava"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Strava:  config.StravaConfig{ClientID: "12345", ClientSecret: "secret"},
		Athlete: config.AthleteConfig{RestingHR: 55, MaxHR: 190},
		Sync:    config.SyncConfig{Sport: "Run", WindowCap: 2, CooldownMinutes: 15},
	}
}

func syncActivity(id int64, name string, start time.Time) strava.Activity {
	return strava.Activity{
		ID:                 id,
		Athlete:            strava.Athlete{ID: 7},
		Name:               name,
		Type:               "Run",
		SportType:          "Run",
		StartDate:          start,
		StartDateLocal:     start,
		Timezone:           "(GMT+00:00) Europe/London",
		StartLatLng:        []float64{51.5, -0.12},
		Distance:           10000,
		MovingTime:         3000,
		ElapsedTime:        3100,
		TotalElevationGain: 85,
		AverageSpeed:       3.33,
		MaxSpeed:           4.8,
		AverageHeartrate:   149,
		MaxHeartrate:       178,
		HasHeartrate:       true,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encoding response: %v", err)
	}
}

// fakeStravaAPI serves a six-activity history where only three qualify,
// one stream fetch 404s, and one recording is corrupt.
func fakeStravaAPI(t *testing.T) *strava.Client {
	t.Helper()

	goodRun := syncActivity(101, "Long Run", time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC))
	manual := syncActivity(102, "Manual Entry", time.Date(2024, 5, 7, 7, 0, 0, 0, time.UTC))
	manual.Manual = true
	missing := syncActivity(103, "Missing Streams", time.Date(2024, 5, 8, 7, 0, 0, 0, time.UTC))
	treadmill := syncActivity(104, "Treadmill", time.Date(2024, 5, 9, 7, 0, 0, 0, time.UTC))
	treadmill.StartLatLng = nil
	corrupt := syncActivity(105, "Corrupt Recording", time.Date(2024, 5, 10, 7, 0, 0, 0, time.UTC))
	ride := syncActivity(106, "Coffee Ride", time.Date(2024, 5, 11, 7, 0, 0, 0, time.UTC))
	ride.SportType = "Ride"

	mux := http.NewServeMux()
	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			writeJSON(t, w, []strava.Activity{})
			return
		}
		writeJSON(t, w, []strava.Activity{goodRun, manual, missing, treadmill, corrupt, ride})
	})
	mux.HandleFunc("/activities/101/streams", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &strava.Streams{
			Time:      &strava.StreamData[int]{Data: []int{0, 1, 2}},
			Heartrate: &strava.StreamData[int]{Data: []int{120, 140, 150}},
			Distance:  &strava.StreamData[float64]{Data: []float64{0, 3.2, 6.5}},
		})
	})
	mux.HandleFunc("/activities/103/streams", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Record Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/activities/105/streams", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &strava.Streams{
			Time:      &strava.StreamData[int]{Data: []int{0, 1, 2, 3}},
			Heartrate: &strava.StreamData[int]{Data: []int{100, 100}},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return strava.NewClientWithBaseURL(server.Client(), server.URL)
}

func TestSyncAll(t *testing.T) {
	db := newTestDB(t)
	client := fakeStravaAPI(t)

	svc, err := NewSyncService(client, db, testConfig())
	if err != nil {
		t.Fatalf("NewSyncService failed: %v", err)
	}

	var sleeps []time.Duration
	svc.Budget().Sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	progress := make(chan SyncProgress, 64)
	phases := map[string]bool{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			phases[p.Phase] = true
		}
	}()

	result, err := svc.SyncAll(context.Background(), progress)
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	<-done

	if result.ActivitiesListed != 6 {
		t.Errorf("ActivitiesListed = %d, want 6", result.ActivitiesListed)
	}
	if result.ActivitiesStored != 3 {
		t.Errorf("ActivitiesStored = %d, want 3 (manual, treadmill, and ride filtered)", result.ActivitiesStored)
	}
	if result.SkippedIneligible != 3 {
		t.Errorf("SkippedIneligible = %d, want 3", result.SkippedIneligible)
	}
	if result.StreamsFetched != 2 {
		t.Errorf("StreamsFetched = %d, want 2 (the 404 fails)", result.StreamsFetched)
	}
	if result.ActivitiesSampled != 1 {
		t.Errorf("ActivitiesSampled = %d, want 1 (corrupt recording rejected)", result.ActivitiesSampled)
	}
	if result.SamplesComputed != 3 {
		t.Errorf("SamplesComputed = %d, want 3", result.SamplesComputed)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if result.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("RunID should be assigned")
	}

	// Failures keep attempt order: activities are fetched newest first,
	// so the corrupt recording (May 10) comes before the 404 (May 8)
	if len(result.Failures) != 2 {
		t.Fatalf("got %d failures, want 2: %+v", len(result.Failures), result.Failures)
	}
	if result.Failures[0].ActivityID != 105 || result.Failures[1].ActivityID != 103 {
		t.Errorf("failure order = [%d %d], want [105 103]",
			result.Failures[0].ActivityID, result.Failures[1].ActivityID)
	}
	if result.Failures[0].Name != "Corrupt Recording" {
		t.Errorf("failure Name = %q, want activity name carried through", result.Failures[0].Name)
	}

	// Window cap 2 with 3 pending means one cooldown between batches
	if len(sleeps) != 1 {
		t.Errorf("slept %d times, want 1", len(sleeps))
	} else if sleeps[0] != 15*time.Minute {
		t.Errorf("slept %v, want the configured cooldown", sleeps[0])
	}

	for _, phase := range []string{PhaseActivities, PhaseStreams, PhaseCooldown} {
		if !phases[phase] {
			t.Errorf("progress never reported phase %q", phase)
		}
	}

	// The good run is fully sampled and carries its session TRIMP
	stored, err := db.GetActivity(101)
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}
	if !stored.SamplesSynced || stored.SampleCount != 3 {
		t.Errorf("activity 101 synced=%v count=%d, want synced with 3 samples", stored.SamplesSynced, stored.SampleCount)
	}
	if stored.SessionTRIMP == nil {
		t.Fatal("SessionTRIMP not set on activity 101")
	}
	// zones 55/190: ticks at HR 140 and 150 contribute ~0.0205 and ~0.0248
	if math.Abs(*stored.SessionTRIMP-0.045277) > 2e-4 {
		t.Errorf("SessionTRIMP = %v, want ~0.045277", *stored.SessionTRIMP)
	}

	samples, err := db.GetSamples(101)
	if err != nil {
		t.Fatalf("GetSamples failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[0].RestingHR != 55 || samples[0].MaxHR != 190 {
		t.Errorf("sample zone context = %v/%v, want 55/190", samples[0].RestingHR, samples[0].MaxHR)
	}
	if samples[0].ActivityName != "Long Run" {
		t.Errorf("sample ActivityName = %q, want denormalized activity context", samples[0].ActivityName)
	}

	// Failed activities stay pending so the next run retries them
	pending, err := db.GetActivitiesNeedingSamples()
	if err != nil {
		t.Fatalf("GetActivitiesNeedingSamples failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("%d activities still pending, want 2", len(pending))
	}
	if pending[0].ID != 105 || pending[1].ID != 103 {
		t.Errorf("pending = [%d %d], want [105 103]", pending[0].ID, pending[1].ID)
	}

	// The run recorded its watermark and its id
	last, err := db.GetSyncTime("last_activity_sync")
	if err != nil || last.IsZero() {
		t.Errorf("last sync time not recorded (t=%v err=%v)", last, err)
	}
	lastRun, err := db.GetSyncState("last_run_id")
	if err != nil || lastRun != result.RunID.String() {
		t.Errorf("last run id = %q (err=%v), want %q", lastRun, err, result.RunID)
	}
}

func TestSyncAllAuthErrorIsFatal(t *testing.T) {
	db := newTestDB(t)

	activity := syncActivity(201, "Morning Run", time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC))

	mux := http.NewServeMux()
	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			writeJSON(t, w, []strava.Activity{})
			return
		}
		writeJSON(t, w, []strava.Activity{activity})
	})
	mux.HandleFunc("/activities/201/streams", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Authorization Error"}`, http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := strava.NewClientWithBaseURL(server.Client(), server.URL)
	svc, err := NewSyncService(client, db, testConfig())
	if err != nil {
		t.Fatalf("NewSyncService failed: %v", err)
	}

	result, err := svc.SyncAll(context.Background(), nil)
	if err == nil {
		t.Fatal("expected fatal error for auth failure")
	}
	if !strava.IsAuthError(err) {
		t.Errorf("error = %v, want recognizable auth error", err)
	}

	// The listing phase completed before the failure
	if result.ActivitiesStored != 1 {
		t.Errorf("ActivitiesStored = %d, want 1", result.ActivitiesStored)
	}
}

func TestSyncAllHonorsCutoff(t *testing.T) {
	db := newTestDB(t)

	early := syncActivity(301, "Early Run", time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC))
	manual := syncActivity(302, "Manual Entry", time.Date(2024, 5, 7, 7, 0, 0, 0, time.UTC))
	manual.Manual = true
	late := syncActivity(303, "Late Run", time.Date(2024, 5, 20, 7, 0, 0, 0, time.UTC))
	all := []strava.Activity{early, manual, late}

	var afterParams []string
	mux := http.NewServeMux()
	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			writeJSON(t, w, []strava.Activity{})
			return
		}
		afterParams = append(afterParams, r.URL.Query().Get("after"))

		beforeParam := r.URL.Query().Get("before")
		if beforeParam == "" {
			t.Error("expected a before param when a cutoff is configured")
			writeJSON(t, w, all)
			return
		}
		before, err := strconv.ParseInt(beforeParam, 10, 64)
		if err != nil {
			t.Errorf("before param %q is not an epoch timestamp", beforeParam)
		}

		var listed []strava.Activity
		for _, a := range all {
			if a.StartDate.Unix() < before {
				listed = append(listed, a)
			}
		}
		writeJSON(t, w, listed)
	})
	mux.HandleFunc("/activities/301/streams", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &strava.Streams{
			Time:      &strava.StreamData[int]{Data: []int{0, 1}},
			Heartrate: &strava.StreamData[int]{Data: []int{130, 140}},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := testConfig()
	cfg.Sync.CutoffDate = "2024-05-09"

	client := strava.NewClientWithBaseURL(server.Client(), server.URL)
	svc, err := NewSyncService(client, db, cfg)
	if err != nil {
		t.Fatalf("NewSyncService failed: %v", err)
	}
	svc.Budget().Sleep = func(ctx context.Context, d time.Duration) error { return nil }

	for run := 1; run <= 2; run++ {
		result, err := svc.SyncAll(context.Background(), nil)
		if err != nil {
			t.Fatalf("run %d: SyncAll failed: %v", run, err)
		}
		if result.ActivitiesListed != 2 {
			t.Errorf("run %d: ActivitiesListed = %d, want 2 (cutoff excludes the late run)", run, result.ActivitiesListed)
		}
		if result.SkippedIneligible != 1 {
			t.Errorf("run %d: SkippedIneligible = %d, want 1", run, result.SkippedIneligible)
		}
	}

	if _, err := db.GetActivity(303); err == nil {
		t.Error("activity past the cutoff should not be stored")
	}
	if _, err := db.GetActivity(301); err != nil {
		t.Errorf("activity before the cutoff should be stored: %v", err)
	}

	// A pinned window is relisted in full on every run
	if len(afterParams) != 2 {
		t.Fatalf("got %d listing calls, want 2", len(afterParams))
	}
	for i, after := range afterParams {
		if after != "" {
			t.Errorf("listing call %d sent after=%q, want the watermark skipped under a cutoff", i, after)
		}
	}
}

func TestNewSyncServiceRejectsBadZones(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	cfg.Athlete.MaxHR = 50 // below resting

	if _, err := NewSyncService(nil, db, cfg); err == nil {
		t.Error("expected error for inverted heart-rate zones")
	}
}
