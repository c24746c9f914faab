package trimp

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/Luke-Ashton/trainload/internal/store"
	"github.com/Luke-Ashton/trainload/internal/strava"
)

func floatPtr(f float64) *float64 { return &f }

func testZones() Zones {
	return Zones{RestingHR: 55, MaxHR: 190}
}

func testActivity() *store.Activity {
	// 2024-03-10 is a Sunday in ISO week 10
	start := time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC)
	return &store.Activity{
		ID:                 77,
		Name:               "Tempo Run",
		SportType:          "Run",
		StartDate:          start,
		StartDateLocal:     start,
		Distance:           8000,
		MovingTime:         2400,
		ElapsedTime:        2500,
		TotalElevationGain: 60,
		AverageSpeed:       3.3,
		MaxSpeed:           4.8,
		AverageHeartrate:   floatPtr(152),
		MaxHeartrate:       floatPtr(181),
		HasHeartrate:       true,
	}
}

func timeStream(vals ...int) *strava.StreamData[int] {
	return &strava.StreamData[int]{Data: vals, SeriesType: "time", OriginalSize: len(vals), Resolution: "high"}
}

func intStream(vals ...int) *strava.StreamData[int] {
	return &strava.StreamData[int]{Data: vals, SeriesType: "time", OriginalSize: len(vals), Resolution: "high"}
}

func floatStream(vals ...float64) *strava.StreamData[float64] {
	return &strava.StreamData[float64]{Data: vals, SeriesType: "time", OriginalSize: len(vals), Resolution: "high"}
}

func TestNormalizeEndToEnd(t *testing.T) {
	streams := &strava.Streams{
		Time:      timeStream(0, 1, 2),
		Heartrate: intStream(100, 150, 160),
	}

	samples, err := Normalize(testActivity(), streams, testZones())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}

	wantDelta := []int{0, 1, 1}
	wantHRR := []float64{45.0 / 135.0, 95.0 / 135.0, 105.0 / 135.0}
	wantTRIMP := []float64{0, 0.024783, 0.029636}

	for i, s := range samples {
		if s.Tick != i {
			t.Errorf("sample %d: Tick = %d", i, s.Tick)
		}
		if s.DeltaTime != wantDelta[i] {
			t.Errorf("sample %d: DeltaTime = %d, want %d", i, s.DeltaTime, wantDelta[i])
		}
		if s.HRR == nil {
			t.Fatalf("sample %d: HRR is nil", i)
		}
		if math.Abs(*s.HRR-wantHRR[i]) > 1e-6 {
			t.Errorf("sample %d: HRR = %v, want %v", i, *s.HRR, wantHRR[i])
		}
		if s.TRIMP == nil {
			t.Fatalf("sample %d: TRIMP is nil", i)
		}
		if math.Abs(*s.TRIMP-wantTRIMP[i]) > 1e-4 {
			t.Errorf("sample %d: TRIMP = %v, want ~%v", i, *s.TRIMP, wantTRIMP[i])
		}
	}

	// First tick has zero delta, so zero TRIMP even with a heart rate
	if *samples[0].TRIMP != 0 {
		t.Errorf("TRIMP[0] = %v, want 0", *samples[0].TRIMP)
	}

	wantSession := wantTRIMP[1] + wantTRIMP[2]
	for i, s := range samples {
		if math.Abs(s.SessionTRIMP-wantSession) > 2e-4 {
			t.Errorf("sample %d: SessionTRIMP = %v, want ~%v", i, s.SessionTRIMP, wantSession)
		}
	}
	if got := SessionTRIMP(samples); math.Abs(got-samples[0].SessionTRIMP) > 1e-12 {
		t.Errorf("SessionTRIMP() = %v, disagrees with stamped value %v", got, samples[0].SessionTRIMP)
	}

	// Activity context lands on every row
	last := samples[2]
	if last.ActivityID != 77 || last.ActivityName != "Tempo Run" || last.SportType != "Run" {
		t.Errorf("activity context missing: %+v", last)
	}
	if last.Year != 2024 || last.Month != 3 || last.Weekday != "Sunday" || last.ISOWeek != 10 {
		t.Errorf("calendar fields wrong: year=%d month=%d weekday=%s week=%d",
			last.Year, last.Month, last.Weekday, last.ISOWeek)
	}
	if last.RestingHR != 55 || last.MaxHR != 190 || last.MaxHeartrate != 181 {
		t.Errorf("heart-rate context wrong: %+v", last)
	}
	if last.ActivityDistance != 8000 || last.ElevationGain != 60 {
		t.Errorf("distance context wrong: %+v", last)
	}
}

func TestNormalizeDeltaTime(t *testing.T) {
	// Recording pauses produce repeated and jumping timestamps
	streams := &strava.Streams{
		Time: timeStream(0, 5, 5, 17),
	}

	samples, err := Normalize(testActivity(), streams, testZones())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	wantDelta := []int{0, 5, 0, 12}
	sum := 0
	for i, s := range samples {
		if s.DeltaTime != wantDelta[i] {
			t.Errorf("sample %d: DeltaTime = %d, want %d", i, s.DeltaTime, wantDelta[i])
		}
		sum += s.DeltaTime
	}

	// Deltas always telescope back to the final offset
	if sum != 17 {
		t.Errorf("delta sum = %d, want 17", sum)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	streams := &strava.Streams{
		Time:           timeStream(0, 2, 4, 7),
		Heartrate:      intStream(110, 140, 150, 155),
		VelocitySmooth: floatStream(2.8, 3.1, 3.3, 3.2),
	}

	first, err := Normalize(testActivity(), streams, testZones())
	if err != nil {
		t.Fatalf("first Normalize failed: %v", err)
	}
	second, err := Normalize(testActivity(), streams, testZones())
	if err != nil {
		t.Fatalf("second Normalize failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("normalizing the same streams twice produced different samples")
	}
}

func TestNormalizeRaggedChannels(t *testing.T) {
	streams := &strava.Streams{
		Time:      timeStream(0, 1, 2, 3),
		Heartrate: intStream(120, 130), // two short
	}

	_, err := Normalize(testActivity(), streams, testZones())

	var integrity *IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if integrity.ActivityID != 77 {
		t.Errorf("ActivityID = %d, want 77", integrity.ActivityID)
	}
}

func TestNormalizeTimeDecreasing(t *testing.T) {
	streams := &strava.Streams{
		Time: timeStream(0, 1, 5, 3),
	}

	_, err := Normalize(testActivity(), streams, testZones())

	var integrity *IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected IntegrityError for decreasing time, got %v", err)
	}
}

func TestNormalizeMissingTimeChannel(t *testing.T) {
	streams := &strava.Streams{
		Heartrate: intStream(120, 130, 140),
	}

	_, err := Normalize(testActivity(), streams, testZones())

	var integrity *IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected IntegrityError for missing time channel, got %v", err)
	}
}

func TestNormalizeAbsentChannels(t *testing.T) {
	// Heartrate present but empty counts as absent, same as nil
	streams := &strava.Streams{
		Time:      timeStream(0, 1, 2),
		Heartrate: &strava.StreamData[int]{Data: []int{}},
	}

	samples, err := Normalize(testActivity(), streams, testZones())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	for i, s := range samples {
		if s.Heartrate != nil || s.HRR != nil || s.TRIMP != nil {
			t.Errorf("sample %d: expected null heart-rate columns, got %+v", i, s)
		}
		if s.Lat != nil || s.Altitude != nil || s.VelocitySmooth != nil {
			t.Errorf("sample %d: expected null channel columns, got %+v", i, s)
		}
		if s.SessionTRIMP != 0 {
			t.Errorf("sample %d: SessionTRIMP = %v, want 0 with no heart rate", i, s.SessionTRIMP)
		}
	}
}

func TestNormalizeTRIMPNonNegative(t *testing.T) {
	// Any tick at or above resting HR must contribute a non-negative TRIMP
	heartrates := []int{55, 60, 100, 150, 190, 205}
	times := make([]int, len(heartrates))
	for i := range times {
		times[i] = i * 2
	}

	streams := &strava.Streams{
		Time:      timeStream(times...),
		Heartrate: intStream(heartrates...),
	}

	samples, err := Normalize(testActivity(), streams, testZones())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	for i, s := range samples {
		if s.TRIMP == nil {
			t.Fatalf("sample %d: TRIMP is nil", i)
		}
		if *s.TRIMP < 0 {
			t.Errorf("sample %d: TRIMP = %v for HR %d, want >= 0", i, *s.TRIMP, heartrates[i])
		}
	}
}

func TestNormalizeEmptyTimeChannel(t *testing.T) {
	streams := &strava.Streams{
		Time: timeStream(),
	}

	samples, err := Normalize(testActivity(), streams, testZones())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("expected no samples for empty time channel, got %d", len(samples))
	}
}

func TestNormalizeInvalidZones(t *testing.T) {
	streams := &strava.Streams{
		Time:      timeStream(0, 1),
		Heartrate: intStream(120, 130),
	}

	_, err := Normalize(testActivity(), streams, Zones{RestingHR: 100, MaxHR: 100})
	if err == nil {
		t.Fatal("expected error for degenerate zones")
	}
}

func TestNormalizeCalendarYearBoundary(t *testing.T) {
	// 2024-12-30 is a Monday that already belongs to ISO week 1 of 2025.
	// The calendar year stays 2024.
	a := testActivity()
	a.StartDateLocal = time.Date(2024, 12, 30, 9, 0, 0, 0, time.UTC)

	samples, err := Normalize(a, &strava.Streams{Time: timeStream(0, 1)}, testZones())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	s := samples[0]
	if s.Year != 2024 || s.Month != 12 || s.Weekday != "Monday" || s.ISOWeek != 1 {
		t.Errorf("year boundary: year=%d month=%d weekday=%s week=%d, want 2024/12/Monday/1",
			s.Year, s.Month, s.Weekday, s.ISOWeek)
	}
}
