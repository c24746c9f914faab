package trimp

import (
	"fmt"
	"math"
	"time"

	"github.com/Luke-Ashton/trainload/internal/store"
	"github.com/Luke-Ashton/trainload/internal/strava"
)

// Normalize transposes an activity's column-oriented streams into flat
// per-tick sample rows, derives delta time, HRR and per-tick TRIMP, and
// stamps every row with the activity context so downstream group-bys never
// need another lookup.
//
// The input is validated, not repaired: channels that disagree with the
// time channel's length or a time channel that runs backwards abort the
// whole activity with an IntegrityError. A zero-length channel is treated
// as absent and its column comes out null.
func Normalize(a *store.Activity, s *strava.Streams, zones Zones) ([]store.Sample, error) {
	if err := zones.Validate(); err != nil {
		return nil, fmt.Errorf("invalid heart-rate zones: %w", err)
	}

	if s == nil || s.Time == nil {
		return nil, &IntegrityError{ActivityID: a.ID, Reason: "missing time channel"}
	}

	n := len(s.Time.Data)

	channels := []struct {
		name string
		len  int
	}{
		{"latlng", seriesLen(s.LatLng)},
		{"altitude", seriesLen(s.Altitude)},
		{"velocity_smooth", seriesLen(s.VelocitySmooth)},
		{"heartrate", seriesLen(s.Heartrate)},
		{"cadence", seriesLen(s.Cadence)},
		{"grade_smooth", seriesLen(s.GradeSmooth)},
		{"distance", seriesLen(s.Distance)},
	}
	for _, c := range channels {
		if c.len > 0 && c.len != n {
			return nil, &IntegrityError{
				ActivityID: a.ID,
				Reason:     fmt.Sprintf("%s channel has %d points, time has %d", c.name, c.len, n),
			}
		}
	}

	if n == 0 {
		return nil, nil
	}

	for i := 1; i < n; i++ {
		if s.Time.Data[i] < s.Time.Data[i-1] {
			return nil, &IntegrityError{
				ActivityID: a.ID,
				Reason: fmt.Sprintf("time decreases at tick %d (%d -> %d)",
					i, s.Time.Data[i-1], s.Time.Data[i]),
			}
		}
	}

	hasLatLng := seriesLen(s.LatLng) > 0
	hasAltitude := seriesLen(s.Altitude) > 0
	hasVelocity := seriesLen(s.VelocitySmooth) > 0
	hasHeartrate := seriesLen(s.Heartrate) > 0
	hasCadence := seriesLen(s.Cadence) > 0
	hasGrade := seriesLen(s.GradeSmooth) > 0
	hasDistance := seriesLen(s.Distance) > 0

	year, month, weekday, isoWeek := calendar(a.StartDateLocal)

	var actMaxHR float64
	if a.MaxHeartrate != nil {
		actMaxHR = *a.MaxHeartrate
	}

	var sessionTRIMP float64
	samples := make([]store.Sample, n)

	for i := 0; i < n; i++ {
		smp := store.Sample{
			ActivityID: a.ID,
			Tick:       i,
			TimeOffset: s.Time.Data[i],

			ActivityName:     a.Name,
			SportType:        a.SportType,
			StartDateLocal:   a.StartDateLocal,
			Year:             year,
			Month:            month,
			Weekday:          weekday,
			ISOWeek:          isoWeek,
			ActivityDistance: a.Distance,
			ElevationGain:    a.TotalElevationGain,
			AverageSpeed:     a.AverageSpeed,
			MaxSpeed:         a.MaxSpeed,
			AverageHeartrate: a.AverageHeartrate,
			MaxHeartrate:     actMaxHR,
			RestingHR:        zones.RestingHR,
			MaxHR:            zones.MaxHR,
		}

		if i > 0 {
			smp.DeltaTime = s.Time.Data[i] - s.Time.Data[i-1]
		}

		if hasLatLng {
			lat := s.LatLng.Data[i][0]
			lng := s.LatLng.Data[i][1]
			smp.Lat = &lat
			smp.Lng = &lng
		}
		if hasAltitude {
			alt := s.Altitude.Data[i]
			smp.Altitude = &alt
		}
		if hasVelocity {
			vel := s.VelocitySmooth.Data[i]
			smp.VelocitySmooth = &vel
		}
		if hasCadence {
			cad := s.Cadence.Data[i]
			smp.Cadence = &cad
		}
		if hasGrade {
			grade := s.GradeSmooth.Data[i]
			smp.GradeSmooth = &grade
		}
		if hasDistance {
			dist := s.Distance.Data[i]
			smp.Distance = &dist
		}

		if hasHeartrate {
			hr := s.Heartrate.Data[i]
			smp.Heartrate = &hr

			// Per-tick Banister TRIMP: minutes at this intensity,
			// weighted exponentially by how close to max the effort sits.
			// TRIMP = (Δt/60) * HRR * (0.64e)^(1.92*HRR)
			hrr := zones.HRR(float64(hr))
			tick := float64(smp.DeltaTime) / 60.0 * hrr * math.Pow(0.64*math.E, 1.92*hrr)
			smp.HRR = &hrr
			smp.TRIMP = &tick

			sessionTRIMP += tick
		}

		samples[i] = smp
	}

	// The session total only exists once every tick is in; stamp it on
	// each row afterwards. Ticks with no heart rate contributed nothing.
	for i := range samples {
		samples[i].SessionTRIMP = sessionTRIMP
	}

	return samples, nil
}

// SessionTRIMP sums the per-tick TRIMP of normalized samples, skipping
// ticks with no heart rate
func SessionTRIMP(samples []store.Sample) float64 {
	var total float64
	for _, s := range samples {
		if s.TRIMP != nil {
			total += *s.TRIMP
		}
	}
	return total
}

func seriesLen[T any](d *strava.StreamData[T]) int {
	if d == nil {
		return 0
	}
	return len(d.Data)
}

// calendar decomposes a local start time into the group-by fields carried
// on every sample. The year is the calendar year, not the ISO week-year,
// so late-December runs stay in their own year even when the ISO week has
// rolled over.
func calendar(t time.Time) (year, month int, weekday string, isoWeek int) {
	_, week := t.ISOWeek()
	return t.Year(), int(t.Month()), t.Weekday().String(), week
}
