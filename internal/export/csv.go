package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Luke-Ashton/trainload/internal/store"
	"github.com/Luke-Ashton/trainload/internal/trimp"
)

// Header lists the export columns in table order. One row per tick;
// empty cells mark channels the recording never carried.
var Header = []string{
	"activity_id", "tick", "time_offset", "delta_time",
	"latlng_lat", "latlng_lng", "altitude", "velocity_smooth",
	"heartrate", "cadence", "grade_smooth", "distance",
	"hrr", "trimp", "session_trimp",
	"activity_name", "sport_type", "start_date_local",
	"year", "month", "weekday", "iso_week",
	"activity_distance", "elevation_gain", "average_speed", "max_speed",
	"average_heartrate", "max_heartrate", "resting_hr", "max_hr",
}

// WriteCSV streams every sampled activity's rows to w, ordered by
// activity ID then tick so repeated exports of the same table are
// byte-identical. Returns the number of data rows written.
func WriteCSV(w io.Writer, db *store.DB) (int, error) {
	activities, err := db.ListSampledActivities()
	if err != nil {
		return 0, fmt.Errorf("listing sampled activities: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, err
	}

	rows := 0
	for _, a := range activities {
		samples, err := db.GetSamples(a.ID)
		if err != nil {
			return rows, fmt.Errorf("loading samples for %d: %w", a.ID, err)
		}
		for _, s := range samples {
			if err := cw.Write(sampleRow(s)); err != nil {
				return rows, err
			}
			rows++
		}
	}

	cw.Flush()
	return rows, cw.Error()
}

// ExportFile writes the full table to trainload_<runID>.csv in dir and
// returns the path and row count.
func ExportFile(db *store.DB, dir, runID string) (string, int, error) {
	path := filepath.Join(dir, fmt.Sprintf("trainload_%s.csv", runID))

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating export file: %w", err)
	}

	rows, err := WriteCSV(f, db)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", rows, err
	}

	return path, rows, nil
}

// WeeklyHeader lists the columns of the aggregated weekly export
var WeeklyHeader = []string{
	"iso_year", "iso_week", "week_start", "runs",
	"trimp", "distance", "elevation_gain", "moving_time",
}

// WriteWeeklyCSV writes one row per ISO week of training
func WriteWeeklyCSV(w io.Writer, weeks []trimp.WeeklyLoad) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(WeeklyHeader); err != nil {
		return err
	}

	for _, wl := range weeks {
		row := []string{
			strconv.Itoa(wl.Year),
			strconv.Itoa(wl.Week),
			wl.WeekStart.Format("2006-01-02"),
			strconv.Itoa(wl.Runs),
			formatFloat(wl.TRIMP),
			formatFloat(wl.Distance),
			formatFloat(wl.Elevation),
			strconv.Itoa(wl.MovingTime),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportWeeklyFile aggregates all sampled activities by ISO week and
// writes trainload_weekly_<runID>.csv in dir.
func ExportWeeklyFile(db *store.DB, dir, runID string) (string, int, error) {
	activities, err := db.ListSampledActivities()
	if err != nil {
		return "", 0, fmt.Errorf("listing sampled activities: %w", err)
	}
	weeks := trimp.AggregateWeekly(activities)

	path := filepath.Join(dir, fmt.Sprintf("trainload_weekly_%s.csv", runID))
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating export file: %w", err)
	}

	werr := WriteWeeklyCSV(f, weeks)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", 0, werr
	}

	return path, len(weeks), nil
}

func sampleRow(s store.Sample) []string {
	return []string{
		strconv.FormatInt(s.ActivityID, 10),
		strconv.Itoa(s.Tick),
		strconv.Itoa(s.TimeOffset),
		strconv.Itoa(s.DeltaTime),
		formatFloatPtr(s.Lat),
		formatFloatPtr(s.Lng),
		formatFloatPtr(s.Altitude),
		formatFloatPtr(s.VelocitySmooth),
		formatIntPtr(s.Heartrate),
		formatIntPtr(s.Cadence),
		formatFloatPtr(s.GradeSmooth),
		formatFloatPtr(s.Distance),
		formatFloatPtr(s.HRR),
		formatFloatPtr(s.TRIMP),
		formatFloat(s.SessionTRIMP),
		s.ActivityName,
		s.SportType,
		s.StartDateLocal.Format(time.RFC3339),
		strconv.Itoa(s.Year),
		strconv.Itoa(s.Month),
		s.Weekday,
		strconv.Itoa(s.ISOWeek),
		formatFloat(s.ActivityDistance),
		formatFloat(s.ElevationGain),
		formatFloat(s.AverageSpeed),
		formatFloat(s.MaxSpeed),
		formatFloatPtr(s.AverageHeartrate),
		formatFloat(s.MaxHeartrate),
		formatFloat(s.RestingHR),
		formatFloat(s.MaxHR),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
