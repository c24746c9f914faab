package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrActivityNotFound is returned when an activity doesn't exist
var ErrActivityNotFound = errors.New("activity not found")

// UpsertActivity inserts or updates an activity summary
func (db *DB) UpsertActivity(a *Activity) error {
	_, err := db.Exec(`
		INSERT INTO activities (
			id, athlete_id, name, type, sport_type, start_date, start_date_local,
			timezone, manual, start_lat, start_lng, distance, moving_time,
			elapsed_time, total_elevation_gain, average_speed, max_speed,
			average_heartrate, max_heartrate, has_heartrate, samples_synced, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			name = excluded.name,
			type = excluded.type,
			sport_type = excluded.sport_type,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			timezone = excluded.timezone,
			manual = excluded.manual,
			start_lat = excluded.start_lat,
			start_lng = excluded.start_lng,
			distance = excluded.distance,
			moving_time = excluded.moving_time,
			elapsed_time = excluded.elapsed_time,
			total_elevation_gain = excluded.total_elevation_gain,
			average_speed = excluded.average_speed,
			max_speed = excluded.max_speed,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			has_heartrate = excluded.has_heartrate,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.AthleteID, a.Name, a.Type, a.SportType,
		a.StartDate.Format(time.RFC3339), a.StartDateLocal.Format(time.RFC3339), a.Timezone,
		boolToInt(a.Manual), a.StartLat, a.StartLng,
		a.Distance, a.MovingTime, a.ElapsedTime, a.TotalElevationGain,
		a.AverageSpeed, a.MaxSpeed, a.AverageHeartrate, a.MaxHeartrate,
		boolToInt(a.HasHeartrate), boolToInt(a.SamplesSynced),
	)
	return err
}

const activityColumns = `id, athlete_id, name, type, sport_type, start_date, start_date_local,
		timezone, manual, start_lat, start_lng, distance, moving_time,
		elapsed_time, total_elevation_gain, average_speed, max_speed,
		average_heartrate, max_heartrate, has_heartrate, session_trimp,
		sample_count, samples_synced`

// GetActivity retrieves an activity by ID
func (db *DB) GetActivity(id int64) (*Activity, error) {
	row := db.QueryRow(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE id = ?
	`, id)

	return scanActivity(row)
}

// ListActivities returns activities ordered by start date descending
func (db *DB) ListActivities(limit, offset int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		ORDER BY start_date DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// GetActivitiesNeedingSamples returns activities whose flat table rows have
// not been built yet, newest first to match the listing order
func (db *DB) GetActivitiesNeedingSamples() ([]Activity, error) {
	rows, err := db.Query(`
		SELECT ` + activityColumns + `
		FROM activities
		WHERE samples_synced = 0
		ORDER BY start_date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListSampledActivities returns activities with built samples, ordered by ID
// ascending so exports are stable run to run
func (db *DB) ListSampledActivities() ([]Activity, error) {
	rows, err := db.Query(`
		SELECT ` + activityColumns + `
		FROM activities
		WHERE samples_synced = 1
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// MarkSamplesSynced records that an activity's samples are built, along with
// the session totals derived from them
func (db *DB) MarkSamplesSynced(id int64, sessionTRIMP float64, sampleCount int) error {
	result, err := db.Exec(`
		UPDATE activities
		SET samples_synced = 1, session_trimp = ?, sample_count = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, sessionTRIMP, sampleCount, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// CountActivities returns the total number of activities
func (db *DB) CountActivities() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM activities").Scan(&count)
	return count, err
}

// scanActivity scans a single activity from a row
func scanActivity(row *sql.Row) (*Activity, error) {
	var a Activity
	var startDate, startDateLocal string
	var manual, hasHR, samplesSynced int

	err := row.Scan(
		&a.ID, &a.AthleteID, &a.Name, &a.Type, &a.SportType, &startDate, &startDateLocal,
		&a.Timezone, &manual, &a.StartLat, &a.StartLng, &a.Distance, &a.MovingTime,
		&a.ElapsedTime, &a.TotalElevationGain, &a.AverageSpeed, &a.MaxSpeed,
		&a.AverageHeartrate, &a.MaxHeartrate, &hasHR, &a.SessionTRIMP,
		&a.SampleCount, &samplesSynced,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}

	var parseErr error
	a.StartDate, parseErr = time.Parse(time.RFC3339, startDate)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, parseErr)
	}
	a.StartDateLocal, parseErr = time.Parse(time.RFC3339, startDateLocal)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing start_date_local %q: %w", startDateLocal, parseErr)
	}
	a.Manual = manual == 1
	a.HasHeartrate = hasHR == 1
	a.SamplesSynced = samplesSynced == 1

	return &a, nil
}

// scanActivities scans multiple activities from rows
func scanActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity

	for rows.Next() {
		var a Activity
		var startDate, startDateLocal string
		var manual, hasHR, samplesSynced int

		err := rows.Scan(
			&a.ID, &a.AthleteID, &a.Name, &a.Type, &a.SportType, &startDate, &startDateLocal,
			&a.Timezone, &manual, &a.StartLat, &a.StartLng, &a.Distance, &a.MovingTime,
			&a.ElapsedTime, &a.TotalElevationGain, &a.AverageSpeed, &a.MaxSpeed,
			&a.AverageHeartrate, &a.MaxHeartrate, &hasHR, &a.SessionTRIMP,
			&a.SampleCount, &samplesSynced,
		)
		if err != nil {
			return nil, err
		}

		var parseErr error
		a.StartDate, parseErr = time.Parse(time.RFC3339, startDate)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing start_date %q: %w", startDate, parseErr)
		}
		a.StartDateLocal, parseErr = time.Parse(time.RFC3339, startDateLocal)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing start_date_local %q: %w", startDateLocal, parseErr)
		}
		a.Manual = manual == 1
		a.HasHeartrate = hasHR == 1
		a.SamplesSynced = samplesSynced == 1

		activities = append(activities, a)
	}

	return activities, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
