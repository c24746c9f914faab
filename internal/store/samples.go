package store

import (
	"fmt"
	"time"
)

// SaveSamples saves the flat table rows for an activity, replacing any
// existing rows so a re-run never leaves a stale mix of old and new ticks
func (db *DB) SaveSamples(activityID int64, samples []Sample) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM samples WHERE activity_id = ?", activityID); err != nil {
		return fmt.Errorf("deleting existing samples: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO samples (
			activity_id, tick, time_offset, delta_time, latlng_lat, latlng_lng,
			altitude, velocity_smooth, heartrate, cadence, grade_smooth, distance,
			hrr, trimp, session_trimp, activity_name, sport_type, start_date_local,
			year, month, weekday, iso_week, activity_distance, elevation_gain,
			average_speed, max_speed, average_heartrate, max_heartrate,
			resting_hr, max_hr
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		_, err := stmt.Exec(
			s.ActivityID, s.Tick, s.TimeOffset, s.DeltaTime, s.Lat, s.Lng,
			s.Altitude, s.VelocitySmooth, s.Heartrate, s.Cadence, s.GradeSmooth, s.Distance,
			s.HRR, s.TRIMP, s.SessionTRIMP, s.ActivityName, s.SportType,
			s.StartDateLocal.Format(time.RFC3339),
			s.Year, s.Month, s.Weekday, s.ISOWeek, s.ActivityDistance, s.ElevationGain,
			s.AverageSpeed, s.MaxSpeed, s.AverageHeartrate, s.MaxHeartrate,
			s.RestingHR, s.MaxHR,
		)
		if err != nil {
			return fmt.Errorf("inserting sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetSamples retrieves all samples for an activity in tick order
func (db *DB) GetSamples(activityID int64) ([]Sample, error) {
	rows, err := db.Query(`
		SELECT activity_id, tick, time_offset, delta_time, latlng_lat, latlng_lng,
			altitude, velocity_smooth, heartrate, cadence, grade_smooth, distance,
			hrr, trimp, session_trimp, activity_name, sport_type, start_date_local,
			year, month, weekday, iso_week, activity_distance, elevation_gain,
			average_speed, max_speed, average_heartrate, max_heartrate,
			resting_hr, max_hr
		FROM samples
		WHERE activity_id = ?
		ORDER BY tick
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var startDateLocal string
		err := rows.Scan(
			&s.ActivityID, &s.Tick, &s.TimeOffset, &s.DeltaTime, &s.Lat, &s.Lng,
			&s.Altitude, &s.VelocitySmooth, &s.Heartrate, &s.Cadence, &s.GradeSmooth, &s.Distance,
			&s.HRR, &s.TRIMP, &s.SessionTRIMP, &s.ActivityName, &s.SportType, &startDateLocal,
			&s.Year, &s.Month, &s.Weekday, &s.ISOWeek, &s.ActivityDistance, &s.ElevationGain,
			&s.AverageSpeed, &s.MaxSpeed, &s.AverageHeartrate, &s.MaxHeartrate,
			&s.RestingHR, &s.MaxHR,
		)
		if err != nil {
			return nil, err
		}

		s.StartDateLocal, err = time.Parse(time.RFC3339, startDateLocal)
		if err != nil {
			return nil, fmt.Errorf("parsing start_date_local %q: %w", startDateLocal, err)
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// CountSamples returns the total number of sample rows across all activities
func (db *DB) CountSamples() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM samples").Scan(&count)
	return count, err
}

// DeleteSamples removes all sample rows for an activity
func (db *DB) DeleteSamples(activityID int64) error {
	_, err := db.Exec("DELETE FROM samples WHERE activity_id = ?", activityID)
	return err
}
