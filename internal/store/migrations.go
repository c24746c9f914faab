package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Activities that passed the sync filters (summary data from
		// /athlete/activities)
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY,
			athlete_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			sport_type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			start_date_local TEXT NOT NULL,
			timezone TEXT,
			manual INTEGER NOT NULL DEFAULT 0,
			start_lat REAL,
			start_lng REAL,
			distance REAL NOT NULL,
			moving_time INTEGER NOT NULL,
			elapsed_time INTEGER NOT NULL,
			total_elevation_gain REAL,
			average_speed REAL,
			max_speed REAL,
			average_heartrate REAL,
			max_heartrate REAL,
			has_heartrate INTEGER NOT NULL,
			session_trimp REAL,
			sample_count INTEGER NOT NULL DEFAULT 0,
			samples_synced INTEGER DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_synced ON activities(samples_synced)`,

		// Samples: the flat denormalized training table, one row per
		// stream tick with the activity context repeated on every row
		`CREATE TABLE IF NOT EXISTS samples (
			activity_id INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			time_offset INTEGER NOT NULL,
			delta_time INTEGER NOT NULL,
			latlng_lat REAL,
			latlng_lng REAL,
			altitude REAL,
			velocity_smooth REAL,
			heartrate INTEGER,
			cadence INTEGER,
			grade_smooth REAL,
			distance REAL,
			hrr REAL,
			trimp REAL,
			session_trimp REAL NOT NULL,
			activity_name TEXT NOT NULL,
			sport_type TEXT NOT NULL,
			start_date_local TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			weekday TEXT NOT NULL,
			iso_week INTEGER NOT NULL,
			activity_distance REAL NOT NULL,
			elevation_gain REAL NOT NULL,
			average_speed REAL NOT NULL,
			max_speed REAL NOT NULL,
			average_heartrate REAL,
			max_heartrate REAL NOT NULL,
			resting_hr REAL NOT NULL,
			max_hr REAL NOT NULL,
			PRIMARY KEY (activity_id, tick),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_samples_activity ON samples(activity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_week ON samples(year, iso_week)`,

		// Sync State (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
