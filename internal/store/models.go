package store

import "time"

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// Activity represents a Strava activity summary that passed the sync filters
type Activity struct {
	ID                 int64     `db:"id"`
	AthleteID          int64     `db:"athlete_id"`
	Name               string    `db:"name"`
	Type               string    `db:"type"`
	SportType          string    `db:"sport_type"`
	StartDate          time.Time `db:"start_date"`
	StartDateLocal     time.Time `db:"start_date_local"`
	Timezone           string    `db:"timezone"`
	Manual             bool      `db:"manual"`
	StartLat           *float64  `db:"start_lat"`
	StartLng           *float64  `db:"start_lng"`
	Distance           float64   `db:"distance"`    // meters
	MovingTime         int       `db:"moving_time"` // seconds
	ElapsedTime        int       `db:"elapsed_time"`
	TotalElevationGain float64   `db:"total_elevation_gain"`
	AverageSpeed       float64   `db:"average_speed"`     // m/s
	MaxSpeed           float64   `db:"max_speed"`         // m/s
	AverageHeartrate   *float64  `db:"average_heartrate"` // nullable
	MaxHeartrate       *float64  `db:"max_heartrate"`     // nullable
	HasHeartrate       bool      `db:"has_heartrate"`
	SessionTRIMP       *float64  `db:"session_trimp"` // set once samples are built
	SampleCount        int       `db:"sample_count"`
	SamplesSynced      bool      `db:"samples_synced"`
}

// Sample is one tick of the flat training table: per-second stream values
// joined with the derived load terms and enough activity context to group
// rows by day, week, or month without another lookup.
type Sample struct {
	ActivityID     int64    `db:"activity_id"`
	Tick           int      `db:"tick"`        // index within the activity, 0-based
	TimeOffset     int      `db:"time_offset"` // seconds since activity start
	DeltaTime      int      `db:"delta_time"`  // seconds since the previous tick, 0 at the first
	Lat            *float64 `db:"latlng_lat"`
	Lng            *float64 `db:"latlng_lng"`
	Altitude       *float64 `db:"altitude"`        // meters
	VelocitySmooth *float64 `db:"velocity_smooth"` // m/s
	Heartrate      *int     `db:"heartrate"`       // bpm
	Cadence        *int     `db:"cadence"`         // spm
	GradeSmooth    *float64 `db:"grade_smooth"`    // percent
	Distance       *float64 `db:"distance"`        // cumulative meters
	HRR            *float64 `db:"hrr"`             // heart-rate-reserve fraction
	TRIMP          *float64 `db:"trimp"`           // per-tick training impulse
	SessionTRIMP   float64  `db:"session_trimp"`   // whole-activity sum, repeated per row

	// Activity context
	ActivityName     string    `db:"activity_name"`
	SportType        string    `db:"sport_type"`
	StartDateLocal   time.Time `db:"start_date_local"`
	Year             int       `db:"year"`
	Month            int       `db:"month"`
	Weekday          string    `db:"weekday"`
	ISOWeek          int       `db:"iso_week"`
	ActivityDistance float64   `db:"activity_distance"` // meters
	ElevationGain    float64   `db:"elevation_gain"`    // meters
	AverageSpeed     float64   `db:"average_speed"`     // m/s
	MaxSpeed         float64   `db:"max_speed"`         // m/s
	AverageHeartrate *float64  `db:"average_heartrate"` // bpm
	MaxHeartrate     float64   `db:"max_heartrate"`     // bpm, recorded activity max
	RestingHR        float64   `db:"resting_hr"`        // athlete constant used for HRR
	MaxHR            float64   `db:"max_hr"`            // athlete constant used for HRR
}
