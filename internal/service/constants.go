package service

const (
	// Unit conversions
	MetersPerKm = 1000.0

	// Time windows
	ChartWeeks = 12

	// Pagination limits
	RecentActivitiesLimit     = 10
	HistoricalActivitiesLimit = 400

	// Seconds per minute for pace calculations
	SecondsPerMinute = 60
)

// Sync state keys
const (
	lastActivitySyncKey = "last_activity_sync"
	lastRunIDKey        = "last_run_id"
)
