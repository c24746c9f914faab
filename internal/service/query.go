package service

import (
	"time"

	"github.com/Luke-Ashton/trainload/internal/store"
	"github.com/Luke-Ashton/trainload/internal/trimp"
)

// QueryService provides read-only queries for the TUI
type QueryService struct {
	store *store.DB
}

// NewQueryService creates a new query service
func NewQueryService(db *store.DB) *QueryService {
	return &QueryService{store: db}
}

// DashboardData contains all data needed for the dashboard
type DashboardData struct {
	// Current training state
	CurrentFitness  float64 // CTL
	CurrentFatigue  float64 // ATL
	CurrentForm     float64 // TSB
	FormDescription string

	// This week (Monday start)
	WeekRunCount int
	WeekDistance float64 // meters
	WeekTime     int     // seconds
	WeekTRIMP    float64

	// Table totals
	TotalActivities int
	TotalSamples    int

	// Recent activities
	RecentActivities []store.Activity

	// For charts
	CTLHistory   []float64 // daily CTL, oldest first
	WeeklyTRIMP  []float64 // last ChartWeeks weeks of summed TRIMP
	WeeklyLabels []string  // week labels (e.g. "Jan 06")
}

// GetDashboardData fetches all data needed for the dashboard
func (q *QueryService) GetDashboardData() (*DashboardData, error) {
	data := &DashboardData{}

	activities, err := q.store.ListActivities(HistoricalActivitiesLimit, 0)
	if err != nil {
		return nil, err
	}

	loads := dailyLoads(activities)
	if len(loads) > 0 {
		fitness := trimp.GetCurrentFitness(loads)
		data.CurrentFitness = fitness.CTL
		data.CurrentFatigue = fitness.ATL
		data.CurrentForm = fitness.TSB
		data.FormDescription = trimp.FormDescription(fitness.TSB)

		trend := trimp.CalculateFitnessTrend(loads)
		for _, m := range trend {
			data.CTLHistory = append(data.CTLHistory, m.CTL)
		}
	}

	now := time.Now()
	data.WeekRunCount, data.WeekDistance, data.WeekTime, data.WeekTRIMP = weekStats(activities, now)
	data.WeeklyTRIMP, data.WeeklyLabels = weeklyTRIMP(activities, now)

	if len(activities) > RecentActivitiesLimit {
		data.RecentActivities = activities[:RecentActivitiesLimit]
	} else {
		data.RecentActivities = activities
	}

	if data.TotalActivities, err = q.store.CountActivities(); err != nil {
		return nil, err
	}
	if data.TotalSamples, err = q.store.CountSamples(); err != nil {
		return nil, err
	}

	return data, nil
}

// GetActivitiesList returns paginated activities, newest first
func (q *QueryService) GetActivitiesList(limit, offset int) ([]store.Activity, error) {
	return q.store.ListActivities(limit, offset)
}

// GetTotalActivityCount returns the total number of stored activities
func (q *QueryService) GetTotalActivityCount() (int, error) {
	return q.store.CountActivities()
}

// dailyLoads converts sampled activities into daily load entries.
// Activities still waiting on samples carry no load yet and are skipped.
func dailyLoads(activities []store.Activity) []trimp.DailyLoad {
	var loads []trimp.DailyLoad
	for _, a := range activities {
		if a.SessionTRIMP == nil {
			continue
		}
		loads = append(loads, trimp.DailyLoad{Date: a.StartDateLocal, TRIMP: *a.SessionTRIMP})
	}
	return loads
}

// weekStats sums up the current week, Monday start, using local dates so
// an evening run counts toward the day the athlete ran it.
func weekStats(activities []store.Activity, now time.Time) (runCount int, distance float64, totalTime int, weekTRIMP float64) {
	weekStart := getMonday(now)
	for _, a := range activities {
		if a.StartDateLocal.Before(weekStart) {
			continue
		}
		runCount++
		distance += a.Distance
		totalTime += a.MovingTime
		if a.SessionTRIMP != nil {
			weekTRIMP += *a.SessionTRIMP
		}
	}
	return
}

// weeklyTRIMP buckets session TRIMP into the last ChartWeeks weeks
func weeklyTRIMP(activities []store.Activity, now time.Time) (totals []float64, labels []string) {
	numWeeks := ChartWeeks
	currentWeekStart := getMonday(now)

	totals = make([]float64, numWeeks)
	labels = make([]string, numWeeks)
	for i := 0; i < numWeeks; i++ {
		weekStart := currentWeekStart.AddDate(0, 0, -7*(numWeeks-1-i))
		labels[i] = weekStart.Format("Jan 02")
	}

	for _, a := range activities {
		if a.SessionTRIMP == nil {
			continue
		}
		idx := findWeekIndex(a.StartDateLocal, currentWeekStart, numWeeks)
		if idx < 0 {
			continue
		}
		totals[idx] += *a.SessionTRIMP
	}
	return
}

// findWeekIndex returns the index of the week bucket containing date
func findWeekIndex(date time.Time, currentWeekStart time.Time, numWeeks int) int {
	for i := 0; i < numWeeks; i++ {
		weekStart := currentWeekStart.AddDate(0, 0, -7*(numWeeks-1-i))
		weekEnd := weekStart.AddDate(0, 0, 7)
		if !date.Before(weekStart) && date.Before(weekEnd) {
			return i
		}
	}
	return -1
}

// getMonday returns the Monday of the week containing t, at midnight
func getMonday(t time.Time) time.Time {
	daysFromMonday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	monday := t.AddDate(0, 0, -daysFromMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
}
