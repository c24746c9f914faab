package trimp

import (
	"sort"
	"time"

	"github.com/Luke-Ashton/trainload/internal/store"
)

// DailyLoad represents training load for a single day
type DailyLoad struct {
	Date  time.Time
	TRIMP float64
}

// WeeklyLoad aggregates activities into one row per ISO week
type WeeklyLoad struct {
	Year       int // ISO week-numbering year, not the calendar year
	Week       int
	WeekStart  time.Time
	TRIMP      float64
	Distance   float64
	Elevation  float64
	MovingTime int
	Runs       int
}

// AggregateWeekly buckets activities by the ISO week of their local start
// date. Activities still waiting on samples count toward distance and
// time but contribute no TRIMP. Results are ordered oldest week first.
func AggregateWeekly(activities []store.Activity) []WeeklyLoad {
	byWeek := make(map[[2]int]*WeeklyLoad)

	for _, a := range activities {
		year, week := a.StartDateLocal.ISOWeek()
		key := [2]int{year, week}

		wl, ok := byWeek[key]
		if !ok {
			wl = &WeeklyLoad{
				Year:      year,
				Week:      week,
				WeekStart: weekStart(a.StartDateLocal),
			}
			byWeek[key] = wl
		}

		wl.Runs++
		wl.Distance += a.Distance
		wl.Elevation += a.TotalElevationGain
		wl.MovingTime += a.MovingTime
		if a.SessionTRIMP != nil {
			wl.TRIMP += *a.SessionTRIMP
		}
	}

	weeks := make([]WeeklyLoad, 0, len(byWeek))
	for _, wl := range byWeek {
		weeks = append(weeks, *wl)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].Year != weeks[j].Year {
			return weeks[i].Year < weeks[j].Year
		}
		return weeks[i].Week < weeks[j].Week
	})

	return weeks
}

// weekStart returns the Monday of t's week at midnight
func weekStart(t time.Time) time.Time {
	daysBack := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -daysBack)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
}

// FitnessMetrics represents CTL/ATL/TSB for a day
type FitnessMetrics struct {
	Date time.Time
	CTL  float64 // Chronic Training Load (42-day EMA) - "Fitness"
	ATL  float64 // Acute Training Load (7-day EMA) - "Fatigue"
	TSB  float64 // Training Stress Balance (CTL - ATL) - "Form"
}

// CalculateFitnessTrend computes CTL/ATL/TSB from daily loads.
// Rest days between sessions count as zero-load days so the averages
// decay through gaps in training.
func CalculateFitnessTrend(dailyLoads []DailyLoad) []FitnessMetrics {
	if len(dailyLoads) == 0 {
		return nil
	}

	sort.Slice(dailyLoads, func(i, j int) bool {
		return dailyLoads[i].Date.Before(dailyLoads[j].Date)
	})

	// EMA decay constants
	ctlDecay := 2.0 / (42.0 + 1.0) // 42-day time constant
	atlDecay := 2.0 / (7.0 + 1.0)  // 7-day time constant

	// Sum multiple activities on the same day
	loadMap := make(map[string]float64)
	for _, dl := range dailyLoads {
		loadMap[dl.Date.Format("2006-01-02")] += dl.TRIMP
	}

	startDate := dailyLoads[0].Date.Truncate(24 * time.Hour)
	endDate := dailyLoads[len(dailyLoads)-1].Date.Truncate(24 * time.Hour)

	var metrics []FitnessMetrics
	var ctl, atl float64

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		load := loadMap[d.Format("2006-01-02")] // 0 on rest days

		ctl = ctl + ctlDecay*(load-ctl)
		atl = atl + atlDecay*(load-atl)

		metrics = append(metrics, FitnessMetrics{
			Date: d,
			CTL:  ctl,
			ATL:  atl,
			TSB:  ctl - atl,
		})
	}

	return metrics
}

// GetCurrentFitness returns the most recent CTL/ATL/TSB values
func GetCurrentFitness(dailyLoads []DailyLoad) FitnessMetrics {
	metrics := CalculateFitnessTrend(dailyLoads)
	if len(metrics) == 0 {
		return FitnessMetrics{}
	}
	return metrics[len(metrics)-1]
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
