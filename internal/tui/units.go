package tui

import "fmt"

const metersPerKm = 1000.0

// formatDistance formats a distance in meters as kilometers
func formatDistance(meters float64) string {
	return fmt.Sprintf("%.1f km", meters/metersPerKm)
}

// formatPace formats pace from total seconds and meters as min/km
func formatPace(seconds int, meters float64) string {
	if meters <= 0 || seconds <= 0 {
		return "-"
	}

	paceSeconds := float64(seconds) / (meters / metersPerKm)
	mins := int(paceSeconds) / 60
	secs := int(paceSeconds) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// formatDuration formats seconds as "1h 23m" or "42m"
func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
