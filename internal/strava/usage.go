package strava

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// Usage mirrors the quota counters Strava reports on every response.
// It is display-only: pacing is handled by the Budget's batch plan, so
// nothing here ever blocks a request.
type Usage struct {
	mu sync.Mutex

	shortUsage int
	shortLimit int
	dailyUsage int
	dailyLimit int
}

// UpdateFromHeaders records quota state from Strava response headers.
// Strava returns X-RateLimit-Limit: "200,2000" and X-RateLimit-Usage: "34,512"
func (u *Usage) UpdateFromHeaders(h http.Header) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if usage := h.Get("X-RateLimit-Usage"); usage != "" {
		parts := strings.Split(usage, ",")
		if len(parts) >= 2 {
			if short, err := strconv.Atoi(parts[0]); err == nil {
				u.shortUsage = short
			}
			if daily, err := strconv.Atoi(parts[1]); err == nil {
				u.dailyUsage = daily
			}
		}
	}

	if limit := h.Get("X-RateLimit-Limit"); limit != "" {
		parts := strings.Split(limit, ",")
		if len(parts) >= 2 {
			if short, err := strconv.Atoi(parts[0]); err == nil {
				u.shortLimit = short
			}
			if daily, err := strconv.Atoi(parts[1]); err == nil {
				u.dailyLimit = daily
			}
		}
	}
}

// Snapshot returns the last reported usage and limits
func (u *Usage) Snapshot() (shortUsage, shortLimit, dailyUsage, dailyLimit int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.shortUsage, u.shortLimit, u.dailyUsage, u.dailyLimit
}
