package service

import (
	"github.com/Luke-Ashton/trainload/internal/strava"
)

// Eligible reports whether an activity qualifies for the training table.
// Manual entries and treadmill sessions carry no usable streams, and the
// load model needs a heart-rate ceiling to make sense of the recording.
func Eligible(a strava.Activity, sport string) bool {
	if a.Manual {
		return false
	}
	if !a.HasStart() {
		return false
	}
	if a.MaxHeartrate <= 0 {
		return false
	}
	return a.SportType == sport
}

// FilterActivities returns the activities eligible for syncing, in their
// original order.
func FilterActivities(activities []strava.Activity, sport string) []strava.Activity {
	var eligible []strava.Activity
	for _, a := range activities {
		if Eligible(a, sport) {
			eligible = append(eligible, a)
		}
	}
	return eligible
}
