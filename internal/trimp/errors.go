package trimp

import "fmt"

// IntegrityError means an activity's stream payload cannot be trusted:
// channels of unequal length, a time channel that runs backwards, or a
// missing time channel. The activity is skipped; it is never worth
// producing rows from corrupt input.
type IntegrityError struct {
	ActivityID int64
	Reason     string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("activity %d: corrupt streams: %s", e.ActivityID, e.Reason)
}
