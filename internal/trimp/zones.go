package trimp

import "fmt"

// Zones holds the athlete heart-rate constants every TRIMP term depends on.
// There are no defaults: both values come from configuration and are
// validated before any samples are built.
type Zones struct {
	RestingHR float64
	MaxHR     float64
}

// Validate rejects zone settings that would make heart-rate reserve
// undefined or negative
func (z Zones) Validate() error {
	if z.RestingHR <= 0 {
		return fmt.Errorf("resting HR must be positive, got %.0f", z.RestingHR)
	}
	if z.MaxHR <= z.RestingHR {
		return fmt.Errorf("max HR %.0f must exceed resting HR %.0f", z.MaxHR, z.RestingHR)
	}
	return nil
}

// Reserve returns the heart-rate reserve (max minus resting)
func (z Zones) Reserve() float64 {
	return z.MaxHR - z.RestingHR
}

// HRR returns the heart-rate-reserve fraction for an instantaneous reading.
// Not clamped: a reading above the configured max legitimately pushes the
// fraction past 1.
func (z Zones) HRR(heartrate float64) float64 {
	return (heartrate - z.RestingHR) / z.Reserve()
}
