package badminton

import "time"

// RoundToUnit converts d to whole units, rounding a remainder of half a
// unit or more up and anything less down.
func RoundToUnit(d, unit time.Duration) int64 {
	whole := int64(d / unit)
	rem := d % unit
	if rem*2 >= unit {
		whole++
	}
	return whole
}

func ToMinutes(d time.Duration) int64 { return RoundToUnit(d, time.Minute) }

func ToSeconds(d time.Duration) int64 { return RoundToUnit(d, time.Second) }
