package forecast

import (
	"time"

	"IndexForecaster/internal/model"
)

// FutureDates returns periods dates strictly after last. Daily dates are
// consecutive calendar days. Weekly dates fall on Sundays, starting with
// the first Sunday after last.
func FutureDates(last time.Time, periods int, freq model.Frequency) []time.Time {
	if periods <= 0 {
		return nil
	}
	last = time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, 0, periods)

	switch freq {
	case model.Weekly:
		offset := (7 - int(last.Weekday())) % 7
		if offset == 0 {
			offset = 7
		}
		next := last.AddDate(0, 0, offset)
		for i := 0; i < periods; i++ {
			out = append(out, next.AddDate(0, 0, 7*i))
		}
	default:
		for i := 1; i <= periods; i++ {
			out = append(out, last.AddDate(0, 0, i))
		}
	}
	return out
}
