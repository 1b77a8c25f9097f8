package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LookbackStart returns the first date covered by a Yahoo-style range
// ("90d", "6mo", "5y") ending at end.
func LookbackStart(end time.Time, lookback string) (time.Time, error) {
	lb := strings.ToLower(strings.TrimSpace(lookback))
	var unit string
	for _, u := range []string{"mo", "d", "y"} {
		if strings.HasSuffix(lb, u) {
			unit = u
			break
		}
	}
	if unit == "" {
		return time.Time{}, fmt.Errorf("invalid lookback %q", lookback)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(lb, unit))
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid lookback %q", lookback)
	}
	switch unit {
	case "d":
		return end.AddDate(0, 0, -n), nil
	case "mo":
		return end.AddDate(0, -n, 0), nil
	default:
		return end.AddDate(-n, 0, 0), nil
	}
}

// lookbackDays approximates the number of calendar days in a lookback.
func lookbackDays(end time.Time, lookback string) (int, error) {
	start, err := LookbackStart(end, lookback)
	if err != nil {
		return 0, err
	}
	return int(end.Sub(start).Hours() / 24), nil
}
