package calculator

import (
	"errors"
	"math"

	"IndexForecaster/internal/model"
)

// Calculate52WeekRange scans the most recent 252 sessions and returns the highest and lowest close.
func Calculate52WeekRange(obs []model.Observation) (high, low float64, err error) {
	if len(obs) == 0 {
		return 0, 0, errors.New("no observations provided")
	}
	n := len(obs)
	start := n - 252
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if obs[i].Close > high {
			high = obs[i].Close
		}
		if obs[i].Close < low {
			low = obs[i].Close
		}
	}
	return high, low, nil
}

// Calculate52WeekPosition returns where the current price sits within the 52-week range (0.0~1.0).
func Calculate52WeekPosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
