package calculator

import (
	"errors"

	"IndexForecaster/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateMA200 returns the 200-session simple moving average of closes.
func CalculateMA200(obs []model.Observation) (float64, error) {
	return CalculateSMA(extractCloses(obs), 200)
}

func extractCloses(obs []model.Observation) []float64 {
	closes := make([]float64, len(obs))
	for i, o := range obs {
		closes[i] = o.Close
	}
	return closes
}
