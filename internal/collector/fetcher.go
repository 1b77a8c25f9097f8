package collector

import (
	"context"

	"IndexForecaster/internal/model"
)

// Fetcher retrieves daily price history for a symbol over a lookback window
// such as "5y". Bars come back in chronological order.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol, lookback string) ([]model.OHLCV, error)
	Name() string
}
