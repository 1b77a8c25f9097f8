package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"IndexForecaster/internal/model"
)

// FinanceGoFetcher implements Fetcher on top of the piquette/finance-go chart client.
type FinanceGoFetcher struct {
	Now func() time.Time
	// Backend overrides the package-wide Yahoo backend when set.
	Backend finance.Backend
}

// NewFinanceGoFetcher creates a fetcher anchored at the current time.
func NewFinanceGoFetcher() *FinanceGoFetcher {
	return &FinanceGoFetcher{Now: time.Now}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

func (f *FinanceGoFetcher) client() chart.Client {
	if f.Backend != nil {
		return chart.Client{B: f.Backend}
	}
	return chart.Client{B: finance.GetBackend(finance.YFinBackend)}
}

// FetchHistory returns daily bars for symbol. The chart client decodes a
// null quote as 0, so a bar with every price at 0 is skipped and any other
// zero price becomes NaN.
func (f *FinanceGoFetcher) FetchHistory(ctx context.Context, symbol, lookback string) ([]model.OHLCV, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	end := now()
	start, err := LookbackStart(end, lookback)
	if err != nil {
		return nil, err
	}

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	params.Context = &ctx
	iter := f.client().Get(params)

	var bars []model.OHLCV
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := iter.Bar()
		open, _ := b.Open.Float64()
		high, _ := b.High.Float64()
		low, _ := b.Low.Float64()
		closePrice, _ := b.Close.Float64()
		if open == 0 && high == 0 && low == 0 && closePrice == 0 {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(int64(b.Timestamp), 0).UTC(),
			Open:   missingAsNaN(open),
			High:   missingAsNaN(high),
			Low:    missingAsNaN(low),
			Close:  missingAsNaN(closePrice),
			Volume: float64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go chart %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("finance-go: no data returned for %s", symbol)
	}
	return bars, nil
}

// missingAsNaN maps the decoder's 0 for null to NaN. Index levels are never 0.
func missingAsNaN(v float64) float64 {
	if v == 0 {
		return math.NaN()
	}
	return v
}
