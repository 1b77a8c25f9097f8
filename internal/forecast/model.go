package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Options configures a Model.
type Options struct {
	YearlyOrder      int     // Fourier order of the yearly component; 0 disables it
	WeeklyOrder      int     // Fourier order of the weekly component; 0 disables it
	DailySeasonality bool    // adds a 4th order daily component
	Changepoints     int     // potential trend changepoints
	ChangepointRange float64 // share of the history in which changepoints are placed
	SeasonalPenalty  float64 // ridge penalty on seasonal coefficients
	ChangepointPenal float64 // ridge penalty on changepoint slope deltas
	IntervalWidth    float64 // coverage of the uncertainty bounds, e.g. 0.8
}

// DefaultOptions mirrors the usual daily-data defaults.
func DefaultOptions() Options {
	return Options{
		YearlyOrder:      10,
		WeeklyOrder:      3,
		DailySeasonality: true,
		Changepoints:     25,
		ChangepointRange: 0.8,
		SeasonalPenalty:  1.0,
		ChangepointPenal: 10.0,
		IntervalWidth:    0.8,
	}
}

const dailyOrder = 4

var (
	ErrNotFitted          = errors.New("model must be fitted before prediction")
	ErrInsufficientData   = errors.New("at least two observations on distinct dates are required")
	ErrNonFiniteValue     = errors.New("observations must be finite")
	ErrMismatchedLengths  = errors.New("dates and values differ in length")
	ErrUnsortedTimestamps = errors.New("dates must be strictly increasing")
)

// Results holds predictions for the requested dates. Slices share one length.
type Results struct {
	T        []time.Time
	Forecast []float64
	Lower    []float64
	Upper    []float64
}

// Model is an additive trend plus seasonality regression.
type Model struct {
	opts Options

	start    time.Time
	span     float64 // days between first and last observation
	step     float64 // mean days between observations
	last     time.Time
	yScale   float64
	cps      []float64 // changepoints in scaled time
	keep     []bool    // seasonal columns retained after the constant check
	coef     []float64
	sigma    float64
	fitted   bool
	nObs     int
	residual []float64
}

// New creates an unfitted model.
func New(opts Options) *Model {
	if opts.IntervalWidth <= 0 || opts.IntervalWidth >= 1 {
		opts.IntervalWidth = 0.8
	}
	if opts.ChangepointRange <= 0 || opts.ChangepointRange > 1 {
		opts.ChangepointRange = 0.8
	}
	return &Model{opts: opts}
}

// Fit estimates the model from strictly increasing dates and their values.
func (m *Model) Fit(ds []time.Time, y []float64) error {
	if len(ds) != len(y) {
		return ErrMismatchedLengths
	}
	if len(ds) < 2 {
		return ErrInsufficientData
	}
	for i := 1; i < len(ds); i++ {
		if !ds[i].After(ds[i-1]) {
			return ErrUnsortedTimestamps
		}
	}
	yScale := 0.0
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFiniteValue
		}
		yScale = math.Max(yScale, math.Abs(v))
	}
	if yScale == 0 {
		yScale = 1
	}

	m.start = ds[0]
	m.last = ds[len(ds)-1]
	m.span = m.last.Sub(m.start).Hours() / 24
	m.step = m.span / float64(len(ds)-1)
	m.yScale = yScale
	m.nObs = len(ds)
	m.placeChangepoints()

	full := m.seasonalColumns(ds)
	m.keep = make([]bool, len(full))
	for c, col := range full {
		m.keep[c] = !constant(col)
	}

	X, penalty := m.design(ds)
	rows, cols := X.Dims()

	yv := mat.NewVecDense(rows, nil)
	for i, v := range y {
		yv.SetVec(i, v/yScale)
	}

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	for c := 0; c < cols; c++ {
		xtx.Set(c, c, xtx.At(c, c)+penalty[c])
	}
	var xty mat.VecDense
	xty.MulVec(X.T(), yv)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return fmt.Errorf("solve normal equations: %w", err)
	}
	m.coef = make([]float64, cols)
	for c := range m.coef {
		m.coef[c] = beta.AtVec(c)
	}

	var fittedVec mat.VecDense
	fittedVec.MulVec(X, &beta)
	m.residual = make([]float64, rows)
	ss := 0.0
	for i := range y {
		r := y[i] - fittedVec.AtVec(i)*yScale
		m.residual[i] = r
		ss += r * r
	}
	dof := rows - cols
	if dof < 1 {
		dof = 1
	}
	m.sigma = math.Sqrt(ss / float64(dof))
	m.fitted = true
	return nil
}

// Predict evaluates the model at ds. Dates at or before the last observed
// date get the in-sample interval; later dates widen with the horizon.
func (m *Model) Predict(ds []time.Time) (*Results, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	X, _ := m.design(ds)
	var beta = mat.NewVecDense(len(m.coef), m.coef)
	var yhat mat.VecDense
	if len(ds) > 0 {
		yhat.MulVec(X, beta)
	}

	z := distuv.UnitNormal.Quantile((1 + m.opts.IntervalWidth) / 2)
	res := &Results{
		T:        make([]time.Time, len(ds)),
		Forecast: make([]float64, len(ds)),
		Lower:    make([]float64, len(ds)),
		Upper:    make([]float64, len(ds)),
	}
	for i, d := range ds {
		v := yhat.AtVec(i) * m.yScale
		h := 0.0
		if d.After(m.last) && m.step > 0 {
			h = d.Sub(m.last).Hours() / 24 / m.step
		}
		band := z * m.sigma * math.Sqrt(1+h)
		res.T[i] = d
		res.Forecast[i] = v
		res.Lower[i] = v - band
		res.Upper[i] = v + band
	}
	return res, nil
}

// Sigma returns the residual standard deviation on the original scale.
func (m *Model) Sigma() float64 { return m.sigma }

// Residuals returns a copy of the in-sample residuals.
func (m *Model) Residuals() []float64 {
	out := make([]float64, len(m.residual))
	copy(out, m.residual)
	return out
}

func (m *Model) scaledTime(d time.Time) float64 {
	if m.span == 0 {
		return 0
	}
	return d.Sub(m.start).Hours() / 24 / m.span
}

func (m *Model) placeChangepoints() {
	m.cps = nil
	n := m.opts.Changepoints
	if n <= 0 {
		return
	}
	// keep at least a few observations per segment
	if limit := m.nObs / 4; n > limit {
		n = limit
	}
	for i := 1; i <= n; i++ {
		m.cps = append(m.cps, m.opts.ChangepointRange*float64(i)/float64(n+1))
	}
}

// seasonalColumns builds every Fourier column before the constant filter.
func (m *Model) seasonalColumns(ds []time.Time) [][]float64 {
	type component struct {
		period float64 // days
		order  int
	}
	var comps []component
	if m.opts.YearlyOrder > 0 {
		comps = append(comps, component{365.25, m.opts.YearlyOrder})
	}
	if m.opts.WeeklyOrder > 0 {
		comps = append(comps, component{7, m.opts.WeeklyOrder})
	}
	if m.opts.DailySeasonality {
		comps = append(comps, component{1, dailyOrder})
	}

	var cols [][]float64
	for _, c := range comps {
		for k := 1; k <= c.order; k++ {
			sinCol := make([]float64, len(ds))
			cosCol := make([]float64, len(ds))
			for i, d := range ds {
				days := float64(d.Unix()) / 86400
				x := 2 * math.Pi * float64(k) * days / c.period
				sinCol[i] = math.Sin(x)
				cosCol[i] = math.Cos(x)
			}
			cols = append(cols, sinCol, cosCol)
		}
	}
	return cols
}

// design returns the regression matrix for ds and the ridge penalty per column.
func (m *Model) design(ds []time.Time) (*mat.Dense, []float64) {
	seasonal := m.seasonalColumns(ds)
	var kept [][]float64
	for c, col := range seasonal {
		if m.keep[c] {
			kept = append(kept, col)
		}
	}
	cols := 2 + len(m.cps) + len(kept)
	penalty := make([]float64, cols)
	for c := 2; c < 2+len(m.cps); c++ {
		penalty[c] = m.opts.ChangepointPenal
	}
	for c := 2 + len(m.cps); c < cols; c++ {
		penalty[c] = m.opts.SeasonalPenalty
	}

	rows := len(ds)
	if rows == 0 {
		return mat.NewDense(1, cols, nil), penalty
	}
	X := mat.NewDense(rows, cols, nil)
	for i, d := range ds {
		t := m.scaledTime(d)
		X.Set(i, 0, 1)
		X.Set(i, 1, t)
		for j, s := range m.cps {
			X.Set(i, 2+j, math.Max(0, t-s))
		}
		for j, col := range kept {
			X.Set(i, 2+len(m.cps)+j, col[i])
		}
	}
	return X, penalty
}

func constant(col []float64) bool {
	const eps = 1e-9
	for _, v := range col[1:] {
		if math.Abs(v-col[0]) > eps {
			return false
		}
	}
	return true
}
