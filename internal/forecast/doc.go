// Package forecast fits an additive time-series model and predicts values
// with uncertainty bounds.
//
// The model is
//
//	y(t) = trend(t) + yearly(t) + weekly(t) + daily(t) + noise
//
// where the trend is piecewise linear with evenly spaced changepoints over the
// first part of the history, and each seasonal component is a Fourier series
// of configurable order. Coefficients are estimated by ridge-penalized least
// squares; the intercept and base slope are not penalized. Seasonal columns
// that are constant over the training dates (daily terms on date-only data)
// are left out of the fit.
//
// Uncertainty bounds use the residual standard deviation and widen with the
// number of observation steps past the end of the history:
//
//	yhat ± z * sigma * sqrt(1 + h)
//
// Each Model is fitted once and shares no state with other models.
package forecast

// ModelName describes the model in reports.
const ModelName = "Additive trend + Fourier seasonality (ridge least squares)"
