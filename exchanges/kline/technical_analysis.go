package kline

import (
	"errors"
	"fmt"

	"github.com/thrasher-corp/gct-ta/indicators"
)

var (
	errInvalidPeriod = errors.New("invalid period")
	errNotReady      = errors.New("not enough data to derive signal")
)

// GetSimpleMovingAverage returns the SMA of the close series for the given
// period
func (a *BarArray) GetSimpleMovingAverage(period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("get simple moving average %w", errInvalidPeriod)
	}
	if !a.Ready() {
		return nil, fmt.Errorf("get simple moving average %w", errNotReady)
	}
	return indicators.MA(a.close, period, indicators.Sma), nil
}

// GetExponentialMovingAverage returns the EMA of the close series for the
// given period
func (a *BarArray) GetExponentialMovingAverage(period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("get exponential moving average %w", errInvalidPeriod)
	}
	if !a.Ready() {
		return nil, fmt.Errorf("get exponential moving average %w", errNotReady)
	}
	return indicators.MA(a.close, period, indicators.Ema), nil
}

// GetRelativeStrengthIndex returns the RSI of the close series for the given
// period
func (a *BarArray) GetRelativeStrengthIndex(period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("get relative strength index %w", errInvalidPeriod)
	}
	if !a.Ready() {
		return nil, fmt.Errorf("get relative strength index %w", errNotReady)
	}
	return indicators.RSI(a.close, period), nil
}

// GetAverageTrueRange returns the ATR for the given period
func (a *BarArray) GetAverageTrueRange(period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("get average true range %w", errInvalidPeriod)
	}
	if !a.Ready() {
		return nil, fmt.Errorf("get average true range %w", errNotReady)
	}
	return indicators.ATR(a.high, a.low, a.close, period), nil
}

// MACD holds the moving average convergence divergence result set
type MACD struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// GetMovingAverageConvergenceDivergence returns the MACD of the close series
func (a *BarArray) GetMovingAverageConvergenceDivergence(fast, slow, signal int) (*MACD, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, fmt.Errorf("get moving average convergence divergence %w", errInvalidPeriod)
	}
	if !a.Ready() {
		return nil, fmt.Errorf("get moving average convergence divergence %w", errNotReady)
	}
	var resp MACD
	resp.MACD, resp.Signal, resp.Histogram = indicators.MACD(a.close, fast, slow, signal)
	return &resp, nil
}
