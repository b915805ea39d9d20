package kline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minuteBars(start int64, n int, basePrice float64) []Bar {
	bars := make([]Bar, n)
	for i := 0; i < n; i++ {
		p := basePrice + float64(i)
		bars[i] = Bar{
			Symbol:   "ETH-USDT-SWAP",
			OpenTime: start + int64(i)*OneMin.Milliseconds(),
			Interval: OneMin,
			Open:     p,
			High:     p + 1,
			Low:      p - 1,
			Close:    p + 0.5,
			Volume:   10,
			Turnover: 10 * p,
		}
	}
	return bars
}

func TestIntervalHelpers(t *testing.T) {
	assert.Equal(t, 1, OneMin.Minutes())
	assert.Equal(t, 60, OneHour.Minutes())
	assert.Equal(t, int64(60000), OneMin.Milliseconds())
}

func TestBarCloseTime(t *testing.T) {
	b := Bar{OpenTime: 1704067200000, Interval: OneMin}
	assert.Equal(t, int64(1704067260000), b.CloseTime())
}

func TestSortByOpenTime(t *testing.T) {
	bars := []Bar{{OpenTime: 3}, {OpenTime: 1}, {OpenTime: 2}}
	SortByOpenTime(bars)
	assert.Equal(t, int64(1), bars[0].OpenTime)
	assert.Equal(t, int64(3), bars[2].OpenTime)
}

func TestNewBuilderValidation(t *testing.T) {
	cb := func(Bar) {}
	_, err := NewBuilder(OneMin, 0, cb)
	assert.Error(t, err)
	_, err = NewBuilder(Interval(1), 1, cb)
	assert.Error(t, err)
	_, err = NewBuilder(OneMin, 1, nil)
	assert.Error(t, err)
}

func TestBuilderAggregation(t *testing.T) {
	var out []Bar
	b, err := NewBuilder(OneMin, 3, func(bar Bar) { out = append(out, bar) })
	require.NoError(t, err)

	for _, bar := range minuteBars(1704067200000, 7, 100) {
		b.Update(bar)
	}

	require.Len(t, out, 2, "seven minute bars should yield two complete 3m bars")
	first := out[0]
	assert.Equal(t, int64(1704067200000), first.OpenTime)
	assert.Equal(t, 3*OneMin, first.Interval)
	assert.Equal(t, 100.0, first.Open)
	assert.Equal(t, 103.0, first.High)  // high of third minute
	assert.Equal(t, 99.0, first.Low)    // low of first minute
	assert.Equal(t, 102.5, first.Close) // close of third minute
	assert.Equal(t, 30.0, first.Volume)
}

func TestBarArrayUpdate(t *testing.T) {
	a := NewBarArray(3)
	assert.False(t, a.Ready())

	for i, bar := range minuteBars(0, 4, 50) {
		a.Update(bar)
		if i < 2 {
			assert.False(t, a.Ready())
		}
	}

	assert.True(t, a.Ready())
	assert.Equal(t, 3, a.Size())
	// the oldest surviving bar is the second fed
	assert.Equal(t, OneMin.Milliseconds(), a.OpenTime()[0])
	assert.Equal(t, 51.0, a.Open()[0])
	assert.Equal(t, 53.5, a.Close()[2])
}

func TestTechnicalAnalysisGuards(t *testing.T) {
	a := NewBarArray(5)
	_, err := a.GetSimpleMovingAverage(3)
	assert.Error(t, err, "unfilled array must not answer")

	for _, bar := range minuteBars(0, 5, 10) {
		a.Update(bar)
	}

	_, err = a.GetSimpleMovingAverage(0)
	assert.Error(t, err)

	sma, err := a.GetSimpleMovingAverage(3)
	require.NoError(t, err)
	assert.Len(t, sma, 5)
	assert.InDelta(t, (12.5+13.5+14.5)/3, sma[4], 1e-9)

	_, err = a.GetExponentialMovingAverage(3)
	assert.NoError(t, err)
	_, err = a.GetRelativeStrengthIndex(3)
	assert.NoError(t, err)
	_, err = a.GetAverageTrueRange(3)
	assert.NoError(t, err)
	macd, err := a.GetMovingAverageConvergenceDivergence(2, 3, 2)
	require.NoError(t, err)
	assert.Len(t, macd.MACD, 5)
}
