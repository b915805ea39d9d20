package math

import (
	"math"
	"strings"
)

// RoundFloat rounds your floating point number to the desired decimal place
func RoundFloat(x float64, prec int) float64 {
	pow := math.Pow(10, float64(prec))
	return math.Round(x*pow) / pow
}

// DecimalPlaces returns the number of decimal places carried by a plain
// numeric string. Exponent notation is not expected from minute bar sources.
func DecimalPlaces(value string) int {
	i := strings.IndexByte(value, '.')
	if i == -1 {
		return 0
	}
	return len(strings.TrimRight(value[i+1:], "0"))
}

// ArithmeticAverage is the basic form of calculating an average.
// Divide the sum of all values by the length of values
func ArithmeticAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumOfValues float64
	for x := range values {
		sumOfValues += values[x]
	}
	return sumOfValues / float64(len(values))
}

// SampleStandardDeviation standard deviation is a statistic that
// measures the dispersion of a dataset relative to its mean and
// is calculated as the square root of the variance
func SampleStandardDeviation(vals []float64) float64 {
	if len(vals) <= 1 {
		return 0
	}
	mean := ArithmeticAverage(vals)
	var combined float64
	for i := range vals {
		combined += math.Pow(vals[i]-mean, 2)
	}
	avg := combined / (float64(len(vals)) - 1)
	return math.Sqrt(avg)
}

// CalculateSharpeRatio returns the annualised sharpe ratio for a series of
// daily returns. A flat series has no dispersion and yields zero rather than
// a division error.
func CalculateSharpeRatio(dailyReturns []float64) float64 {
	if len(dailyReturns) <= 1 {
		return 0
	}
	std := SampleStandardDeviation(dailyReturns)
	if std == 0 {
		return 0
	}
	return ArithmeticAverage(dailyReturns) / std * math.Sqrt(365)
}

// Drawdown holds the worst peak to trough excursion of a value series
type Drawdown struct {
	Ratio   float64
	StartTS int64
	EndTS   int64
}

// CalculateMaxDrawdown returns the maximum drawdown of the supplied value
// series. The trough is where value/runningMax - 1 is at its minimum; the
// start is the most recent point at or before the trough where the value
// equals the running maximum observed by the trough.
func CalculateMaxDrawdown(timestamps []int64, values []float64) Drawdown {
	if len(values) == 0 || len(timestamps) != len(values) {
		return Drawdown{}
	}

	runningMax := make([]float64, len(values))
	peak := values[0]
	for i := range values {
		if values[i] > peak {
			peak = values[i]
		}
		runningMax[i] = peak
	}

	trough := 0
	worst := 0.0
	for i := range values {
		dd := values[i]/runningMax[i] - 1
		if dd < worst {
			worst = dd
			trough = i
		}
	}

	start := timestamps[trough]
	for i := trough; i >= 0; i-- {
		if values[i] == runningMax[trough] {
			start = timestamps[i]
			break
		}
	}

	return Drawdown{
		Ratio:   worst,
		StartTS: start,
		EndTS:   timestamps[trough],
	}
}
