package kline

// BarArray keeps the most recent completed window bars in fixed size arrays
// for technical analysis usage. New bars shift the arrays left; the array is
// not ready for signal generation until it has filled once.
type BarArray struct {
	size     int
	count    int
	openTime []int64
	open     []float64
	high     []float64
	low      []float64
	close    []float64
	volume   []float64
	turnover []float64
}

// NewBarArray returns a bar array holding size completed bars
func NewBarArray(size int) *BarArray {
	if size <= 0 {
		size = 1
	}
	return &BarArray{
		size:     size,
		openTime: make([]int64, size),
		open:     make([]float64, size),
		high:     make([]float64, size),
		low:      make([]float64, size),
		close:    make([]float64, size),
		volume:   make([]float64, size),
		turnover: make([]float64, size),
	}
}

// Update pushes a completed bar into the arrays
func (a *BarArray) Update(b Bar) {
	a.count++
	copy(a.openTime, a.openTime[1:])
	copy(a.open, a.open[1:])
	copy(a.high, a.high[1:])
	copy(a.low, a.low[1:])
	copy(a.close, a.close[1:])
	copy(a.volume, a.volume[1:])
	copy(a.turnover, a.turnover[1:])

	last := a.size - 1
	a.openTime[last] = b.OpenTime
	a.open[last] = b.Open
	a.high[last] = b.High
	a.low[last] = b.Low
	a.close[last] = b.Close
	a.volume[last] = b.Volume
	a.turnover[last] = b.Turnover
}

// Ready reports whether the arrays have filled at least once
func (a *BarArray) Ready() bool {
	return a.count >= a.size
}

// Size returns the fixed capacity of the arrays
func (a *BarArray) Size() int {
	return a.size
}

// OpenTime returns the open timestamp array, oldest first
func (a *BarArray) OpenTime() []int64 { return a.openTime }

// Open returns the open price array, oldest first
func (a *BarArray) Open() []float64 { return a.open }

// High returns the high price array, oldest first
func (a *BarArray) High() []float64 { return a.high }

// Low returns the low price array, oldest first
func (a *BarArray) Low() []float64 { return a.low }

// Close returns the close price array, oldest first
func (a *BarArray) Close() []float64 { return a.close }

// Volume returns the volume array, oldest first
func (a *BarArray) Volume() []float64 { return a.volume }

// Turnover returns the turnover array, oldest first
func (a *BarArray) Turnover() []float64 { return a.turnover }
