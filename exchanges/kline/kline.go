package kline

import (
	"sort"
	"time"
)

// Consts here define basic time intervals
const (
	OneMin  = Interval(time.Minute)
	OneHour = Interval(time.Hour)
	OneDay  = 24 * OneHour
	OneWeek = 7 * OneDay
)

// Interval type for kline interval usage
type Interval time.Duration

// Duration returns the interval as a time.Duration
func (i Interval) Duration() time.Duration {
	return time.Duration(i)
}

// Minutes returns the whole number of minutes the interval spans
func (i Interval) Minutes() int {
	return int(time.Duration(i) / time.Minute)
}

// Milliseconds returns the interval span in milliseconds
func (i Interval) Milliseconds() int64 {
	return time.Duration(i).Milliseconds()
}

// String implements the stringer interface
func (i Interval) String() string {
	return i.Duration().String()
}

// Bar holds the OHLCV aggregate of one completed trading period
type Bar struct {
	Symbol      string
	Exchange    string
	GatewayName string
	OpenTime    int64 // ms
	Interval    Interval
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	Turnover    float64
}

// CloseTime returns the bar's close timestamp in milliseconds
func (b *Bar) CloseTime() int64 {
	return b.OpenTime + b.Interval.Milliseconds()
}

// ByOpenTime sorts bars by their open timestamp ascending
type ByOpenTime []Bar

func (b ByOpenTime) Len() int           { return len(b) }
func (b ByOpenTime) Less(i, j int) bool { return b[i].OpenTime < b[j].OpenTime }
func (b ByOpenTime) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }

// SortByOpenTime sorts the supplied bars in place ascending by open time
func SortByOpenTime(bars []Bar) {
	sort.Sort(ByOpenTime(bars))
}
