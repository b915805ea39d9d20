package kline

import "errors"

var (
	errInvalidWindow   = errors.New("window must be positive")
	errInvalidInterval = errors.New("interval must span whole minutes")
	errNilCallback     = errors.New("completed bar callback is nil")
)

// Builder aggregates a stream of one minute bars into window bars spanning
// window * interval, invoking the callback once per completed window bar
type Builder struct {
	interval Interval
	window   int
	onBar    func(Bar)
	working  *Bar
	consumed int
}

// NewBuilder returns a builder producing bars of window * interval from one
// minute input bars
func NewBuilder(interval Interval, window int, onBar func(Bar)) (*Builder, error) {
	if window <= 0 {
		return nil, errInvalidWindow
	}
	if interval.Minutes() <= 0 {
		return nil, errInvalidInterval
	}
	if onBar == nil {
		return nil, errNilCallback
	}
	return &Builder{
		interval: interval,
		window:   window,
		onBar:    onBar,
	}, nil
}

// Update feeds the next one minute bar into the builder
func (b *Builder) Update(bar Bar) {
	if b.working == nil {
		w := bar
		w.Interval = b.interval * Interval(b.window)
		b.working = &w
		b.consumed = 1
	} else {
		if bar.High > b.working.High {
			b.working.High = bar.High
		}
		if bar.Low < b.working.Low {
			b.working.Low = bar.Low
		}
		b.working.Close = bar.Close
		b.working.Volume += bar.Volume
		b.working.Turnover += bar.Turnover
		b.consumed++
	}

	if b.consumed == b.interval.Minutes()*b.window {
		b.onBar(*b.working)
		b.working = nil
		b.consumed = 0
	}
}
