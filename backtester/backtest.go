package backtester

import (
	"fmt"

	"github.com/openquant-labs/gocta/backtester/config"
	"github.com/openquant-labs/gocta/common/math"
	"github.com/openquant-labs/gocta/eventtypes"
	"github.com/openquant-labs/gocta/exchanges"
	"github.com/openquant-labs/gocta/exchanges/account"
	"github.com/openquant-labs/gocta/exchanges/kline"
	"github.com/openquant-labs/gocta/exchanges/order"
	"github.com/openquant-labs/gocta/log"
)

// New returns a backtest gateway for the supplied run configuration. The
// virtual clock starts at midnight UTC of the start date and only advances
// through bar replay.
func New(cfg *config.Config) (*Backtest, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Backtest{
		cfg:            cfg,
		pricePrecision: make(map[string]int),
		volPrecision:   make(map[string]int),
		clock:          cfg.StartTime().UnixMilli(),
		ledger:         newLedger(cfg.InitialCash.InexactFloat64()),
	}, nil
}

// Name returns the gateway identity
func (b *Backtest) Name() string { return Name }

// Exchange returns the simulated venue identity
func (b *Backtest) Exchange() string { return Name }

// SetSink wires the engine back reference. The replay loop additionally
// needs pacing and strategy access, so a plain event sink is rejected.
func (b *Backtest) SetSink(s exchanges.EventSink) {
	paced, ok := s.(sink)
	if !ok {
		log.Errorf(log.BackTester, "sink %T cannot pace a replay", s)
		return
	}
	b.sink = paced
}

// GetTS returns the virtual clock, a 13 digit millisecond timestamp
func (b *Backtest) GetTS() int64 { return b.clock }

// Connect loads the trading and preheat bar collections for the subscribed
// symbols. The preheat window only answers historical queries, it is never
// replayed.
func (b *Backtest) Connect(symbols []string) error {
	b.symbols = append([]string(nil), symbols...)

	start, end := b.cfg.StartTime(), b.cfg.EndTime()
	preheatStart := start.AddDate(0, 0, -b.cfg.PreheatDays)

	preheat, err := b.loadBarData(preheatStart, end)
	if err != nil {
		return err
	}
	b.preheat = preheat
	log.Infof(log.BackTester, "preheat data loaded, %v bar sets", preheat.len())

	// the trading window is the preheat load restricted to [start, end]
	startMS := start.UnixMilli()
	trading := newBarSeries()
	for _, openTS := range preheat.index {
		if openTS < startMS {
			continue
		}
		for _, bar := range preheat.sets[openTS] {
			trading.add(bar)
		}
	}
	b.trading = trading
	log.Infof(log.BackTester, "trading data loaded, %v bar sets", trading.len())
	return nil
}

// SendOrder accepts a limit order at the virtual time, pushing the order
// event immediately. Matching only happens on the next replayed bar.
func (b *Backtest) SendOrder(symbol string, side order.Side, offset order.Offset, price, amount float64) (string, error) {
	if b.sink == nil {
		return "", errNoSink
	}
	pricePrec, ok := b.pricePrecision[symbol]
	if !ok {
		return "", fmt.Errorf("%w: %s", errUnknownSymbol, symbol)
	}

	b.sentOrderCount++
	o := &order.Detail{
		Symbol:    symbol,
		Exchange:  Name,
		OrderID:   fmt.Sprintf("%s%d", orderIDPrefix, b.sentOrderCount),
		Side:      side,
		Offset:    offset,
		Price:     math.RoundFloat(price, pricePrec),
		Volume:    math.RoundFloat(amount, b.volPrecision[symbol]),
		Status:    order.NotTraded,
		Timestamp: b.clock,
	}
	b.sentOrders = append(b.sentOrders, o)
	b.putEvent(eventtypes.Order, symbol, o)
	return o.OrderID, nil
}

// CancelOrder cancels the order if it is still active; a terminal order
// reports true without mutation
func (b *Backtest) CancelOrder(symbol, orderID string) (bool, error) {
	for _, o := range b.sentOrders {
		if o.OrderID != orderID || o.Symbol != symbol {
			continue
		}
		if o.IsActive() {
			if err := o.UpdateStatus(order.Cancelled); err != nil {
				return false, err
			}
			b.putEvent(eventtypes.Order, symbol, o)
		}
		return true, nil
	}
	return false, nil
}

// QueryOrder returns the order, or nil when it was never sent here
func (b *Backtest) QueryOrder(symbol, orderID string) (*order.Detail, error) {
	for _, o := range b.sentOrders {
		if o.OrderID == orderID && o.Symbol == symbol {
			return o, nil
		}
	}
	return nil, nil
}

// QueryActiveOrders returns every order still eligible for matching or
// cancellation on the symbol
func (b *Backtest) QueryActiveOrders(symbol string) ([]*order.Detail, error) {
	var active []*order.Detail
	for _, o := range b.sentOrders {
		if o.Symbol == symbol && o.IsActive() {
			active = append(active, o)
		}
	}
	return active, nil
}

// QueryAccount projects the current ledger state
func (b *Backtest) QueryAccount() (*account.Holdings, error) {
	positions := make(map[string]*account.Position, len(b.ledger.positions))
	for symbol := range b.ledger.positions {
		positions[symbol] = b.ledger.position(symbol)
	}
	return &account.Holdings{
		Exchange:    Name,
		GatewayName: Name,
		Assets: map[string]account.Asset{
			"USDT": {Name: "USDT", Total: b.ledger.cash, Available: b.ledger.cash},
		},
		Positions: positions,
	}, nil
}

// QueryPosition returns a detached position copy, nil before the first fill
func (b *Backtest) QueryPosition(symbol string) (*account.Position, error) {
	return b.ledger.position(symbol), nil
}

// Replay drives the whole run: one iteration per recorded minute, matching
// then accounting then dispatch, ending with the report on a BacktestEnd
// event. Implements the engine's Replayer capability.
func (b *Backtest) Replay() error {
	if b.sink == nil {
		return errNoSink
	}
	if b.trading == nil {
		return errNotConnected
	}

	strat := b.sink.Strategy()
	strat.SetClock(b.GetTS)
	if _, ok := strat.Topics()[Name][eventtypes.Bar]; !ok {
		return errBarTopicNotSet
	}

	log.Infof(log.BackTester, "replaying %v bar sets [%s, %s]",
		b.trading.len(), b.cfg.Start, b.cfg.End)

	lastCloses := make(map[string]float64)
	for _, openTS := range b.trading.index {
		barSet := b.trading.sets[openTS]
		if err := b.advanceClock(openTS); err != nil {
			return err
		}

		b.matchTrade(barSet)

		closes := make(map[string]float64, len(barSet))
		for symbol, bar := range barSet {
			closes[symbol] = bar.Close
			lastCloses[symbol] = bar.Close
		}
		b.ledger.markToMarket(lastCloses)

		for symbol, bar := range barSet {
			b.putEvent(eventtypes.Bar, symbol, bar)
		}
		b.sink.ProcessPending()

		b.snapshots = append(b.snapshots, b.ledger.snapshot(b.clock, closes, strat.Variables()))
	}

	b.report = b.calculateReport()
	log.Infof(log.BackTester, "replay finished, %v trades, final account value %v",
		b.report.TradeCount, b.report.AccountValue)
	b.putEvent(eventtypes.BacktestEnd, "", b.report)
	b.sink.ProcessPending()
	return nil
}

// Report returns the computed run report, nil until the replay has finished
func (b *Backtest) Report() *Report {
	return b.report
}

// advanceClock moves virtual time to the close of the popped bar. Bars must
// arrive in strictly increasing open time order.
func (b *Backtest) advanceClock(openTS int64) error {
	next := openTS + minuteMS
	if next <= b.clock {
		return fmt.Errorf("%w: bar open %v, clock %v", errClockBackwards, openTS, b.clock)
	}
	b.clock = next
	return nil
}

// matchTrade runs every active order against the bar set. Fills are binary:
// a LONG order fills iff its price exceeds the bar low, a SHORT iff its
// price is under the bar high.
func (b *Backtest) matchTrade(barSet map[string]*kline.Bar) {
	for _, o := range b.sentOrders {
		if !o.IsActive() {
			continue
		}
		bar, ok := barSet[o.Symbol]
		if !ok {
			continue
		}

		if o.Side == order.Long {
			if o.Price <= bar.Low {
				continue
			}
		} else if o.Price >= bar.High {
			continue
		}

		price := b.fillPrice(o, bar)
		if err := o.Fill(b.clock); err != nil {
			log.Errorf(log.BackTester, "filling %s: %v", o.OrderID, err)
			continue
		}
		b.putEvent(eventtypes.Order, o.Symbol, o)

		b.tradeCount++
		t := &order.Trade{
			Symbol:    o.Symbol,
			Exchange:  Name,
			OrderID:   o.OrderID,
			TradeID:   fmt.Sprintf("%s%d", tradeIDPrefix, b.tradeCount),
			Side:      o.Side,
			Offset:    o.Offset,
			Price:     price,
			Volume:    o.Volume,
			Timestamp: b.clock,
		}
		b.trades = append(b.trades, t)
		b.putEvent(eventtypes.Trade, o.Symbol, t)

		b.ledger.applyFill(t, b.cfg.FeeRate.InexactFloat64(), b.volPrecision[o.Symbol])
	}
}

// fillPrice applies the slippage rule: an order placed on the immediately
// preceding bar that crosses this bar's open adversely fills at
// open*(1±slippage) rounded to the symbol's price precision; every other
// fill takes the limit price exactly
func (b *Backtest) fillPrice(o *order.Detail, bar *kline.Bar) float64 {
	fromLastBar := b.clock-o.Timestamp == minuteMS
	if !fromLastBar {
		return o.Price
	}
	slippage := b.cfg.Slippage.InexactFloat64()
	switch {
	case o.Side == order.Long && o.Price > bar.Open:
		return math.RoundFloat(bar.Open*(1+slippage), b.pricePrecision[o.Symbol])
	case o.Side == order.Short && o.Price < bar.Open:
		return math.RoundFloat(bar.Open*(1-slippage), b.pricePrecision[o.Symbol])
	default:
		return o.Price
	}
}

func (b *Backtest) putEvent(t eventtypes.Type, symbol string, payload interface{}) {
	if b.sink == nil {
		return
	}
	b.sink.PutEvent(eventtypes.Event{
		Type:        t,
		Exchange:    Name,
		GatewayName: Name,
		Symbol:      symbol,
		Payload:     payload,
	})
}

// GetBarArray answers a historical rolling window query at the virtual time:
// size completed bars of window*interval, aggregated from one minute preheat
// bars strictly preceding the clock. Short windows return nil, never a
// partial answer.
func (b *Backtest) GetBarArray(symbol string, interval kline.Interval, window, size int) *kline.BarArray {
	if b.preheat == nil {
		return nil
	}
	intervalMinutes := interval.Minutes()
	if intervalMinutes <= 0 || window <= 0 || size <= 0 {
		return nil
	}
	needed := intervalMinutes * window * size
	bars := b.preheat.barsBefore(symbol, b.clock, needed)
	if len(bars) != needed {
		log.Errorf(log.BackTester, "bar array %s %v x%d size %d: need %d one minute bars, have %d",
			symbol, interval, window, size, needed, len(bars))
		return nil
	}

	// barsBefore returns most recent first; the builder wants ascending
	arr := kline.NewBarArray(size)
	builder, err := kline.NewBuilder(interval, window, func(completed kline.Bar) {
		arr.Update(completed)
	})
	if err != nil {
		log.Errorf(log.BackTester, "bar array builder: %v", err)
		return nil
	}
	for i := len(bars) - 1; i >= 0; i-- {
		builder.Update(*bars[i])
	}
	if !arr.Ready() {
		return nil
	}
	return arr
}
