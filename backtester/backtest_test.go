package backtester

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openquant-labs/gocta/backtester/config"
	"github.com/openquant-labs/gocta/engine"
	"github.com/openquant-labs/gocta/eventtypes"
	"github.com/openquant-labs/gocta/exchanges/kline"
	"github.com/openquant-labs/gocta/exchanges/order"
	"github.com/openquant-labs/gocta/strategies"
	"github.com/openquant-labs/gocta/strategies/base"
)

const (
	testSymbol = "ETH-USDT-SWAP"
	// 2024-01-01T00:00:00Z
	day1MS = int64(1704067200000)
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Start:       "2024-01-01",
		End:         "2024-01-01",
		InitialCash: decimal.NewFromInt(10000),
		DataPath:    t.TempDir(),
		DataGateway: "BINANCE",
		PreheatDays: 0,
		FeeRate:     decimal.NewFromFloat(0.0005),
		Slippage:    decimal.NewFromFloat(0.0001),
	}
}

// stubSink collects events without dispatching them anywhere
type stubSink struct {
	events   []eventtypes.Event
	strategy strategies.Strategy
}

func (s *stubSink) PutEvent(e eventtypes.Event)   { s.events = append(s.events, e) }
func (s *stubSink) ProcessPending()               {}
func (s *stubSink) Strategy() strategies.Strategy { return s.strategy }

func newTestBacktest(t *testing.T) (*Backtest, *stubSink) {
	t.Helper()
	bt, err := New(testConfig(t))
	require.NoError(t, err)
	sink := &stubSink{}
	bt.SetSink(sink)
	bt.symbols = []string{testSymbol}
	bt.pricePrecision[testSymbol] = 1
	bt.volPrecision[testSymbol] = 1
	return bt, sink
}

func minuteBar(offset int, open, high, low, close float64) *kline.Bar {
	return &kline.Bar{
		Symbol:   testSymbol,
		Exchange: Name,
		OpenTime: day1MS + int64(offset)*minuteMS,
		Interval: kline.OneMin,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		Volume:   10,
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()
	_, err := New(nil)
	assert.ErrorIs(t, err, errNilConfig)

	cfg := testConfig(t)
	cfg.Start = "not a date"
	_, err = New(cfg)
	assert.Error(t, err)

	bt, err := New(testConfig(t))
	require.NoError(t, err)
	assert.Equal(t, day1MS, bt.GetTS(), "clock starts at midnight UTC of the start date")
	assert.Equal(t, Name, bt.Name())
	assert.Equal(t, Name, bt.Exchange())
}

func TestSendOrder(t *testing.T) {
	t.Parallel()
	bt, sink := newTestBacktest(t)

	id, err := bt.SendOrder(testSymbol, order.Long, order.Open, 100.04, 1.44)
	require.NoError(t, err)
	assert.Equal(t, "BT-ORDER-1", id)

	o, err := bt.QueryOrder(testSymbol, id)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, order.NotTraded, o.Status)
	assert.Equal(t, 100.0, o.Price, "price rounds to the symbol precision")
	assert.Equal(t, 1.4, o.Volume, "volume rounds to the symbol precision")
	assert.Equal(t, bt.GetTS(), o.Timestamp)

	require.Len(t, sink.events, 1)
	assert.Equal(t, eventtypes.Order, sink.events[0].Type)

	_, err = bt.SendOrder("BTC-USDT-SWAP", order.Long, order.Open, 100, 1)
	assert.ErrorIs(t, err, errUnknownSymbol)

	id2, err := bt.SendOrder(testSymbol, order.Short, order.Close, 120, 1)
	require.NoError(t, err)
	assert.Equal(t, "BT-ORDER-2", id2, "order ids are strictly increasing")
}

func TestCancelOrder(t *testing.T) {
	t.Parallel()
	bt, _ := newTestBacktest(t)
	id, err := bt.SendOrder(testSymbol, order.Long, order.Open, 100, 1)
	require.NoError(t, err)

	ok, err := bt.CancelOrder(testSymbol, "BT-ORDER-404")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = bt.CancelOrder(testSymbol, id)
	require.NoError(t, err)
	assert.True(t, ok)
	o, _ := bt.QueryOrder(testSymbol, id)
	assert.Equal(t, order.Cancelled, o.Status)

	// cancelling an already terminal order is a no-op success
	ok, err = bt.CancelOrder(testSymbol, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQueryActiveOrders(t *testing.T) {
	t.Parallel()
	bt, _ := newTestBacktest(t)
	id1, _ := bt.SendOrder(testSymbol, order.Long, order.Open, 100, 1)
	id2, _ := bt.SendOrder(testSymbol, order.Long, order.Open, 101, 1)
	_, err := bt.CancelOrder(testSymbol, id1)
	require.NoError(t, err)

	active, err := bt.QueryActiveOrders(testSymbol)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, id2, active[0].OrderID)

	active, err = bt.QueryActiveOrders("BTC-USDT-SWAP")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestAdvanceClock(t *testing.T) {
	t.Parallel()
	bt, _ := newTestBacktest(t)
	require.NoError(t, bt.advanceClock(day1MS))
	assert.Equal(t, day1MS+minuteMS, bt.GetTS())

	require.NoError(t, bt.advanceClock(day1MS+minuteMS))

	// replaying the same bar, or an older one, must be detected
	assert.ErrorIs(t, bt.advanceClock(day1MS+minuteMS), errClockBackwards)
	assert.ErrorIs(t, bt.advanceClock(day1MS), errClockBackwards)
}

func TestMatchTradeRules(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		side  order.Side
		price float64
		fills bool
	}{
		{"long above low fills", order.Long, 94.1, true},
		{"long at low rests", order.Long, 94.0, false},
		{"long below low rests", order.Long, 90.0, false},
		{"short below high fills", order.Short, 95.9, true},
		{"short at high rests", order.Short, 96.0, false},
		{"short above high rests", order.Short, 99.0, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bt, _ := newTestBacktest(t)
			id, err := bt.SendOrder(testSymbol, tt.side, order.Open, tt.price, 1)
			require.NoError(t, err)

			// two bars on so the order is no longer from the last bar and
			// fills at its limit price
			require.NoError(t, bt.advanceClock(day1MS))
			require.NoError(t, bt.advanceClock(day1MS+minuteMS))
			bt.matchTrade(map[string]*kline.Bar{
				testSymbol: minuteBar(1, 95.0, 96.0, 94.0, 95.5),
			})

			o, _ := bt.QueryOrder(testSymbol, id)
			if !tt.fills {
				assert.Equal(t, order.NotTraded, o.Status)
				assert.Empty(t, bt.trades)
				return
			}
			assert.Equal(t, order.AllTraded, o.Status)
			assert.Equal(t, o.Volume, o.Traded)
			assert.Equal(t, bt.GetTS(), o.Timestamp, "fill stamps the virtual clock")
			require.Len(t, bt.trades, 1)
			tr := bt.trades[0]
			assert.Equal(t, "BT-TRADE-1", tr.TradeID)
			assert.Equal(t, id, tr.OrderID)
			assert.Equal(t, tt.price, tr.Price, "no slippage without crossing the open from the prior bar")
			assert.Equal(t, bt.GetTS(), tr.Timestamp)
		})
	}
}

func TestFillPriceSlippage(t *testing.T) {
	t.Parallel()
	bt, _ := newTestBacktest(t)
	bar := minuteBar(1, 95.0, 110.0, 90.0, 96.0)

	mk := func(side order.Side, price float64, placedOneBarAgo bool) *order.Detail {
		ts := bt.GetTS() - 2*minuteMS
		if placedOneBarAgo {
			ts = bt.GetTS() - minuteMS
		}
		return &order.Detail{Symbol: testSymbol, Side: side, Price: price, Timestamp: ts}
	}

	// crossing the open adversely, placed one bar earlier: slip off the open
	assert.Equal(t, 95.0, bt.fillPrice(mk(order.Long, 100, true), bar),
		"round(95*1.0001, 1) = 95.0")
	assert.Equal(t, 95.0, bt.fillPrice(mk(order.Short, 90, true), bar),
		"round(95*0.9999, 1) = 95.0")

	// limit not crossing the open: exact limit price
	assert.Equal(t, 94.5, bt.fillPrice(mk(order.Long, 94.5, true), bar))
	assert.Equal(t, 95.5, bt.fillPrice(mk(order.Short, 95.5, true), bar))

	// placed earlier than the prior bar: exact limit price even when crossing
	assert.Equal(t, 100.0, bt.fillPrice(mk(order.Long, 100, false), bar))
	assert.Equal(t, 90.0, bt.fillPrice(mk(order.Short, 90, false), bar))
}

func TestMatchTradeSkipsSymbolsOutsideBarSet(t *testing.T) {
	t.Parallel()
	bt, _ := newTestBacktest(t)
	bt.pricePrecision["BTC-USDT-SWAP"] = 1
	_, err := bt.SendOrder("BTC-USDT-SWAP", order.Long, order.Open, 50000, 1)
	require.NoError(t, err)

	require.NoError(t, bt.advanceClock(day1MS))
	bt.matchTrade(map[string]*kline.Bar{testSymbol: minuteBar(0, 95, 96, 94, 95.5)})
	assert.Empty(t, bt.trades)
}

func TestGetBarArray(t *testing.T) {
	t.Parallel()
	bt, _ := newTestBacktest(t)
	assert.Nil(t, bt.GetBarArray(testSymbol, kline.OneMin, 3, 2), "nil before connect")

	bt.preheat = newBarSeries()
	for i := 0; i < 6; i++ {
		bt.preheat.add(minuteBar(i, 100+float64(i), 101+float64(i), 99+float64(i), 100.5+float64(i)))
	}
	bt.clock = day1MS + 6*minuteMS

	// needs 1*3*2 = 6 one minute bars, aggregated into two 3 minute candles
	arr := bt.GetBarArray(testSymbol, kline.OneMin, 3, 2)
	require.NotNil(t, arr)
	assert.True(t, arr.Ready())
	assert.Equal(t, []float64{102.5, 105.5}, arr.Close())
	assert.Equal(t, []float64{100, 103}, arr.Open())
	assert.Equal(t, []int64{day1MS, day1MS + 3*minuteMS}, arr.OpenTime())

	// short windows return nil, never a partial answer
	assert.Nil(t, bt.GetBarArray(testSymbol, kline.OneMin, 3, 3))
	assert.Nil(t, bt.GetBarArray("BTC-USDT-SWAP", kline.OneMin, 3, 2))

	// bars at or after the clock are invisible
	bt.clock = day1MS + 5*minuteMS
	assert.Nil(t, bt.GetBarArray(testSymbol, kline.OneMin, 3, 2))
}

func TestReplayRequiresWiring(t *testing.T) {
	t.Parallel()
	bt, err := New(testConfig(t))
	require.NoError(t, err)
	assert.ErrorIs(t, bt.Replay(), errNoSink)

	bt, _ = newTestBacktest(t)
	assert.ErrorIs(t, bt.Replay(), errNotConnected)
}

// scenarioStrategy rests one LONG order at 100 on the first bar it sees
type scenarioStrategy struct {
	base.Strategy
	placed bool
	fills  []*order.Trade
}

func newScenarioStrategy() *scenarioStrategy {
	s := &scenarioStrategy{
		Strategy: base.New("scenario", map[string][]string{Name: {testSymbol}}),
	}
	s.SetTopic(Name, eventtypes.Bar, nil)
	return s
}

func (s *scenarioStrategy) OnStart() error { return nil }

func (s *scenarioStrategy) OnBar(_, gatewayName, symbol string, _ *kline.Bar) {
	if !s.placed {
		s.Buy(gatewayName, symbol, 100, 1)
		s.placed = true
	}
}

func (s *scenarioStrategy) OnTrade(_, _, _ string, t *order.Trade) {
	s.fills = append(s.fills, t)
}

func (s *scenarioStrategy) Variables() map[string]interface{} {
	return map[string]interface{}{"placed": s.placed}
}

func writeDayFile(t *testing.T, cfg *config.Config, rows []string) {
	t.Helper()
	dir := filepath.Join(cfg.DataPath, cfg.DataGateway, "SWAP", "ETHUSDT")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "open_time,open,high,low,close,volume,quote_volume\n"
	for _, row := range rows {
		content += row + "\n"
	}
	path := filepath.Join(dir, fmt.Sprintf("ETHUSDT-1m-%s.csv", cfg.Start))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// The full pipeline: a LONG at 100 resting from the first bar, the second bar
// opening at 95 with low 90, slippage 0.0001 and fee rate 0.0005.
func TestReplayEndToEnd(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	writeDayFile(t, cfg, []string{
		fmt.Sprintf("%d,94.8,95.2,94.1,94.9,10.5,1000", day1MS),
		fmt.Sprintf("%d,95,110,90,96.5,12.5,1200", day1MS+minuteMS),
		fmt.Sprintf("%d,96.5,97.1,96.1,96.9,11.5,1100", day1MS+2*minuteMS),
	})

	bt, err := New(cfg)
	require.NoError(t, err)
	strat := newScenarioStrategy()

	eng := engine.New()
	eng.AddGateway(bt)
	eng.AddStrategy(strat)
	require.NoError(t, eng.Start())

	report := bt.Report()
	require.NotNil(t, report)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", report.ID.String())
	assert.Equal(t, "2024-01-01", report.Start)
	assert.Equal(t, "2024-01-01", report.End)
	assert.Equal(t, 10000.0, report.InitialCash)

	// the order crossed the second bar's open from the prior bar, so the
	// fill slips: round(95*1.0001, 1) = 95.0
	require.Equal(t, 1, report.TradeCount)
	require.Len(t, strat.fills, 1)
	tr := strat.fills[0]
	assert.Equal(t, "BT-TRADE-1", tr.TradeID)
	assert.Equal(t, "BT-ORDER-1", tr.OrderID)
	assert.Equal(t, 95.0, tr.Price)
	assert.Equal(t, 1.0, tr.Volume)
	assert.Equal(t, day1MS+2*minuteMS, tr.Timestamp, "trade stamps the virtual clock")

	o, err := bt.QueryOrder(testSymbol, tr.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.AllTraded, o.Status)
	assert.Equal(t, o.Volume, o.Traded)

	pos, err := bt.QueryPosition(testSymbol)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, 1.0, pos.NetQty)
	require.NotNil(t, pos.AvgPrice)
	assert.Equal(t, 95.0, *pos.AvgPrice)

	// cash = initial - F*V; fee = F*V*rate; value = cash + V*close - fee
	wantCash := 10000 - 95.0
	wantFee := 95.0 * 0.0005
	wantValue := wantCash + 96.9 - wantFee
	assert.InDelta(t, wantFee, report.TotalFee, 1e-9)
	assert.InDelta(t, wantValue, report.AccountValue, 1e-9)
	assert.InDelta(t, wantValue-10000, report.PnL, 1e-9)
	assert.InDelta(t, 0.02, report.PnLRatio, 1e-9, "ratio is rounded to two decimal places")
	assert.Zero(t, report.SharpeRatio, "a single day has no daily return series")
	assert.Zero(t, report.MaxDrawdownRatio, "the run never drew down")

	require.Len(t, report.Snapshots, 3)
	first := report.Snapshots[0]
	assert.Equal(t, day1MS+minuteMS, first.TS)
	assert.InDelta(t, 10000, first.AccountValue, 1e-9, "no fills before the first bar settles")
	assert.Equal(t, true, first.Variables["placed"], "strategy variables ride along each snapshot")
	assert.InDelta(t, 94.9, first.Closes[testSymbol], 1e-9)

	second := report.Snapshots[1]
	assert.InDelta(t, wantCash, second.Cash, 1e-9)
	assert.InDelta(t, wantCash+96.5-wantFee, second.AccountValue, 1e-9)
	assert.InDelta(t, 96.5-95.0, second.UnrealisedPL[testSymbol], 1e-9)
}

func TestReplayNoTradesKeepsInitialCash(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	writeDayFile(t, cfg, []string{
		fmt.Sprintf("%d,94.8,95.2,94.1,94.9,10.5,1000", day1MS),
		fmt.Sprintf("%d,95,96,94,95.5,12.5,1200", day1MS+minuteMS),
	})

	bt, err := New(cfg)
	require.NoError(t, err)
	strat := &passiveStrategy{Strategy: base.New("passive", map[string][]string{Name: {testSymbol}})}
	strat.SetTopic(Name, eventtypes.Bar, nil)

	eng := engine.New()
	eng.AddGateway(bt)
	eng.AddStrategy(strat)
	require.NoError(t, eng.Start())

	report := bt.Report()
	require.NotNil(t, report)
	assert.Zero(t, report.TradeCount)
	assert.InDelta(t, 10000, report.AccountValue, 1e-9)
	assert.Zero(t, report.PnL)
	assert.Equal(t, 1, strat.finishes, "backtest end fires OnFinish exactly once")
}

func TestReplayWithoutBarTopicIsFatal(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	writeDayFile(t, cfg, []string{fmt.Sprintf("%d,94.8,95.2,94.1,94.9,10.5,1000", day1MS)})

	bt, err := New(cfg)
	require.NoError(t, err)
	strat := &passiveStrategy{Strategy: base.New("passive", map[string][]string{Name: {testSymbol}})}

	eng := engine.New()
	eng.AddGateway(bt)
	eng.AddStrategy(strat)
	assert.ErrorIs(t, eng.Start(), errBarTopicNotSet)
}

type passiveStrategy struct {
	base.Strategy
	finishes int
}

func (s *passiveStrategy) OnStart() error { return nil }
func (s *passiveStrategy) OnFinish()      { s.finishes++ }
