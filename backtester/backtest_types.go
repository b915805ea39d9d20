package backtester

import (
	"errors"

	"github.com/gofrs/uuid"

	"github.com/openquant-labs/gocta/backtester/config"
	"github.com/openquant-labs/gocta/eventtypes"
	"github.com/openquant-labs/gocta/exchanges/account"
	"github.com/openquant-labs/gocta/exchanges/kline"
	"github.com/openquant-labs/gocta/exchanges/order"
	"github.com/openquant-labs/gocta/strategies"
)

// Name is the gateway and exchange identity of the replay engine
const Name = "BACKTEST"

const (
	orderIDPrefix = "BT-ORDER-"
	tradeIDPrefix = "BT-TRADE-"
)

var (
	errNoSink         = errors.New("backtest gateway has no engine sink")
	errNotConnected   = errors.New("backtest gateway not connected")
	errUnknownSymbol  = errors.New("symbol not loaded")
	errClockBackwards = errors.New("bar open timestamp behind virtual clock")
	errBarTopicNotSet = errors.New("strategy did not subscribe the bar topic on the backtest gateway")
	errNilConfig      = errors.New("nil backtest config")
)

// sink is what the replay loop needs back from the engine: event intake,
// synchronous draining for pacing, and the strategy for clock wiring and
// variable snapshotting
type sink interface {
	PutEvent(eventtypes.Event)
	ProcessPending()
	Strategy() strategies.Strategy
}

// Backtest replays recorded minute bars through the engine, matching resting
// orders against each bar and keeping the run's ledger. It is a Gateway like
// any live adapter; the engine only learns it drives the run through the
// Replayer capability.
//
// All state is single writer under the cooperative replay loop, no locking.
type Backtest struct {
	cfg  *config.Config
	sink sink

	symbols []string
	trading *barSeries
	preheat *barSeries

	pricePrecision map[string]int
	volPrecision   map[string]int

	clock int64 // virtual time, ms

	sentOrderCount int
	sentOrders     []*order.Detail
	tradeCount     int
	trades         []*order.Trade

	ledger    *ledger
	snapshots []Snapshot

	report *Report
}

// Snapshot is one per-minute row of the report buffer, taken after the
// strategy's reaction to the bar has fully settled
type Snapshot struct {
	TS           int64                       `json:"ts"`
	Positions    map[string]account.Position `json:"positions"`
	UnrealisedPL map[string]float64          `json:"upnl"`
	Fees         map[string]float64          `json:"fees"`
	Cash         float64                     `json:"cash"`
	AccountValue float64                     `json:"account_value"`
	Closes       map[string]float64          `json:"closes"`
	Variables    map[string]interface{}      `json:"variables,omitempty"`
}

// Report is the terminal payload of a run, computed once at replay end
type Report struct {
	ID                 uuid.UUID      `json:"id"`
	Start              string         `json:"start"`
	End                string         `json:"end"`
	InitialCash        float64        `json:"initial_cash"`
	AccountValue       float64        `json:"account_value"`
	PnL                float64        `json:"pnl"`
	PnLRatio           float64        `json:"pnl_ratio"`
	SharpeRatio        float64        `json:"sharpe_ratio"`
	MaxDrawdownRatio   float64        `json:"max_drawdown_ratio"`
	MaxDrawdownStartTS int64          `json:"max_drawdown_start_ts"`
	MaxDrawdownEndTS   int64          `json:"max_drawdown_end_ts"`
	TotalFee           float64        `json:"fee"`
	TradeCount         int            `json:"trades_count"`
	Trades             []*order.Trade `json:"trades"`
	Snapshots          []Snapshot     `json:"bt_data"`
}

// barSeries keys bar sets by open timestamp and keeps the key order around
// for ascending and most-recent-first traversal
type barSeries struct {
	index []int64 // ascending open timestamps
	sets  map[int64]map[string]*kline.Bar
}

func newBarSeries() *barSeries {
	return &barSeries{sets: make(map[int64]map[string]*kline.Bar)}
}

func (s *barSeries) add(b *kline.Bar) {
	set, ok := s.sets[b.OpenTime]
	if !ok {
		set = make(map[string]*kline.Bar)
		s.sets[b.OpenTime] = set
		s.index = append(s.index, b.OpenTime)
	}
	set[b.Symbol] = b
}

func (s *barSeries) len() int {
	return len(s.index)
}

// barsBefore returns up to n one minute bars for symbol strictly preceding
// ts, most recent first
func (s *barSeries) barsBefore(symbol string, ts int64, n int) []*kline.Bar {
	out := make([]*kline.Bar, 0, n)
	for i := len(s.index) - 1; i >= 0 && len(out) < n; i-- {
		openTS := s.index[i]
		if openTS >= ts {
			continue
		}
		if b, ok := s.sets[openTS][symbol]; ok {
			out = append(out, b)
		}
	}
	return out
}
