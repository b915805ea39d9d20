package base

import (
	"time"

	"github.com/openquant-labs/gocta/eventtypes"
	"github.com/openquant-labs/gocta/exchanges/account"
	"github.com/openquant-labs/gocta/exchanges/kline"
	"github.com/openquant-labs/gocta/exchanges/order"
	"github.com/openquant-labs/gocta/exchanges/orderbook"
	"github.com/openquant-labs/gocta/log"
	"github.com/openquant-labs/gocta/strategies"
)

// Strategy supplies the command helpers and default no-op callbacks so a
// concrete strategy only overrides what it reacts to
type Strategy struct {
	name          string
	commander     strategies.Commander
	clock         func() int64
	subscriptions map[string][]string
	topics        map[string]map[eventtypes.Type]map[string]interface{}
}

// New returns base plumbing for a named strategy with its per gateway
// subscription set
func New(name string, subscriptions map[string][]string) Strategy {
	return Strategy{
		name:          name,
		clock:         func() int64 { return time.Now().UnixMilli() },
		subscriptions: subscriptions,
		topics:        make(map[string]map[eventtypes.Type]map[string]interface{}),
	}
}

// Name returns the strategy name
func (s *Strategy) Name() string { return s.name }

// Subscriptions returns the gateway to symbol subscription map
func (s *Strategy) Subscriptions() map[string][]string { return s.subscriptions }

// Topics returns the requested public data topics per gateway
func (s *Strategy) Topics() map[string]map[eventtypes.Type]map[string]interface{} {
	return s.topics
}

// Variables is empty by default; strategies expose state they want recorded
// in backtest snapshots by overriding it
func (s *Strategy) Variables() map[string]interface{} { return nil }

// SetCommander wires the engine command surface; called on registration
func (s *Strategy) SetCommander(c strategies.Commander) { s.commander = c }

// SetClock overrides the timestamp source; the backtest engine installs its
// virtual clock here
func (s *Strategy) SetClock(clock func() int64) { s.clock = clock }

// SetTopic requests a public data topic on a gateway
func (s *Strategy) SetTopic(gatewayName string, t eventtypes.Type, params map[string]interface{}) {
	if s.topics[gatewayName] == nil {
		s.topics[gatewayName] = make(map[eventtypes.Type]map[string]interface{})
	}
	s.topics[gatewayName][t] = params
}

// GetTS returns the current 13 digit millisecond timestamp from the active
// clock source
func (s *Strategy) GetTS() int64 { return s.clock() }

// Buy opens long exposure, or simply buys on one way venues
func (s *Strategy) Buy(gatewayName, symbol string, price, amount float64) string {
	return s.commander.SendOrder(gatewayName, symbol, order.Long, order.Open, price, amount)
}

// Sell closes long exposure, or simply sells on one way venues
func (s *Strategy) Sell(gatewayName, symbol string, price, amount float64) string {
	return s.commander.SendOrder(gatewayName, symbol, order.Short, order.Close, price, amount)
}

// Short opens short exposure
func (s *Strategy) Short(gatewayName, symbol string, price, amount float64) string {
	return s.commander.SendOrder(gatewayName, symbol, order.Short, order.Open, price, amount)
}

// Cover closes short exposure
func (s *Strategy) Cover(gatewayName, symbol string, price, amount float64) string {
	return s.commander.SendOrder(gatewayName, symbol, order.Long, order.Close, price, amount)
}

// CancelOrder cancels an active order
func (s *Strategy) CancelOrder(gatewayName, symbol, orderID string) bool {
	return s.commander.CancelOrder(gatewayName, symbol, orderID)
}

// QueryOrder returns the order or nil
func (s *Strategy) QueryOrder(gatewayName, symbol, orderID string) *order.Detail {
	return s.commander.QueryOrder(gatewayName, symbol, orderID)
}

// QueryActiveOrders returns all active orders for the symbol
func (s *Strategy) QueryActiveOrders(gatewayName, symbol string) []*order.Detail {
	return s.commander.QueryActiveOrders(gatewayName, symbol)
}

// QueryAccount returns the gateway account projection or nil
func (s *Strategy) QueryAccount(gatewayName string) *account.Holdings {
	return s.commander.QueryAccount(gatewayName)
}

// QueryPosition returns the symbol position or nil
func (s *Strategy) QueryPosition(gatewayName, symbol string) *account.Position {
	return s.commander.QueryPosition(gatewayName, symbol)
}

// WriteLog records a strategy sourced log entry
func (s *Strategy) WriteLog(msg string, lvl log.Level) {
	s.commander.WriteLog(msg, lvl, s.name)
}

// OnOrder is a no-op unless overridden
func (s *Strategy) OnOrder(_, _, _ string, _ *order.Detail) {}

// OnTrade is a no-op unless overridden
func (s *Strategy) OnTrade(_, _, _ string, _ *order.Trade) {}

// OnDepth is a no-op unless overridden
func (s *Strategy) OnDepth(_, _, _ string, _ *orderbook.Depth) {}

// OnBar is a no-op unless overridden
func (s *Strategy) OnBar(_, _, _ string, _ *kline.Bar) {}

// OnFinish is a no-op unless overridden
func (s *Strategy) OnFinish() {}
