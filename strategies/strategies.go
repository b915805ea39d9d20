package strategies

import (
	"github.com/openquant-labs/gocta/eventtypes"
	"github.com/openquant-labs/gocta/exchanges/account"
	"github.com/openquant-labs/gocta/exchanges/kline"
	"github.com/openquant-labs/gocta/exchanges/order"
	"github.com/openquant-labs/gocta/exchanges/orderbook"
	"github.com/openquant-labs/gocta/log"
)

// Commander is the command surface the engine exposes to strategies. Every
// call degrades to a neutral value on gateway failure, strategies never see
// venue faults.
type Commander interface {
	SendOrder(gatewayName, symbol string, side order.Side, offset order.Offset, price, amount float64) string
	CancelOrder(gatewayName, symbol, orderID string) bool
	QueryOrder(gatewayName, symbol, orderID string) *order.Detail
	QueryActiveOrders(gatewayName, symbol string) []*order.Detail
	QueryAccount(gatewayName string) *account.Holdings
	QueryPosition(gatewayName, symbol string) *account.Position
	WriteLog(msg string, lvl log.Level, source string)
}

// Strategy is the handler contract dispatched by the engine. Callbacks run
// on the single dispatch goroutine and must not block indefinitely.
type Strategy interface {
	Name() string
	// Subscriptions maps gateway name to the canonical symbols whose events
	// the strategy receives
	Subscriptions() map[string][]string
	// Topics maps gateway name to the public data topics requested on it
	Topics() map[string]map[eventtypes.Type]map[string]interface{}
	// Variables is snapshotted into every backtest ledger snapshot
	Variables() map[string]interface{}

	SetCommander(Commander)
	SetClock(func() int64)

	OnStart() error
	OnOrder(exchange, gatewayName, symbol string, o *order.Detail)
	OnTrade(exchange, gatewayName, symbol string, t *order.Trade)
	OnDepth(exchange, gatewayName, symbol string, d *orderbook.Depth)
	OnBar(exchange, gatewayName, symbol string, b *kline.Bar)
	OnFinish()
}
