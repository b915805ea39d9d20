package exchanges

import (
	"github.com/openquant-labs/gocta/eventtypes"
	"github.com/openquant-labs/gocta/exchanges/account"
	"github.com/openquant-labs/gocta/exchanges/order"
)

// EventSink is what a gateway needs from the engine to publish updates. The
// sink is safe to call from any gateway goroutine.
type EventSink interface {
	PutEvent(eventtypes.Event)
}

// Gateway is the capability contract every market data and execution source
// satisfies, live venue adapters and the backtest engine alike. Adapters own
// canonical to venue native symbol translation and mapping venue payloads
// into the shared data model. Query methods return nil or empty values on
// failure rather than propagating venue faults past the boundary.
type Gateway interface {
	// Name returns the registry key for this gateway instance
	Name() string
	// Exchange returns the venue identity events are stamped with
	Exchange() string
	// SetSink wires the engine back reference; called on registration
	SetSink(EventSink)
	// Connect subscribes the supplied canonical symbols. Private account
	// channels must be subscribed before public market data channels.
	Connect(symbols []string) error
	// SendOrder places a limit order, returning the venue order id or an
	// empty string
	SendOrder(symbol string, side order.Side, offset order.Offset, price, amount float64) (string, error)
	// CancelOrder cancels an active order, reporting whether the order was
	// found
	CancelOrder(symbol, orderID string) (bool, error)
	QueryOrder(symbol, orderID string) (*order.Detail, error)
	QueryActiveOrders(symbol string) ([]*order.Detail, error)
	QueryAccount() (*account.Holdings, error)
	QueryPosition(symbol string) (*account.Position, error)
}
