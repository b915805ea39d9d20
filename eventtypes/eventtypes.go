package eventtypes

// Type is the closed enumeration of event kinds that cross the engine queue
type Type string

// Event kinds
const (
	Depth       Type = "depth"
	Trade       Type = "trade"
	Order       Type = "order"
	Bar         Type = "bar"
	BacktestEnd Type = "backtestend"
)

// Event is the uniform envelope pushed by gateways and consumed by the
// dispatch loop. Ownership of Payload passes to the consumer.
type Event struct {
	Type        Type
	Exchange    string
	GatewayName string
	Symbol      string
	Payload     interface{}
}
