package engine

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/openquant-labs/gocta/currency"
	"github.com/openquant-labs/gocta/eventtypes"
	"github.com/openquant-labs/gocta/exchanges"
	"github.com/openquant-labs/gocta/exchanges/kline"
	"github.com/openquant-labs/gocta/exchanges/order"
	"github.com/openquant-labs/gocta/exchanges/orderbook"
	"github.com/openquant-labs/gocta/log"
	"github.com/openquant-labs/gocta/signaler"
	"github.com/openquant-labs/gocta/strategies"
)

var (
	errNoStrategy      = errors.New("no strategy registered")
	errNoSubscriptions = errors.New("no gateway has a non-empty subscription set")
	errUnknownGateway  = errors.New("unknown gateway")
)

// exit is swapped out in tests so the shutdown hook can be exercised
var exit = os.Exit

// Replayer is the optional capability a gateway exposes when it drives the
// run itself, pacing the dispatch loop bar by bar instead of the engine
// blocking on the queue
type Replayer interface {
	Replay() error
}

// Engine owns the process wide event queue, the strategy instance and the
// gateway registry, and serialises all event consumption onto one goroutine
type Engine struct {
	strategy     strategies.Strategy
	gateways     map[string]exchanges.Gateway
	gatewayOrder []string
	queue        *eventQueue
	handlers     map[eventtypes.Type]func(eventtypes.Event)

	// open timestamp of the most recent bar handed to the strategy,
	// consumed by replay pacing
	watermark int64

	finishOnce sync.Once
}

// New returns an engine with its static handler table populated
func New() *Engine {
	e := &Engine{
		gateways: make(map[string]exchanges.Gateway),
		queue:    newEventQueue(),
	}
	e.handlers = map[eventtypes.Type]func(eventtypes.Event){
		eventtypes.Depth:       e.onDepth,
		eventtypes.Trade:       e.onTrade,
		eventtypes.Order:       e.onOrder,
		eventtypes.Bar:         e.onBar,
		eventtypes.BacktestEnd: e.onBacktestEnd,
	}
	return e
}

// AddGateway registers a gateway and wires the engine back reference
func (e *Engine) AddGateway(g exchanges.Gateway) {
	g.SetSink(e)
	e.gateways[g.Name()] = g
	e.gatewayOrder = append(e.gatewayOrder, g.Name())
}

// AddStrategy registers the strategy and wires the command surface
func (e *Engine) AddStrategy(s strategies.Strategy) {
	e.strategy = s
	s.SetCommander(e)
}

// Strategy returns the registered strategy
func (e *Engine) Strategy() strategies.Strategy {
	return e.strategy
}

// PutEvent enqueues an event; non blocking and safe from any producer
// goroutine
func (e *Engine) PutEvent(evt eventtypes.Event) {
	e.queue.push(evt)
}

// Watermark returns the open timestamp of the last processed bar
func (e *Engine) Watermark() int64 {
	return e.watermark
}

// Start validates the configuration, connects gateways and runs the
// dispatch loop. Validation failures are fatal and returned before any event
// is processed; everything after that only surfaces through the log.
func (e *Engine) Start() error {
	if e.strategy == nil {
		return errNoStrategy
	}

	go e.watchInterrupt()

	if err := e.strategy.OnStart(); err != nil {
		return fmt.Errorf("strategy %s on start: %w", e.strategy.Name(), err)
	}

	subs := e.strategy.Subscriptions()
	var retained []string
	for _, name := range e.gatewayOrder {
		symbols := subs[name]
		if len(symbols) == 0 {
			delete(e.gateways, name)
			log.Warnf(log.EngineMgr, "gateway %s has no subscribed symbols, dropping it", name)
			continue
		}
		for _, s := range symbols {
			if _, err := currency.ParseSymbol(s); err != nil {
				return fmt.Errorf("gateway %s subscription: %w", name, err)
			}
		}
		retained = append(retained, name)
	}
	if len(retained) == 0 {
		return errNoSubscriptions
	}

	for _, name := range retained {
		if err := e.gateways[name].Connect(subs[name]); err != nil {
			log.Errorf(log.EngineMgr, "gateway %s connect failed: %v", name, err)
		}
	}

	for _, name := range retained {
		if r, ok := e.gateways[name].(Replayer); ok {
			log.Infof(log.EngineMgr, "replay gateway %s drives the run", name)
			return r.Replay()
		}
	}

	log.Info(log.EngineMgr, "event dispatch loop started")
	for {
		e.dispatch(e.queue.pop())
	}
}

// ProcessPending synchronously drains every queued event. Replay pacing
// calls this so the strategy's reaction to a bar fully settles before the
// ledger snapshot is taken.
func (e *Engine) ProcessPending() {
	for {
		evt, ok := e.queue.tryPop()
		if !ok {
			return
		}
		e.dispatch(evt)
	}
}

func (e *Engine) dispatch(evt eventtypes.Event) {
	handler, ok := e.handlers[evt.Type]
	if !ok {
		log.Errorf(log.EngineMgr, "no handler for event type %q", evt.Type)
		return
	}
	handler(evt)
}

// subscribed reports whether the strategy asked for this symbol on this
// gateway; events outside the subscription set are dropped silently
func (e *Engine) subscribed(gatewayName, symbol string) bool {
	for _, s := range e.strategy.Subscriptions()[gatewayName] {
		if s == symbol {
			return true
		}
	}
	return false
}

func (e *Engine) safeCall(callback string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf(log.EngineMgr, "%s panic in strategy %s: %v\n%s",
				callback, e.strategy.Name(), r, debug.Stack())
		}
	}()
	fn()
}

func (e *Engine) onDepth(evt eventtypes.Event) {
	if !e.subscribed(evt.GatewayName, evt.Symbol) {
		return
	}
	d, ok := evt.Payload.(*orderbook.Depth)
	if !ok {
		log.Errorf(log.EngineMgr, "depth event carried %T", evt.Payload)
		return
	}
	e.safeCall("on depth", func() {
		e.strategy.OnDepth(evt.Exchange, evt.GatewayName, evt.Symbol, d)
	})
}

func (e *Engine) onOrder(evt eventtypes.Event) {
	if !e.subscribed(evt.GatewayName, evt.Symbol) {
		return
	}
	o, ok := evt.Payload.(*order.Detail)
	if !ok {
		log.Errorf(log.EngineMgr, "order event carried %T", evt.Payload)
		return
	}
	e.safeCall("on order", func() {
		e.strategy.OnOrder(evt.Exchange, evt.GatewayName, evt.Symbol, o)
	})
}

func (e *Engine) onTrade(evt eventtypes.Event) {
	if !e.subscribed(evt.GatewayName, evt.Symbol) {
		return
	}
	t, ok := evt.Payload.(*order.Trade)
	if !ok {
		log.Errorf(log.EngineMgr, "trade event carried %T", evt.Payload)
		return
	}
	e.safeCall("on trade", func() {
		e.strategy.OnTrade(evt.Exchange, evt.GatewayName, evt.Symbol, t)
	})
	// every fill is recorded regardless of what the strategy does with it
	log.Infof(log.EngineMgr, "trade event done; %s %s %s %v@%v order %s",
		evt.GatewayName, evt.Symbol, t.Side, t.Volume, t.Price, t.OrderID)
}

func (e *Engine) onBar(evt eventtypes.Event) {
	b, ok := evt.Payload.(*kline.Bar)
	if !ok {
		log.Errorf(log.EngineMgr, "bar event carried %T", evt.Payload)
		return
	}
	if e.subscribed(evt.GatewayName, evt.Symbol) {
		e.safeCall("on bar", func() {
			e.strategy.OnBar(evt.Exchange, evt.GatewayName, evt.Symbol, b)
		})
	}
	e.watermark = b.OpenTime
}

func (e *Engine) onBacktestEnd(evt eventtypes.Event) {
	log.Infof(log.EngineMgr, "replay finished on gateway %s", evt.GatewayName)
	e.finishOnce.Do(func() {
		e.safeCall("on finish", e.strategy.OnFinish)
	})
}

// watchInterrupt runs the one shot shutdown hook: OnFinish exactly once,
// then immediate process exit with no draining of in flight events
func (e *Engine) watchInterrupt() {
	sig := <-signaler.WaitForInterrupt()
	log.Warnf(log.EngineMgr, "captured %v, shutting down", sig)
	e.finishOnce.Do(e.strategy.OnFinish)
	exit(0)
}
