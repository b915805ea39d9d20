package engine

import (
	"fmt"
	"runtime/debug"

	"github.com/openquant-labs/gocta/exchanges"
	"github.com/openquant-labs/gocta/exchanges/account"
	"github.com/openquant-labs/gocta/exchanges/order"
	"github.com/openquant-labs/gocta/log"
)

// gateway command delegation. Failures inside a gateway call, errors and
// panics alike, are logged with a trace and converted to a neutral value:
// empty id, false or nil. They are never re-raised to the strategy.

func (e *Engine) lookup(gatewayName string) (exchanges.Gateway, error) {
	g, ok := e.gateways[gatewayName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownGateway, gatewayName)
	}
	return g, nil
}

func (e *Engine) guard(op, gatewayName string) {
	if r := recover(); r != nil {
		log.Errorf(log.EngineMgr, "%s %s panic: %v\n%s", op, gatewayName, r, debug.Stack())
	}
}

// SendOrder delegates to the named gateway, returning the order id or an
// empty string on any failure
func (e *Engine) SendOrder(gatewayName, symbol string, side order.Side, offset order.Offset, price, amount float64) (id string) {
	defer e.guard("send order", gatewayName)
	g, err := e.lookup(gatewayName)
	if err != nil {
		log.Errorf(log.EngineMgr, "send order: %v", err)
		return ""
	}
	id, err = g.SendOrder(symbol, side, offset, price, amount)
	if err != nil {
		log.Errorf(log.EngineMgr, "send order %s failed: %v; symbol %s side %s offset %s price %v amount %v",
			gatewayName, err, symbol, side, offset, price, amount)
		return ""
	}
	return id
}

// CancelOrder delegates to the named gateway, returning false on any failure
func (e *Engine) CancelOrder(gatewayName, symbol, orderID string) (ok bool) {
	defer e.guard("cancel order", gatewayName)
	g, err := e.lookup(gatewayName)
	if err != nil {
		log.Errorf(log.EngineMgr, "cancel order: %v", err)
		return false
	}
	ok, err = g.CancelOrder(symbol, orderID)
	if err != nil {
		log.Errorf(log.EngineMgr, "cancel order %s failed: %v; symbol %s order %s",
			gatewayName, err, symbol, orderID)
		return false
	}
	return ok
}

// QueryOrder delegates to the named gateway, returning nil on any failure
func (e *Engine) QueryOrder(gatewayName, symbol, orderID string) (o *order.Detail) {
	defer e.guard("query order", gatewayName)
	g, err := e.lookup(gatewayName)
	if err != nil {
		log.Errorf(log.EngineMgr, "query order: %v", err)
		return nil
	}
	o, err = g.QueryOrder(symbol, orderID)
	if err != nil {
		log.Errorf(log.EngineMgr, "query order %s failed: %v; symbol %s order %s",
			gatewayName, err, symbol, orderID)
		return nil
	}
	return o
}

// QueryActiveOrders delegates to the named gateway, returning nil on any
// failure
func (e *Engine) QueryActiveOrders(gatewayName, symbol string) (orders []*order.Detail) {
	defer e.guard("query active orders", gatewayName)
	g, err := e.lookup(gatewayName)
	if err != nil {
		log.Errorf(log.EngineMgr, "query active orders: %v", err)
		return nil
	}
	orders, err = g.QueryActiveOrders(symbol)
	if err != nil {
		log.Errorf(log.EngineMgr, "query active orders %s failed: %v; symbol %s",
			gatewayName, err, symbol)
		return nil
	}
	return orders
}

// QueryAccount delegates to the named gateway, returning nil on any failure
func (e *Engine) QueryAccount(gatewayName string) (h *account.Holdings) {
	defer e.guard("query account", gatewayName)
	g, err := e.lookup(gatewayName)
	if err != nil {
		log.Errorf(log.EngineMgr, "query account: %v", err)
		return nil
	}
	h, err = g.QueryAccount()
	if err != nil {
		log.Errorf(log.EngineMgr, "query account %s failed: %v", gatewayName, err)
		return nil
	}
	return h
}

// QueryPosition delegates to the named gateway, returning nil on any failure
func (e *Engine) QueryPosition(gatewayName, symbol string) (p *account.Position) {
	defer e.guard("query position", gatewayName)
	g, err := e.lookup(gatewayName)
	if err != nil {
		log.Errorf(log.EngineMgr, "query position: %v", err)
		return nil
	}
	p, err = g.QueryPosition(symbol)
	if err != nil {
		log.Errorf(log.EngineMgr, "query position %s failed: %v; symbol %s",
			gatewayName, err, symbol)
		return nil
	}
	return p
}

// WriteLog records a log entry attributed to its source subsystem
func (e *Engine) WriteLog(msg string, lvl log.Level, source string) {
	if source != "" {
		msg = source + ": " + msg
	}
	log.WriteLevel(log.EngineMgr, lvl, msg)
}
