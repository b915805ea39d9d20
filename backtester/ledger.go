package backtester

import (
	"github.com/openquant-labs/gocta/common/math"
	"github.com/openquant-labs/gocta/currency"
	"github.com/openquant-labs/gocta/exchanges/account"
	"github.com/openquant-labs/gocta/exchanges/order"
)

// ledger owns cash, fees and positions for one run. Fills and mark to market
// go through it so the NetQty/AvgPrice coherence holds in exactly one place.
type ledger struct {
	cash         float64
	accountValue float64
	fees         map[string]float64 // quote asset -> accrued fee
	positions    map[string]*account.Position
	upnl         map[string]float64
}

func newLedger(initialCash float64) *ledger {
	return &ledger{
		cash:         initialCash,
		accountValue: initialCash,
		fees:         make(map[string]float64),
		positions:    make(map[string]*account.Position),
		upnl:         make(map[string]float64),
	}
}

// applyFill books one binary fill: cash moves by price*volume, the fee
// accrues against the symbol's quote asset, and the position is upserted by
// signed cost weighted averaging. volPrecision bounds the accumulated
// quantity so repeated fills cannot drift.
func (l *ledger) applyFill(t *order.Trade, feeRate float64, volPrecision int) {
	signed := t.Volume
	if t.Side == order.Short {
		signed = -t.Volume
	}

	if t.Side == order.Long {
		l.cash -= t.Price * t.Volume
	} else {
		l.cash += t.Price * t.Volume
	}
	l.fees[currency.QuoteAsset(t.Symbol)] += t.Price * t.Volume * feeRate

	pos := l.positions[t.Symbol]
	if pos == nil {
		avg := t.Price
		l.positions[t.Symbol] = &account.Position{
			Symbol:   t.Symbol,
			NetQty:   signed,
			AvgPrice: &avg,
		}
		return
	}

	oldQty := pos.NetQty
	pos.NetQty = math.RoundFloat(pos.NetQty+signed, volPrecision)
	if pos.NetQty == 0 {
		pos.AvgPrice = nil
		return
	}
	if pos.AvgPrice == nil {
		// reopening a flat position takes exactly the new fill price
		avg := t.Price
		pos.AvgPrice = &avg
		return
	}
	avg := *pos.AvgPrice*oldQty + t.Price*signed
	avg /= pos.NetQty
	if avg < 0 {
		avg = -avg
	}
	pos.AvgPrice = &avg
}

// markToMarket recomputes unrealised pnl per symbol against the supplied
// close prices and refreshes the account value:
// cash + Σ netQty·close − Σ fees
func (l *ledger) markToMarket(closes map[string]float64) {
	var positionValue float64
	for symbol, pos := range l.positions {
		close, ok := closes[symbol]
		if !ok {
			continue
		}
		if pos.NetQty != 0 && pos.AvgPrice != nil {
			l.upnl[symbol] = (close - *pos.AvgPrice) * pos.NetQty
		} else {
			l.upnl[symbol] = 0
		}
		positionValue += pos.NetQty * close
	}
	l.accountValue = l.cash + positionValue - l.totalFees()
}

func (l *ledger) totalFees() float64 {
	var sum float64
	for _, fee := range l.fees {
		sum += fee
	}
	return sum
}

// position returns a detached copy, or nil when the symbol has never traded
func (l *ledger) position(symbol string) *account.Position {
	return l.positions[symbol].Copy()
}

// snapshot freezes the ledger into one report buffer row
func (l *ledger) snapshot(ts int64, closes map[string]float64, variables map[string]interface{}) Snapshot {
	positions := make(map[string]account.Position, len(l.positions))
	for symbol, pos := range l.positions {
		positions[symbol] = *pos.Copy()
	}
	upnl := make(map[string]float64, len(l.upnl))
	for symbol, v := range l.upnl {
		upnl[symbol] = v
	}
	fees := make(map[string]float64, len(l.fees))
	for asset, v := range l.fees {
		fees[asset] = v
	}
	return Snapshot{
		TS:           ts,
		Positions:    positions,
		UnrealisedPL: upnl,
		Fees:         fees,
		Cash:         l.cash,
		AccountValue: l.accountValue,
		Closes:       closes,
		Variables:    variables,
	}
}
