package backtester

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/openquant-labs/gocta/common/math"
	"github.com/openquant-labs/gocta/log"
)

// calculateReport derives the run statistics from the trade list and the
// snapshot buffer. Computed exactly once, at replay end.
func (b *Backtest) calculateReport() *Report {
	id, err := uuid.NewV4()
	if err != nil {
		log.Errorf(log.BackTester, "report id: %v", err)
	}

	initialCash := b.cfg.InitialCash.InexactFloat64()
	pnl := b.ledger.accountValue - initialCash
	pnlRatio := decimal.NewFromFloat(pnl / initialCash * 100).Round(2).InexactFloat64()

	timestamps := make([]int64, len(b.snapshots))
	values := make([]float64, len(b.snapshots))
	for i := range b.snapshots {
		timestamps[i] = b.snapshots[i].TS
		values[i] = b.snapshots[i].AccountValue
	}

	sharpe := math.CalculateSharpeRatio(dailyReturns(timestamps, values))
	sharpe = decimal.NewFromFloat(sharpe).Round(2).InexactFloat64()
	drawdown := math.CalculateMaxDrawdown(timestamps, values)

	return &Report{
		ID:                 id,
		Start:              b.cfg.Start,
		End:                b.cfg.End,
		InitialCash:        initialCash,
		AccountValue:       b.ledger.accountValue,
		PnL:                pnl,
		PnLRatio:           pnlRatio,
		SharpeRatio:        sharpe,
		MaxDrawdownRatio:   drawdown.Ratio,
		MaxDrawdownStartTS: drawdown.StartTS,
		MaxDrawdownEndTS:   drawdown.EndTS,
		TotalFee:           b.ledger.totalFees(),
		TradeCount:         len(b.trades),
		Trades:             b.trades,
		Snapshots:          b.snapshots,
	}
}

// dailyReturns builds the percentage change series over the first account
// value of each UTC calendar day
func dailyReturns(timestamps []int64, values []float64) []float64 {
	var firsts []float64
	lastDay := ""
	for i := range timestamps {
		day := time.UnixMilli(timestamps[i]).UTC().Format("2006-01-02")
		if day != lastDay {
			firsts = append(firsts, values[i])
			lastDay = day
		}
	}

	if len(firsts) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(firsts)-1)
	for i := 1; i < len(firsts); i++ {
		if firsts[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (firsts[i]-firsts[i-1])/firsts[i-1])
	}
	return returns
}
