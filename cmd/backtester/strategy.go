package main

import (
	"github.com/openquant-labs/gocta/backtester"
	"github.com/openquant-labs/gocta/eventtypes"
	"github.com/openquant-labs/gocta/exchanges/kline"
	"github.com/openquant-labs/gocta/log"
	"github.com/openquant-labs/gocta/strategies/base"
)

const (
	fastPeriod  = 5
	slowPeriod  = 20
	maWindow    = 15 // minutes per candle
	arraySize   = slowPeriod + 1
	orderVolume = 0.1
)

// dualMAStrategy rests a market-crossing limit order whenever the fast moving
// average crosses the slow one: long on a golden cross, flat on a death cross
type dualMAStrategy struct {
	base.Strategy
	gateway *backtester.Backtest
	symbol  string

	fastMA float64
	slowMA float64
	long   bool
}

func newDualMAStrategy(gateway *backtester.Backtest, symbol string) *dualMAStrategy {
	s := &dualMAStrategy{
		Strategy: base.New("dual-ma", map[string][]string{
			gateway.Name(): {symbol},
		}),
		gateway: gateway,
		symbol:  symbol,
	}
	s.SetTopic(gateway.Name(), eventtypes.Bar, nil)
	return s
}

func (s *dualMAStrategy) OnStart() error {
	s.WriteLog("dual moving average strategy starting", log.InfoLvl)
	return nil
}

func (s *dualMAStrategy) OnBar(_, gatewayName, symbol string, b *kline.Bar) {
	arr := s.gateway.GetBarArray(symbol, kline.OneMin, maWindow, arraySize)
	if arr == nil {
		return
	}
	fast, err := arr.GetSimpleMovingAverage(fastPeriod)
	if err != nil {
		s.WriteLog("fast ma: "+err.Error(), log.WarnLvl)
		return
	}
	slow, err := arr.GetSimpleMovingAverage(slowPeriod)
	if err != nil {
		s.WriteLog("slow ma: "+err.Error(), log.WarnLvl)
		return
	}
	s.fastMA, s.slowMA = fast[len(fast)-1], slow[len(slow)-1]

	switch {
	case !s.long && s.fastMA > s.slowMA:
		// cross the book far enough that the next bar fills it
		if id := s.Buy(gatewayName, symbol, b.Close*1.01, orderVolume); id != "" {
			s.long = true
		}
	case s.long && s.fastMA < s.slowMA:
		if id := s.Sell(gatewayName, symbol, b.Close*0.99, orderVolume); id != "" {
			s.long = false
		}
	}
}

// Variables rides along every replay snapshot
func (s *dualMAStrategy) Variables() map[string]interface{} {
	return map[string]interface{}{
		"fast_ma": s.fastMA,
		"slow_ma": s.slowMA,
		"long":    s.long,
	}
}

func (s *dualMAStrategy) OnFinish() {
	s.WriteLog("replay finished", log.InfoLvl)
}
