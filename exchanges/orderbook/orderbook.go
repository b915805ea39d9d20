package orderbook

// Level is one price level of a depth snapshot
type Level struct {
	Price  float64
	Amount float64
}

// Depth is an order book snapshot. Asks ascend in price, bids descend.
type Depth struct {
	Symbol    string
	Exchange  string
	Timestamp int64 // ms
	Asks      []Level
	Bids      []Level
}

// BestAsk returns the lowest ask if one exists
func (d *Depth) BestAsk() (Level, bool) {
	if len(d.Asks) == 0 {
		return Level{}, false
	}
	return d.Asks[0], true
}

// BestBid returns the highest bid if one exists
func (d *Depth) BestBid() (Level, bool) {
	if len(d.Bids) == 0 {
		return Level{}, false
	}
	return d.Bids[0], true
}
