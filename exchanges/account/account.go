package account

// Asset holds one asset balance. Total is available plus frozen.
type Asset struct {
	Name      string
	Total     float64
	Available float64
}

// Position holds the net exposure for one symbol. AvgPrice is nil exactly
// when NetQty is zero.
type Position struct {
	Symbol   string
	NetQty   float64
	AvgPrice *float64
}

// Flat reports whether the position carries no exposure
func (p *Position) Flat() bool {
	return p == nil || p.NetQty == 0
}

// Copy returns a detached copy so ledger internals cannot be mutated through
// query results
func (p *Position) Copy() *Position {
	if p == nil {
		return nil
	}
	c := &Position{Symbol: p.Symbol, NetQty: p.NetQty}
	if p.AvgPrice != nil {
		avg := *p.AvgPrice
		c.AvgPrice = &avg
	}
	return c
}

// Holdings is a read only projection of gateway account state at query time
type Holdings struct {
	Exchange    string
	GatewayName string
	Assets      map[string]Asset
	Positions   map[string]*Position
}
