package currency

import (
	"errors"
	"fmt"
	"strings"
)

// Product defines the instrument class carried by a canonical symbol
type Product string

// Supported product classes
const (
	Spot    Product = "SPOT"
	Margin  Product = "MARGIN"
	Swap    Product = "SWAP"
	Futures Product = "FUTURES"
	Option  Product = "OPTION"
)

const delimiter = "-"

var (
	// ErrSymbolInvalid is returned when a symbol does not follow the
	// BASE-QUOTE-TYPE or BASE-QUOTE-TYPE-EXPIRY convention
	ErrSymbolInvalid = errors.New("invalid canonical symbol")

	errProductInvalid = errors.New("invalid product for symbol arity")
)

// Symbol is the venue independent instrument identifier
// BASE-QUOTE-TYPE for SPOT/MARGIN/SWAP and BASE-QUOTE-TYPE-EXPIRY for
// FUTURES/OPTION
type Symbol struct {
	Base    string
	Quote   string
	Product Product
	Expiry  string
}

// ParseSymbol converts a canonical symbol string into its parts
func ParseSymbol(symbol string) (Symbol, error) {
	parts := strings.Split(symbol, delimiter)
	switch len(parts) {
	case 3:
		p := Product(strings.ToUpper(parts[2]))
		if p != Spot && p != Margin && p != Swap {
			return Symbol{}, fmt.Errorf("%w: %q %v", ErrSymbolInvalid, symbol, errProductInvalid)
		}
		return Symbol{
			Base:    strings.ToUpper(parts[0]),
			Quote:   strings.ToUpper(parts[1]),
			Product: p,
		}, nil
	case 4:
		p := Product(strings.ToUpper(parts[2]))
		if p != Futures && p != Option {
			return Symbol{}, fmt.Errorf("%w: %q %v", ErrSymbolInvalid, symbol, errProductInvalid)
		}
		return Symbol{
			Base:    strings.ToUpper(parts[0]),
			Quote:   strings.ToUpper(parts[1]),
			Product: p,
			Expiry:  parts[3],
		}, nil
	default:
		return Symbol{}, fmt.Errorf("%w: %q", ErrSymbolInvalid, symbol)
	}
}

// IsValidSymbol reports whether the supplied string parses as a canonical
// symbol
func IsValidSymbol(symbol string) bool {
	_, err := ParseSymbol(symbol)
	return err == nil
}

// QuoteAsset returns the quote asset of a canonical symbol, the asset fees
// accrue in. Returns an empty string for a malformed symbol.
func QuoteAsset(symbol string) string {
	s, err := ParseSymbol(symbol)
	if err != nil {
		return ""
	}
	return s.Quote
}

// String implements the stringer interface
func (s Symbol) String() string {
	if s.Expiry != "" {
		return strings.Join([]string{s.Base, s.Quote, string(s.Product), s.Expiry}, delimiter)
	}
	return strings.Join([]string{s.Base, s.Quote, string(s.Product)}, delimiter)
}
