package config

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	errStartAfterEnd  = errors.New("start date occurs after end date")
	errBadDate        = errors.New("date is not in YYYY-MM-DD form")
	errBadInitialCash = errors.New("initial cash must be positive")
	errBadFeeRate     = errors.New("fee rate cannot be negative")
	errBadSlippage    = errors.New("slippage fraction cannot be negative")
	errBadPreheat     = errors.New("preheat days cannot be negative")
	errNoDataPath     = errors.New("data path unset")
	errNoDataGateway  = errors.New("data gateway unset")
	errFileNotFound   = errors.New("config file not found")
)

// Config fully determines a reproducible backtest run
type Config struct {
	Start       string          `json:"start"` // YYYY-MM-DD, inclusive
	End         string          `json:"end"`   // YYYY-MM-DD, inclusive
	InitialCash decimal.Decimal `json:"initial-cash"`
	DataPath    string          `json:"data-path"`
	// DataGateway names the venue whose recorded bars are replayed and the
	// directory they live under
	DataGateway string          `json:"data-gateway"`
	PreheatDays int             `json:"preheat-days"`
	FeeRate     decimal.Decimal `json:"fee-rate"`
	Slippage    decimal.Decimal `json:"slippage"`
}
