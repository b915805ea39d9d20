package backtester

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/openquant-labs/gocta/common/math"
	"github.com/openquant-labs/gocta/currency"
	"github.com/openquant-labs/gocta/exchanges/kline"
	"github.com/openquant-labs/gocta/log"
)

// precisionSampleSize caps how many early rows fix a symbol's price and
// volume decimal precision; every later value is rounded to it
const precisionSampleSize = 1000

const (
	dateFormat = "2006-01-02"
	minuteMS   = int64(60 * 1000)
	minutesDay = 24 * 60
)

// symbolDataDir returns the directory recorded bars for a canonical symbol
// live under, e.g. <root>/BINANCE/SWAP/ETHUSDT for ETH-USDT-SWAP
func (b *Backtest) symbolDataDir(sym currency.Symbol) string {
	return filepath.Join(b.cfg.DataPath, b.cfg.DataGateway, string(sym.Product), sym.Base+sym.Quote)
}

// loadBarData reads per-day one minute CSV files for every subscribed symbol
// across [start, end] inclusive and fixes each symbol's price and volume
// precision from a sample of early rows. Missing files and short days are
// logged as data integrity warnings, never fatal.
func (b *Backtest) loadBarData(start, end time.Time) (*barSeries, error) {
	series := newBarSeries()
	days := int(end.Sub(start).Hours()/24) + 1
	expected := days * minutesDay

	for _, symbol := range b.symbols {
		sym, err := currency.ParseSymbol(symbol)
		if err != nil {
			return nil, err
		}
		dir := b.symbolDataDir(sym)
		fileStem := sym.Base + sym.Quote

		var loaded int
		pricePrec, volPrec := 0, 0
		for d := 0; d < days; d++ {
			date := start.AddDate(0, 0, d).Format(dateFormat)
			path := filepath.Join(dir, fmt.Sprintf("%s-1m-%s.csv", fileStem, date))
			rows, err := readBarCSV(path)
			if err != nil {
				log.Errorf(log.BackTester, "loading %s: %v", path, err)
				continue
			}
			for i := range rows {
				if loaded < precisionSampleSize {
					if p := math.DecimalPlaces(rows[i].close); p > pricePrec {
						pricePrec = p
					}
					if p := math.DecimalPlaces(rows[i].volume); p > volPrec {
						volPrec = p
					}
				}
				bar, err := rows[i].toBar(symbol, b.cfg.DataGateway)
				if err != nil {
					log.Errorf(log.BackTester, "bad row in %s: %v", path, err)
					continue
				}
				series.add(bar)
				loaded++
			}
		}
		if loaded != expected {
			log.Warnf(log.BackTester, "%s bar count mismatch: expected %v got %v",
				symbol, expected, loaded)
		}
		b.pricePrecision[symbol] = pricePrec
		b.volPrecision[symbol] = volPrec
	}

	sort.Slice(series.index, func(i, j int) bool { return series.index[i] < series.index[j] })
	return series, nil
}

// barRow keeps the raw strings around; precision detection needs them before
// float conversion loses trailing digits
type barRow struct {
	openTime string
	open     string
	high     string
	low      string
	close    string
	volume   string
	turnover string
}

func (r *barRow) toBar(symbol, gatewayName string) (*kline.Bar, error) {
	openTS, err := strconv.ParseInt(r.openTime, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("open_time: %w", err)
	}
	fields := [6]string{r.open, r.high, r.low, r.close, r.volume, r.turnover}
	var vals [6]float64
	for i := range fields {
		if fields[i] == "" {
			continue
		}
		vals[i], err = strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
	}
	return &kline.Bar{
		Symbol:      symbol,
		Exchange:    Name,
		GatewayName: gatewayName,
		OpenTime:    openTS,
		Interval:    kline.OneMin,
		Open:        vals[0],
		High:        vals[1],
		Low:         vals[2],
		Close:       vals[3],
		Volume:      vals[4],
		Turnover:    vals[5],
	}, nil
}

// readBarCSV parses one day file. The header row names the columns; the
// recorder writes at least open_time, open, high, low, close, volume and
// quote_volume.
func readBarCSV(path string) ([]barRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s holds no bar rows", path)
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	for _, required := range []string{"open_time", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%s missing column %q", path, required)
		}
	}

	pick := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	rows := make([]barRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, barRow{
			openTime: pick(record, "open_time"),
			open:     pick(record, "open"),
			high:     pick(record, "high"),
			low:      pick(record, "low"),
			close:    pick(record, "close"),
			volume:   pick(record, "volume"),
			turnover: pick(record, "quote_volume"),
		})
	}
	return rows, nil
}
