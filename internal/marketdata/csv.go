package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jkoestner/folioflex/internal/apperrors"
	"github.com/jkoestner/folioflex/internal/calendar"
	"github.com/jkoestner/folioflex/internal/model"
)

// txColumns are the columns a transaction file must provide. Any further
// columns ride along untouched in the Other map.
var txColumns = []string{"date", "ticker", "type", "units", "cost"}

// dateLayouts are the accepted date formats, tried in order.
var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "2006-01-02 15:04:05"}

// CSVTransactions reads a transaction ledger from a csv file.
type CSVTransactions struct {
	Path string
}

// Transactions loads and parses the file. The header is matched case
// insensitively and the required columns must all be present.
func (s CSVTransactions) Transactions(ctx context.Context) ([]model.Transaction, error) {
	header, records, err := readCSV(s.Path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, txColumns, s.Path)
	if err != nil {
		return nil, err
	}

	txs := make([]model.Transaction, 0, len(records))
	for i, record := range records {
		tx, err := parseTransaction(record, header, cols)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", s.Path, i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func parseTransaction(record []string, header []string, cols map[string]int) (model.Transaction, error) {
	var tx model.Transaction
	var err error

	tx.Date, err = parseDate(record[cols["date"]])
	if err != nil {
		return tx, err
	}
	tx.Ticker = strings.TrimSpace(record[cols["ticker"]])
	tx.Type = model.TransactionType(strings.TrimSpace(record[cols["type"]]))
	tx.Units, err = parseFloat(record[cols["units"]])
	if err != nil {
		return tx, fmt.Errorf("units: %w", err)
	}
	tx.Cost, err = parseFloat(record[cols["cost"]])
	if err != nil {
		return tx, fmt.Errorf("cost: %w", err)
	}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "broker" {
			tx.Broker = strings.TrimSpace(record[i])
			continue
		}
		if _, required := cols[key]; required || i >= len(record) {
			continue
		}
		if tx.Other == nil {
			tx.Other = make(map[string]string)
		}
		tx.Other[key] = strings.TrimSpace(record[i])
	}
	return tx, nil
}

// priceColumns are the columns a price history file must provide. A
// stock_splits column is optional.
var priceColumns = []string{"ticker", "date", "last_price"}

// CSVPrices reads an offline price history from a csv file, for portfolios
// that should not hit a live feed.
type CSVPrices struct {
	Path string
}

// PriceHistory loads the file and returns the rows for the requested tickers
// from minYear onward.
func (s CSVPrices) PriceHistory(ctx context.Context, tickers []string, minYear int) ([]model.PricePoint, error) {
	header, records, err := readCSV(s.Path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, priceColumns, s.Path)
	if err != nil {
		return nil, err
	}
	splitCol := -1
	for i, name := range header {
		if strings.ToLower(strings.TrimSpace(name)) == "stock_splits" {
			splitCol = i
		}
	}

	var points []model.PricePoint
	for i, record := range records {
		ticker := strings.TrimSpace(record[cols["ticker"]])
		if !slices.Contains(tickers, ticker) {
			continue
		}
		date, err := parseDate(record[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", s.Path, i+2, err)
		}
		if date.Year() < minYear {
			continue
		}
		price, err := parseFloat(record[cols["last_price"]])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: last_price: %w", s.Path, i+2, err)
		}
		point := model.PricePoint{Ticker: ticker, Date: date, LastPrice: price}
		if splitCol >= 0 && splitCol < len(record) {
			point.StockSplit, err = parseFloat(record[splitCol])
			if err != nil {
				return nil, fmt.Errorf("%s row %d: stock_splits: %w", s.Path, i+2, err)
			}
		}
		points = append(points, point)
	}
	return points, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return nil, nil, fmt.Errorf("%w: %q must be a .csv file", apperrors.ErrUnsupportedFormat, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrSourceUnreadable, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading header of %q: %v", apperrors.ErrSourceUnreadable, path, err)
	}
	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: reading %q: %v", apperrors.ErrSourceUnreadable, path, err)
		}
		records = append(records, record)
	}
	return header, records, nil
}

func columnIndex(header []string, required []string, path string) (map[string]int, error) {
	cols := make(map[string]int, len(required))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w in %q: %s", apperrors.ErrMissingColumns, path, strings.Join(missing, ", "))
	}
	keep := make(map[string]int, len(required))
	for _, name := range required {
		keep[name] = cols[name]
	}
	return keep, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendar.Midnight(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, nil
	}
	s = strings.TrimPrefix(s, "$")
	return strconv.ParseFloat(s, 64)
}
