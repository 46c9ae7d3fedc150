package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jkoestner/folioflex/internal/calendar"
	"github.com/jkoestner/folioflex/internal/model"
)

// chartResponse maps the Yahoo Finance chart API response. Only the fields
// the price feed consumes are declared.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Splits map[string]struct {
					Date        int64   `json:"date"`
					Numerator   float64 `json:"numerator"`
					Denominator float64 `json:"denominator"`
				} `json:"splits"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

const chartBaseURL = "https://query1.finance.yahoo.com"

// Yahoo fetches daily closing prices and split events from the Yahoo Finance
// chart API.
type Yahoo struct {
	httpClient *http.Client
	baseURL    string
}

// NewYahoo creates a Yahoo price source with default HTTP settings.
func NewYahoo() *Yahoo {
	return &Yahoo{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    chartBaseURL,
	}
}

// PriceHistory fetches each ticker's daily closes from January 1st of minYear
// through today. Split factors land on their effective date; other dates
// carry a zero split.
func (y *Yahoo) PriceHistory(ctx context.Context, tickers []string, minYear int) ([]model.PricePoint, error) {
	log.Printf("downloading price history for %d tickers from %d", len(tickers), minYear)
	start := time.Date(minYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Now().UTC()

	var points []model.PricePoint
	for _, ticker := range tickers {
		series, err := y.fetchSeries(ctx, ticker, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetching %s history: %w", ticker, err)
		}
		points = append(points, series...)
	}
	return points, nil
}

func (y *Yahoo) fetchSeries(ctx context.Context, ticker string, start, end time.Time) ([]model.PricePoint, error) {
	url := fmt.Sprintf(
		"%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d&events=splits",
		y.baseURL,
		ticker,
		start.Unix(),
		end.Unix(),
	)
	response, err := y.query(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseChart(response, ticker)
}

// parseChart converts a chart API response into price points. Split factors
// land on their effective date; other dates carry a zero split.
func parseChart(response chartResponse, ticker string) ([]model.PricePoint, error) {
	if len(response.Chart.Result) == 0 {
		return nil, fmt.Errorf("no results returned for symbol %s", ticker)
	}
	result := response.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no close prices returned for symbol %s", ticker)
	}
	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("mismatched data lengths for symbol %s", ticker)
	}

	splits := make(map[time.Time]float64)
	for _, split := range result.Events.Splits {
		if split.Denominator == 0 {
			continue
		}
		day := calendar.Midnight(time.Unix(split.Date, 0).UTC())
		splits[day] = split.Numerator / split.Denominator
	}

	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		day := calendar.Midnight(time.Unix(ts, 0).UTC())
		points = append(points, model.PricePoint{
			Ticker:     ticker,
			Date:       day,
			LastPrice:  closes[i],
			StockSplit: splits[day],
		})
	}
	return points, nil
}

func (y *Yahoo) query(ctx context.Context, url string) (chartResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return chartResponse{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return chartResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return chartResponse{}, fmt.Errorf("chart API returned status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return chartResponse{}, err
	}
	var response chartResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return chartResponse{}, err
	}
	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s: %s", response.Chart.Error.Code, response.Chart.Error.Description)
	}
	return response, nil
}
