package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jkoestner/folioflex/internal/config"
	"github.com/jkoestner/folioflex/internal/marketdata"
	"github.com/jkoestner/folioflex/internal/model"
	"github.com/jkoestner/folioflex/internal/portfolio"
	"github.com/jkoestner/folioflex/internal/repository"
	"github.com/jkoestner/folioflex/internal/service"
	"github.com/jkoestner/folioflex/internal/testutil"
)

const testAPIKey = "test-api-key"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	txFile := filepath.Join(dir, "transactions.csv")
	if err := os.WriteFile(txFile, []byte(
		"date,ticker,type,units,cost\n"+
			"2023-01-03,Cash,Cash,10000,10000\n"+
			"2023-01-03,AAPL,BUY,10,-1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	priceFile := filepath.Join(dir, "prices.csv")
	if err := os.WriteFile(priceFile, []byte(
		"ticker,date,last_price\n"+
			"AAPL,2023-01-03,100\n"+
			"AAPL,2023-01-04,105\n"+
			"AAPL,2023-01-05,110\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	db := testutil.SetupTestDB(t)
	portfolioService := service.NewPortfolioService(
		[]config.PortfolioEntry{{
			Config:         portfolio.Config{Name: "growth"},
			TxFile:         txFile,
			HistoryOffline: priceFile,
		}},
		marketdata.NewCache(testutil.FailingSource{Err: errors.New("live feed disabled in tests")}),
		repository.NewTransactionRepository(db),
		repository.NewPriceRepository(db),
		repository.NewSnapshotRepository(db),
	)
	if err := portfolioService.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	cfg := &config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}}
	return NewRouter(service.NewSystemService(db), portfolioService, cfg, func() string { return testAPIKey })
}

func doRequest(t *testing.T, router http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/api/system/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestVersionEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/api/system/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["version"] == "" {
		t.Error("version should not be empty")
	}
}

func TestListPortfolios(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/api/portfolios/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body["portfolios"]) != 1 || body["portfolios"][0] != "growth" {
		t.Errorf("portfolios = %v", body["portfolios"])
	}
}

func TestPerformanceEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/api/portfolios/growth/performance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var records []model.PerformanceRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("expected performance records")
	}
}

func TestPerformanceEndpointErrors(t *testing.T) {
	router := newTestRouter(t)
	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown portfolio", "/api/portfolios/missing/performance", http.StatusNotFound},
		{"bad date", "/api/portfolios/growth/performance?date=yesterday", http.StatusBadRequest},
		{"bad lookback", "/api/portfolios/growth/performance?lookback=quarter", http.StatusBadRequest},
		{"date before history", "/api/portfolios/growth/performance?date=2019-01-02", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, tc.path, nil)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestViewEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/api/portfolios/growth/view", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/api/portfolios/growth/view?metric=velocity", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown metric status = %d", rec.Code)
	}
}

func TestTransactionsAndHistoryEndpoints(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{
		"/api/portfolios/growth/transactions",
		"/api/portfolios/growth/returns",
		"/api/portfolios/growth/checks",
	} {
		rec := doRequest(t, router, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, body %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestHistoryEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/api/portfolios/growth/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// The history carries NaN metrics on the portfolio rows; the payload
	// must still be complete, valid JSON with those mapped to null.
	var rows []model.HistoryRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected history rows")
	}
	sawPortfolio := false
	for _, row := range rows {
		if row.Ticker.Kind == model.KindPortfolio {
			sawPortfolio = true
		}
	}
	if !sawPortfolio {
		t.Error("expected a portfolio row in the history")
	}
}

func TestManagerSummaryEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/api/manager/summary?lookbacks=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var rows []portfolio.SummaryRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(rows) != 1 || rows[0].Portfolio != "growth" {
		t.Errorf("rows = %v", rows)
	}
}

func TestRefreshRequiresAPIKey(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/manager/refresh", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/manager/refresh", map[string]string{"X-API-Key": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/manager/refresh", map[string]string{"X-API-Key": testAPIKey})
	if rec.Code != http.StatusOK {
		t.Errorf("valid key status = %d, body %s", rec.Code, rec.Body.String())
	}
}
