package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jkoestner/folioflex/internal/apperrors"
	"github.com/jkoestner/folioflex/internal/calendar"
	"github.com/jkoestner/folioflex/internal/config"
	"github.com/jkoestner/folioflex/internal/marketdata"
	"github.com/jkoestner/folioflex/internal/model"
	"github.com/jkoestner/folioflex/internal/portfolio"
	"github.com/jkoestner/folioflex/internal/repository"
)

// PortfolioService owns the portfolio engines and their persistence. It
// rebuilds the engines from the configured sources, stores the resulting
// ledgers and price series, and serves reports with a materialized snapshot
// fast path for performance reads.
type PortfolioService struct {
	entries   []config.PortfolioEntry
	prices    *marketdata.Cache
	txRepo    *repository.TransactionRepository
	priceRepo *repository.PriceRepository
	snapshots *repository.SnapshotRepository

	mu      sync.RWMutex
	manager *portfolio.Manager
}

// NewPortfolioService creates a new PortfolioService. Refresh must be called
// before any report method.
func NewPortfolioService(
	entries []config.PortfolioEntry,
	prices *marketdata.Cache,
	txRepo *repository.TransactionRepository,
	priceRepo *repository.PriceRepository,
	snapshots *repository.SnapshotRepository,
) *PortfolioService {
	return &PortfolioService{
		entries:   entries,
		prices:    prices,
		txRepo:    txRepo,
		priceRepo: priceRepo,
		snapshots: snapshots,
	}
}

// Refresh rebuilds every portfolio from its sources and persists the
// normalized ledgers and price histories. Stored snapshots are dropped since
// they no longer match the new data.
func (s *PortfolioService) Refresh(ctx context.Context) error {
	managerEntries := make([]portfolio.ManagerEntry, len(s.entries))
	for i, entry := range s.entries {
		me := portfolio.ManagerEntry{
			Config:       entry.Config,
			Transactions: marketdata.CSVTransactions{Path: entry.TxFile},
		}
		if entry.HistoryOffline != "" {
			me.Prices = marketdata.CSVPrices{Path: entry.HistoryOffline}
		}
		managerEntries[i] = me
	}

	s.prices.Reset()
	manager, err := portfolio.NewManager(ctx, managerEntries, s.prices)
	if err != nil {
		return fmt.Errorf("failed to build portfolios: %w", err)
	}

	for _, p := range manager.Portfolios() {
		if err := s.txRepo.ReplacePortfolio(p.Name(), p.Transactions()); err != nil {
			return err
		}
		if err := s.priceRepo.ReplacePortfolio(p.Name(), p.PriceHistory()); err != nil {
			return err
		}
		if err := s.snapshots.DeletePortfolio(p.Name()); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.manager = manager
	s.mu.Unlock()
	log.Printf("refreshed %d portfolios", len(s.entries))
	return nil
}

// Manager returns the current portfolio manager.
func (s *PortfolioService) Manager() (*portfolio.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manager == nil {
		return nil, errors.New("portfolios have not been built yet")
	}
	return s.manager, nil
}

// Portfolios returns the names of the managed portfolios.
func (s *PortfolioService) Portfolios() ([]string, error) {
	manager, err := s.Manager()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, p := range manager.Portfolios() {
		names = append(names, p.Name())
	}
	return names, nil
}

// Performance returns a portfolio's performance report, reading a stored
// snapshot when one exists and materializing one otherwise. A zero date means
// the portfolio's latest history date.
func (s *PortfolioService) Performance(name string, date time.Time, lookback string) ([]model.PerformanceRecord, error) {
	manager, err := s.Manager()
	if err != nil {
		return nil, err
	}
	p, err := manager.Portfolio(name)
	if err != nil {
		return nil, err
	}

	key := date
	if key.IsZero() {
		key = p.MaxDate()
	} else {
		key = calendar.Midnight(key)
		if !calendar.IsTradingDay(key) {
			key = calendar.PreviousTradingDay(key)
		}
	}

	if records, err := s.snapshots.Get(name, key, lookback); err == nil {
		return records, nil
	} else if !errors.Is(err, apperrors.ErrSnapshotNotFound) {
		log.Printf("WARN: snapshot read for %q failed: %v", name, err)
	}

	records, err := p.Performance(date, lookback)
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.Save(name, key, lookback, records); err != nil {
		log.Printf("WARN: snapshot write for %q failed: %v", name, err)
	}
	return records, nil
}

// Transactions returns a portfolio's normalized ledger.
func (s *PortfolioService) Transactions(name string) ([]model.Transaction, error) {
	p, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return p.Transactions(), nil
}

// TransactionsHistory returns a portfolio's full derived history.
func (s *PortfolioService) TransactionsHistory(name string) ([]model.HistoryRow, error) {
	p, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return p.TransactionsHistory(), nil
}

// View returns a metric pivot for one portfolio.
func (s *PortfolioService) View(name, metric, lookback string) ([]portfolio.ViewRow, error) {
	p, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return p.View(metric, lookback)
}

// ReturnPcts returns the per-ticker return percentages for one portfolio.
func (s *PortfolioService) ReturnPcts(name string, date time.Time, lookback string) (map[string]model.ReturnPcts, error) {
	p, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return p.ReturnPcts(date, lookback)
}

// ChecksFailed returns how many ledger checks warned for one portfolio.
func (s *PortfolioService) ChecksFailed(name string) (int, error) {
	p, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	return p.ChecksFailed(), nil
}

// Summary returns the cross-portfolio summary.
func (s *PortfolioService) Summary(date time.Time, lookbacks []string) ([]portfolio.SummaryRow, error) {
	manager, err := s.Manager()
	if err != nil {
		return nil, err
	}
	return manager.Summary(date, lookbacks)
}

// ManagerView returns a metric pivot across all portfolios.
func (s *PortfolioService) ManagerView(metric string) ([]portfolio.ManagerViewRow, error) {
	manager, err := s.Manager()
	if err != nil {
		return nil, err
	}
	return manager.View(metric)
}

func (s *PortfolioService) lookup(name string) (*portfolio.Portfolio, error) {
	manager, err := s.Manager()
	if err != nil {
		return nil, err
	}
	return manager.Portfolio(name)
}
