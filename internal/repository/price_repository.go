package repository

import (
	"database/sql"
	"fmt"

	"github.com/jkoestner/folioflex/internal/model"
)

// PriceRepository provides data access methods for the price_history table.
// Each portfolio stores the merged series its engine was built from, including
// the synthesized fund and cash rows.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// ReplacePortfolio swaps a portfolio's stored price history for the given
// points in one database transaction.
func (s *PriceRepository) ReplacePortfolio(portfolio string, points []model.PricePoint) error {
	dbTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM price_history WHERE portfolio = ?`, portfolio); err != nil {
		return fmt.Errorf("failed to clear price history: %w", err)
	}

	stmt, err := dbTx.Prepare(`
		INSERT INTO price_history
			(portfolio, ticker, date, last_price, stock_split, cumulative_split, synthesized)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare price insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err = stmt.Exec(
			portfolio,
			p.Ticker,
			p.Date.Format("2006-01-02"),
			p.LastPrice,
			p.StockSplit,
			p.CumulativeSplit,
			p.Synthesized,
		)
		if err != nil {
			return fmt.Errorf("failed to insert price point: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price history: %w", err)
	}
	return nil
}

// GetByPortfolio retrieves a portfolio's stored price history, newest first.
func (s *PriceRepository) GetByPortfolio(portfolio string) ([]model.PricePoint, error) {
	rows, err := s.db.Query(`
		SELECT ticker, date, last_price, stock_split, cumulative_split, synthesized
		FROM price_history
		WHERE portfolio = ?
		ORDER BY ticker ASC, date DESC
	`, portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to query price_history table: %w", err)
	}
	defer rows.Close()

	var points []model.PricePoint
	for rows.Next() {
		var dateStr string
		var p model.PricePoint

		err := rows.Scan(&p.Ticker, &dateStr, &p.LastPrice, &p.StockSplit, &p.CumulativeSplit, &p.Synthesized)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price_history results: %w", err)
		}
		p.Date, err = ParseTime(dateStr)
		if err != nil || p.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_history table: %w", err)
	}
	return points, nil
}
