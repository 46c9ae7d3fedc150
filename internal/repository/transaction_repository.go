package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jkoestner/folioflex/internal/model"
)

// TransactionRepository provides data access methods for the
// portfolio_transaction table. It persists each portfolio's normalized ledger
// so rebuilds and audits do not have to re-read the source files.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// ReplacePortfolio swaps a portfolio's stored ledger for the given
// transactions in one database transaction.
func (s *TransactionRepository) ReplacePortfolio(portfolio string, txs []model.Transaction) error {
	dbTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM portfolio_transaction WHERE portfolio = ?`, portfolio); err != nil {
		return fmt.Errorf("failed to clear portfolio transactions: %w", err)
	}

	stmt, err := dbTx.Prepare(`
		INSERT INTO portfolio_transaction
			(id, portfolio, date, ticker, type, units, cost, price, broker, other, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, tx := range txs {
		other := ""
		if len(tx.Other) > 0 {
			data, err := json.Marshal(tx.Other)
			if err != nil {
				return fmt.Errorf("failed to marshal other fields: %w", err)
			}
			other = string(data)
		}
		_, err = stmt.Exec(
			uuid.New().String(),
			portfolio,
			tx.Date.Format("2006-01-02"),
			tx.Ticker,
			tx.Type,
			tx.Units,
			tx.Cost,
			tx.Price,
			tx.Broker,
			other,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

// GetByPortfolio retrieves a portfolio's stored ledger, newest first.
func (s *TransactionRepository) GetByPortfolio(portfolio string) ([]model.Transaction, error) {
	rows, err := s.db.Query(`
		SELECT date, ticker, type, units, cost, price, broker, other
		FROM portfolio_transaction
		WHERE portfolio = ?
		ORDER BY date DESC, ticker ASC
	`, portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_transaction table: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var dateStr, other string
		var broker sql.NullString
		var tx model.Transaction

		err := rows.Scan(&dateStr, &tx.Ticker, &tx.Type, &tx.Units, &tx.Cost, &tx.Price, &broker, &other)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_transaction results: %w", err)
		}
		tx.Date, err = ParseTime(dateStr)
		if err != nil || tx.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		tx.Broker = broker.String
		if other != "" {
			if err := json.Unmarshal([]byte(other), &tx.Other); err != nil {
				return nil, fmt.Errorf("failed to unmarshal other fields: %w", err)
			}
		}
		txs = append(txs, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_transaction table: %w", err)
	}
	return txs, nil
}
