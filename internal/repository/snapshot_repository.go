package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jkoestner/folioflex/internal/apperrors"
	"github.com/jkoestner/folioflex/internal/model"
)

// SnapshotRepository provides data access methods for the performance_snapshot
// table. Snapshots materialize a performance report for one portfolio, date
// and lookback so repeated reads skip the return solvers.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save stores a performance report, replacing any snapshot for the same
// portfolio, date and lookback.
func (s *SnapshotRepository) Save(portfolio string, date time.Time, lookback string, records []model.PerformanceRecord) error {
	dbTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.Exec(`
		DELETE FROM performance_snapshot
		WHERE portfolio = ? AND date = ? AND lookback = ?
	`, portfolio, date.Format("2006-01-02"), lookback)
	if err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := dbTx.Prepare(`
		INSERT INTO performance_snapshot (portfolio, date, lookback, ticker, record, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal performance record: %w", err)
		}
		_, err = stmt.Exec(
			portfolio,
			date.Format("2006-01-02"),
			lookback,
			rec.Ticker.String(),
			string(data),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot record: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Get retrieves a stored performance report. Returns ErrSnapshotNotFound when
// nothing was materialized for the key.
func (s *SnapshotRepository) Get(portfolio string, date time.Time, lookback string) ([]model.PerformanceRecord, error) {
	rows, err := s.db.Query(`
		SELECT record
		FROM performance_snapshot
		WHERE portfolio = ? AND date = ? AND lookback = ?
		ORDER BY ticker ASC
	`, portfolio, date.Format("2006-01-02"), lookback)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance_snapshot table: %w", err)
	}
	defer rows.Close()

	var records []model.PerformanceRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan performance_snapshot results: %w", err)
		}
		var rec model.PerformanceRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal performance record: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating performance_snapshot table: %w", err)
	}
	if len(records) == 0 {
		return nil, apperrors.ErrSnapshotNotFound
	}
	return records, nil
}

// DeletePortfolio removes all snapshots for a portfolio, used when its ledger
// is refreshed.
func (s *SnapshotRepository) DeletePortfolio(portfolio string) error {
	if _, err := s.db.Exec(`DELETE FROM performance_snapshot WHERE portfolio = ?`, portfolio); err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return nil
}
