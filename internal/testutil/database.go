package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production database schema.
func createTestSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE portfolio_transaction (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio VARCHAR(100) NOT NULL,
			date DATE NOT NULL,
			ticker VARCHAR(20) NOT NULL,
			type VARCHAR(20) NOT NULL,
			units FLOAT NOT NULL,
			cost FLOAT NOT NULL,
			price FLOAT NOT NULL,
			broker VARCHAR(100),
			other TEXT,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX idx_portfolio_transaction_portfolio_date
			ON portfolio_transaction (portfolio, date);

		CREATE TABLE price_history (
			portfolio VARCHAR(100) NOT NULL,
			ticker VARCHAR(20) NOT NULL,
			date DATE NOT NULL,
			last_price FLOAT NOT NULL,
			stock_split FLOAT NOT NULL DEFAULT 0,
			cumulative_split FLOAT NOT NULL DEFAULT 1,
			synthesized BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (portfolio, ticker, date)
		);

		CREATE TABLE performance_snapshot (
			portfolio VARCHAR(100) NOT NULL,
			date DATE NOT NULL,
			lookback VARCHAR(20) NOT NULL DEFAULT '',
			ticker VARCHAR(40) NOT NULL,
			record TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (portfolio, date, lookback, ticker)
		);

		CREATE TABLE setting (
			key VARCHAR(100) NOT NULL PRIMARY KEY,
			value TEXT NOT NULL,
			encrypted BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at DATETIME NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}
