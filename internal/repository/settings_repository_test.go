package repository

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/fernet/fernet-go"

	"github.com/jkoestner/folioflex/internal/testutil"
)

func testFernetKey(t *testing.T) string {
	t.Helper()
	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("generating fernet key: %v", err)
	}
	return key.Encode()
}

func TestSettingsRepositoryPlain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo, err := NewSettingsRepository(db, "")
	if err != nil {
		t.Fatalf("NewSettingsRepository: %v", err)
	}

	if err := repo.Set("refresh_schedule", "0 18 * * MON-FRI"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := repo.Get("refresh_schedule")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "0 18 * * MON-FRI" {
		t.Errorf("value = %q", got)
	}

	// Upsert overwrites.
	if err := repo.Set("refresh_schedule", "@daily"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = repo.Get("refresh_schedule")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "@daily" {
		t.Errorf("value after upsert = %q", got)
	}
}

func TestSettingsRepositoryEncrypted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo, err := NewSettingsRepository(db, testFernetKey(t))
	if err != nil {
		t.Fatalf("NewSettingsRepository: %v", err)
	}

	if err := repo.SetEncrypted("api_key", "s3cret"); err != nil {
		t.Fatalf("SetEncrypted: %v", err)
	}
	got, err := repo.Get("api_key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("decrypted value = %q", got)
	}

	// The stored value must not be the plaintext.
	var raw string
	if err := db.QueryRow(`SELECT value FROM setting WHERE key = 'api_key'`).Scan(&raw); err != nil {
		t.Fatalf("reading raw value: %v", err)
	}
	if strings.Contains(raw, "s3cret") {
		t.Error("value stored in plaintext")
	}
}

func TestSettingsRepositoryEncryptedWithoutKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo, err := NewSettingsRepository(db, "")
	if err != nil {
		t.Fatalf("NewSettingsRepository: %v", err)
	}
	if err := repo.SetEncrypted("api_key", "s3cret"); err == nil {
		t.Error("SetEncrypted should fail without a fernet key")
	}
}

func TestSettingsRepositoryMissingKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo, err := NewSettingsRepository(db, "")
	if err != nil {
		t.Fatalf("NewSettingsRepository: %v", err)
	}
	if _, err := repo.Get("absent"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestSettingsRepositoryBadFernetKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	if _, err := NewSettingsRepository(db, "not-a-key"); err == nil {
		t.Error("expected an error for an undecodable fernet key")
	}
}

func TestParseTime(t *testing.T) {
	d, err := ParseTime("2023-01-10")
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if !d.Equal(testutil.Day("2023-01-10")) {
		t.Errorf("date = %v", d)
	}

	d, err = ParseTime("2023-01-10T15:04:05Z")
	if err != nil {
		t.Fatalf("ParseTime RFC3339: %v", err)
	}
	if d.Year() != 2023 {
		t.Errorf("rfc3339 date = %v", d)
	}

	if _, err := ParseTime("10 Jan 2023"); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}
