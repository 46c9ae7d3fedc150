package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
)

// SettingsRepository provides data access methods for the setting table.
// Sensitive values such as the API key are fernet-encrypted at rest; plain
// values are stored as-is.
type SettingsRepository struct {
	db  *sql.DB
	key *fernet.Key
}

// NewSettingsRepository creates a new SettingsRepository. The fernet key is
// optional; without it SetEncrypted and encrypted reads fail.
func NewSettingsRepository(db *sql.DB, fernetKey string) (*SettingsRepository, error) {
	repo := &SettingsRepository{db: db}
	if fernetKey != "" {
		key, err := fernet.DecodeKey(fernetKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode fernet key: %w", err)
		}
		repo.key = key
	}
	return repo, nil
}

// Set stores a plain setting value.
func (s *SettingsRepository) Set(key, value string) error {
	return s.upsert(key, value, false)
}

// SetEncrypted stores a setting value encrypted with the fernet key.
func (s *SettingsRepository) SetEncrypted(key, value string) error {
	if s.key == nil {
		return fmt.Errorf("no fernet key configured, cannot store %q encrypted", key)
	}
	token, err := fernet.EncryptAndSign([]byte(value), s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt setting %q: %w", key, err)
	}
	return s.upsert(key, string(token), true)
}

// Get retrieves a setting value, decrypting it if it was stored encrypted.
// Returns sql.ErrNoRows when the key does not exist.
func (s *SettingsRepository) Get(key string) (string, error) {
	var value string
	var encrypted bool
	err := s.db.QueryRow(`SELECT value, encrypted FROM setting WHERE key = ?`, key).
		Scan(&value, &encrypted)
	if err != nil {
		return "", err
	}
	if !encrypted {
		return value, nil
	}
	if s.key == nil {
		return "", fmt.Errorf("setting %q is encrypted but no fernet key is configured", key)
	}
	plain := fernet.VerifyAndDecrypt([]byte(value), 0, []*fernet.Key{s.key})
	if plain == nil {
		return "", fmt.Errorf("failed to decrypt setting %q", key)
	}
	return string(plain), nil
}

func (s *SettingsRepository) upsert(key, value string, encrypted bool) error {
	_, err := s.db.Exec(`
		INSERT INTO setting (key, value, encrypted, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			encrypted = excluded.encrypted,
			updated_at = excluded.updated_at
	`, key, value, encrypted, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store setting %q: %w", key, err)
	}
	return nil
}
