package service

import (
	"database/sql"

	"github.com/jkoestner/folioflex/internal/database"
	"github.com/jkoestner/folioflex/internal/version"
)

// SystemService answers health and version probes.
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService.
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{db: db}
}

// CheckHealth reports whether the database is reachable.
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion returns the running application version.
func (s *SystemService) CheckVersion() string {
	return version.Version
}
