package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/persistence/database"
	"github.com/helderdigital/engage-go/pkg/config"
)

// SQLStateStore persists engine state documents in a single key-value table.
type SQLStateStore struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLStateStore creates the store and ensures its table exists.
func NewSQLStateStore(db *database.DB, logger *logging.ChanneledLogger) (*SQLStateStore, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS engine_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create engine_state table: %w", err)
	}

	return &SQLStateStore{db: db, logger: logger}, nil
}

// Load retrieves the JSON document stored under key.
func (s *SQLStateStore) Load(key string) (json.RawMessage, bool, error) {
	const query = `SELECT value FROM engine_state WHERE key = ?`

	start := time.Now()
	s.logger.Database().Debug("Loading state record", "key", key)

	var value string
	err := s.db.QueryRow(query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			s.logger.Database().Debug("State record not found", "key", key, "duration", time.Since(start))
			return nil, false, nil
		}
		s.logger.Database().Error("Failed to load state record", "error", err.Error(), "key", key)
		return nil, false, err
	}

	duration := time.Since(start)
	s.logger.Database().Debug("State record loaded", "key", key, "bytes", len(value), "duration", duration)
	if duration > config.SlowQueryThreshold {
		s.logger.LogSlowQuery(query, duration)
	}
	return json.RawMessage(value), true, nil
}

// Save writes a JSON-serializable value under key, replacing any prior value.
func (s *SQLStateStore) Save(key string, value any) error {
	const query = `
		INSERT INTO engine_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	start := time.Now()

	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Database().Error("Failed to marshal state record", "error", err.Error(), "key", key)
		return err
	}

	_, err = s.db.Exec(query, key, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		s.logger.Database().Error("State record write failed", "error", err.Error(), "key", key)
		return err
	}

	duration := time.Since(start)
	s.logger.Database().Debug("State record written", "key", key, "bytes", len(payload), "duration", duration)
	if duration > config.SlowQueryThreshold {
		s.logger.LogSlowQuery(query, duration)
	}
	return nil
}
