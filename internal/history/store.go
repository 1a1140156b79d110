// internal/history/store.go
package history

import (
	"context"
	"database/sql"
	"time"

	apperrors "ai-ml-service/internal/common/errors"
	"ai-ml-service/internal/common/logger"
)

const createTableQuery = `
CREATE TABLE IF NOT EXISTS query_history (
	id              BIGSERIAL PRIMARY KEY,
	operation       VARCHAR(64) NOT NULL,
	organization_id VARCHAR(128),
	user_id         VARCHAR(128),
	query           TEXT,
	confidence      DOUBLE PRECISION NOT NULL,
	provenance      VARCHAR(32) NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const insertEntryQuery = `
INSERT INTO query_history (operation, organization_id, user_id, query, confidence, provenance, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const recentByOrgQuery = `
SELECT operation, organization_id, user_id, query, confidence, provenance, created_at
FROM query_history
WHERE organization_id = $1
ORDER BY created_at DESC
LIMIT $2`

// Entry is one processed pipeline invocation.
type Entry struct {
	Operation      string    `json:"operation"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Query          string    `json:"query,omitempty"`
	Confidence     float64   `json:"confidence"`
	Provenance     string    `json:"provenance"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists processed-query history in Postgres.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db: db,
		logger: log.With(map[string]interface{}{
			"component": "history-store",
		}),
	}
}

// Migrate creates the history table if it does not exist. Called once during
// process bootstrap.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableQuery); err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

// Record inserts one history entry.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, insertEntryQuery,
		entry.Operation,
		entry.OrganizationID,
		entry.UserID,
		entry.Query,
		entry.Confidence,
		entry.Provenance,
		createdAt,
	)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError(err)
	}
	return nil
}

// RecentByOrganization returns the most recent entries for one organization.
func (s *Store) RecentByOrganization(ctx context.Context, organizationID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, recentByOrgQuery, organizationID, limit)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Operation, &e.OrganizationID, &e.UserID, &e.Query, &e.Confidence, &e.Provenance, &e.CreatedAt); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(err)
	}

	return entries, nil
}
