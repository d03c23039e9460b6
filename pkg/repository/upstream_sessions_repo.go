package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/reschool/eschool-gateway/pkg/domain"
)

// The gateway holds exactly one upstream session, so the table has a
// single fixed row.
const upstreamSessionRow = 1

// UpstreamSessionsRepository persists the serialized upstream session so a
// restart does not force a fresh login.
type UpstreamSessionsRepository struct {
	db *sql.DB
}

// NewUpstreamSessionsRepository creates a new upstream sessions repository.
func NewUpstreamSessionsRepository(db *sql.DB) *UpstreamSessionsRepository {
	return &UpstreamSessionsRepository{db: db}
}

// Save stores the serialized session, replacing any previous one.
func (r *UpstreamSessionsRepository) Save(ctx context.Context, blob []byte) error {
	query := `
		INSERT INTO upstream_sessions (id, cookies, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET cookies = EXCLUDED.cookies, updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, upstreamSessionRow, string(blob))
	return err
}

// Load retrieves the serialized session persisted by the previous run.
func (r *UpstreamSessionsRepository) Load(ctx context.Context) ([]byte, error) {
	query := `SELECT cookies FROM upstream_sessions WHERE id = $1`

	var blob string
	err := r.db.QueryRowContext(ctx, query, upstreamSessionRow).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotPersisted
	}
	if err != nil {
		return nil, err
	}
	return []byte(blob), nil
}
