package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/reschool/eschool-gateway/pkg/domain"
)

// AccessRecordsRepository handles the token-to-identity bindings issued by
// the verification engine.
type AccessRecordsRepository struct {
	db *sql.DB
}

// NewAccessRecordsRepository creates a new access records repository.
func NewAccessRecordsRepository(db *sql.DB) *AccessRecordsRepository {
	return &AccessRecordsRepository{db: db}
}

// Create persists a new access record.
func (r *AccessRecordsRepository) Create(ctx context.Context, rec *domain.AccessRecord) error {
	query := `
		INSERT INTO verified_users (token, prs_id, device_name, full_name, grade_class, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.Token, rec.PersonID, rec.DeviceName, rec.FullName, rec.GradeClass, rec.CreatedAt,
	)
	return err
}

// GetByToken retrieves the access record behind a token.
func (r *AccessRecordsRepository) GetByToken(ctx context.Context, token string) (*domain.AccessRecord, error) {
	query := `
		SELECT token, prs_id, COALESCE(device_name, ''), COALESCE(full_name, ''), COALESCE(grade_class, ''), created_at
		FROM verified_users
		WHERE token = $1
	`
	rec := &domain.AccessRecord{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rec.Token, &rec.PersonID, &rec.DeviceName, &rec.FullName, &rec.GradeClass, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record behind a token. It reports whether a record
// actually went away so revocation of an unknown token can answer 404.
func (r *AccessRecordsRepository) Delete(ctx context.Context, token string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM verified_users WHERE token = $1`, token)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ListByIdentity retrieves every record owned by an upstream identity,
// newest first. Each record is one registered device.
func (r *AccessRecordsRepository) ListByIdentity(ctx context.Context, personID int64) ([]*domain.AccessRecord, error) {
	query := `
		SELECT token, prs_id, COALESCE(device_name, ''), COALESCE(full_name, ''), COALESCE(grade_class, ''), created_at
		FROM verified_users
		WHERE prs_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AccessRecord
	for rows.Next() {
		rec := &domain.AccessRecord{}
		err := rows.Scan(&rec.Token, &rec.PersonID, &rec.DeviceName, &rec.FullName, &rec.GradeClass, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FilterVerified returns the subset of the given identity ids that own at
// least one access record.
func (r *AccessRecordsRepository) FilterVerified(ctx context.Context, personIDs []int64) ([]int64, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}

	query := `SELECT DISTINCT prs_id FROM verified_users WHERE prs_id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(personIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verified []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		verified = append(verified, id)
	}
	return verified, rows.Err()
}
