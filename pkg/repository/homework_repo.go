package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/reschool/eschool-gateway/pkg/domain"
)

// HomeworkRepository handles class-shared homework entries and their
// attachment metadata.
type HomeworkRepository struct {
	db *sql.DB
}

// NewHomeworkRepository creates a new homework repository.
func NewHomeworkRepository(db *sql.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// Create persists a homework entry and returns its assigned id.
func (r *HomeworkRepository) Create(ctx context.Context, hw *domain.Homework) (int64, error) {
	query := `
		INSERT INTO custom_homework (author_prs_id, author_full_name, grade_class, subject, lesson_date, text)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		hw.AuthorPersonID, hw.AuthorFullName, hw.GradeClass, hw.Subject, hw.LessonDate, hw.Text,
	).Scan(&hw.ID, &hw.CreatedAt, &hw.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return hw.ID, nil
}

// GetByID retrieves a homework entry without its files.
func (r *HomeworkRepository) GetByID(ctx context.Context, id int64) (*domain.Homework, error) {
	query := `
		SELECT id, author_prs_id, author_full_name, grade_class, subject, lesson_date, text, created_at, updated_at
		FROM custom_homework
		WHERE id = $1
	`
	hw := &domain.Homework{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&hw.ID, &hw.AuthorPersonID, &hw.AuthorFullName, &hw.GradeClass,
		&hw.Subject, &hw.LessonDate, &hw.Text, &hw.CreatedAt, &hw.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrHomeworkNotFound
	}
	if err != nil {
		return nil, err
	}
	return hw, nil
}

// ListByClass retrieves homework for a grade class, optionally bounded by
// lesson date, newest lesson first. Files are attached to each entry.
func (r *HomeworkRepository) ListByClass(ctx context.Context, gradeClass string, from, to *time.Time) ([]*domain.Homework, error) {
	query := `
		SELECT id, author_prs_id, author_full_name, grade_class, subject, lesson_date, text, created_at, updated_at
		FROM custom_homework
		WHERE grade_class = $1
	`
	args := []any{gradeClass}
	if from != nil {
		args = append(args, *from)
		query += ` AND lesson_date >= $2`
	}
	if to != nil {
		args = append(args, *to)
		if from != nil {
			query += ` AND lesson_date <= $3`
		} else {
			query += ` AND lesson_date <= $2`
		}
	}
	query += ` ORDER BY lesson_date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Homework
	for rows.Next() {
		hw := &domain.Homework{}
		err := rows.Scan(
			&hw.ID, &hw.AuthorPersonID, &hw.AuthorFullName, &hw.GradeClass,
			&hw.Subject, &hw.LessonDate, &hw.Text, &hw.CreatedAt, &hw.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, hw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, hw := range entries {
		files, err := r.ListFiles(ctx, hw.ID)
		if err != nil {
			return nil, err
		}
		hw.Files = files
	}
	return entries, nil
}

// UpdateText replaces the text of a homework entry.
func (r *HomeworkRepository) UpdateText(ctx context.Context, id int64, text string) error {
	query := `UPDATE custom_homework SET text = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, text)
	return err
}

// Delete removes a homework entry; attachment rows go with it via cascade.
func (r *HomeworkRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM custom_homework WHERE id = $1`, id)
	return err
}

// AddFile persists attachment metadata and returns its assigned id.
func (r *HomeworkRepository) AddFile(ctx context.Context, f *domain.HomeworkFile) (int64, error) {
	query := `
		INSERT INTO custom_homework_files (homework_id, file_name, file_size, mime_type, storage_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		f.HomeworkID, f.FileName, f.FileSize, f.MimeType, f.StoragePath,
	).Scan(&f.ID)
	if err != nil {
		return 0, err
	}
	return f.ID, nil
}

// GetFile retrieves one attachment row.
func (r *HomeworkRepository) GetFile(ctx context.Context, fileID int64) (*domain.HomeworkFile, error) {
	query := `
		SELECT id, homework_id, file_name, file_size, mime_type, storage_path
		FROM custom_homework_files
		WHERE id = $1
	`
	f := &domain.HomeworkFile{}
	err := r.db.QueryRowContext(ctx, query, fileID).Scan(
		&f.ID, &f.HomeworkID, &f.FileName, &f.FileSize, &f.MimeType, &f.StoragePath,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListFiles retrieves the attachment rows of a homework entry.
func (r *HomeworkRepository) ListFiles(ctx context.Context, homeworkID int64) ([]domain.HomeworkFile, error) {
	query := `
		SELECT id, homework_id, file_name, file_size, mime_type, storage_path
		FROM custom_homework_files
		WHERE homework_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, homeworkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []domain.HomeworkFile
	for rows.Next() {
		var f domain.HomeworkFile
		err := rows.Scan(&f.ID, &f.HomeworkID, &f.FileName, &f.FileSize, &f.MimeType, &f.StoragePath)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// CountFiles returns how many attachments a homework entry has.
func (r *HomeworkRepository) CountFiles(ctx context.Context, homeworkID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM custom_homework_files WHERE homework_id = $1`, homeworkID,
	).Scan(&count)
	return count, err
}

// DeleteFile removes one attachment row scoped to its homework entry.
func (r *HomeworkRepository) DeleteFile(ctx context.Context, fileID, homeworkID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM custom_homework_files WHERE id = $1 AND homework_id = $2`, fileID, homeworkID)
	return err
}
