package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Config holds database connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewDB opens a Postgres connection pool and verifies connectivity.
func NewDB(cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the gateway tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS upstream_sessions (
			id INTEGER PRIMARY KEY,
			cookies TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS verified_users (
			token TEXT PRIMARY KEY,
			prs_id BIGINT NOT NULL,
			device_name TEXT,
			full_name TEXT,
			grade_class TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verified_users_prs_id ON verified_users (prs_id)`,
		`CREATE TABLE IF NOT EXISTS custom_homework (
			id BIGSERIAL PRIMARY KEY,
			author_prs_id BIGINT NOT NULL,
			author_full_name TEXT NOT NULL,
			grade_class TEXT NOT NULL,
			subject TEXT NOT NULL,
			lesson_date DATE NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_custom_homework_class_date ON custom_homework (grade_class, lesson_date)`,
		`CREATE TABLE IF NOT EXISTS custom_homework_files (
			id BIGSERIAL PRIMARY KEY,
			homework_id BIGINT NOT NULL REFERENCES custom_homework (id) ON DELETE CASCADE,
			file_name TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			mime_type TEXT NOT NULL,
			storage_path TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}
