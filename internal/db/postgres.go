package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitPostgres initializes a PostgreSQL connection pool and creates the
// submissions table if it does not exist.
func InitPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30
	config.HealthCheckPeriod = time.Minute * 5

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pool, nil
}

// createTables creates the submissions table and its indexes. Column names
// mirror the document field names.
func createTables(ctx context.Context, pool *pgxpool.Pool) error {
	submissionsTable := `
		CREATE TABLE IF NOT EXISTS submissions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			section VARCHAR(20) NOT NULL CHECK (section IN ('memories', 'actions', 'silver', 'news')),
			author TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			credits TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			"eventDate" TEXT NOT NULL DEFAULT '',
			"mediaURL" TEXT NOT NULL DEFAULT '',
			"mediaType" VARCHAR(255) NOT NULL DEFAULT '',
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			"postedAt" TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			CONSTRAINT submissions_media_pair CHECK (("mediaURL" = '') = ("mediaType" = ''))
		);
	`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_submissions_verified_posted ON submissions(verified, "postedAt" DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_section_verified_posted ON submissions(section, verified, "postedAt" DESC);`,
	}

	if _, err := pool.Exec(ctx, submissionsTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	for _, index := range indexes {
		if _, err := pool.Exec(ctx, index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
