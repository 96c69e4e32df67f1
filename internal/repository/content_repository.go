package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godilite/urbanscore/internal/repository/models"
)

var ErrContentNotFound = errors.New("neighborhood content not found")

type ContentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Migrate creates the content table if it does not exist.
func (r *ContentRepository) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS neighborhood_content (
			name        TEXT NOT NULL PRIMARY KEY COLLATE NOCASE,
			description TEXT NOT NULL DEFAULT '',
			strengths   TEXT NOT NULL DEFAULT '[]',
			weaknesses  TEXT NOT NULL DEFAULT '[]',
			updated_at  TEXT NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate neighborhood_content: %w", err)
	}
	return nil
}

// GetByName looks content up by neighborhood name, ignoring case and surrounding spaces.
func (r *ContentRepository) GetByName(ctx context.Context, name string) (models.NeighborhoodContent, error) {
	const query = `
		SELECT name, description, strengths, weaknesses, updated_at
		FROM neighborhood_content
		WHERE name = ?
	`

	var (
		c                     models.NeighborhoodContent
		strengths, weaknesses string
		updatedAt             string
	)
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(name)).
		Scan(&c.Name, &c.Description, &strengths, &weaknesses, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NeighborhoodContent{}, ErrContentNotFound
	}
	if err != nil {
		return models.NeighborhoodContent{}, fmt.Errorf("query GetByName: %w", err)
	}

	if err := json.Unmarshal([]byte(strengths), &c.Strengths); err != nil {
		return models.NeighborhoodContent{}, fmt.Errorf("decode strengths of %q: %w", c.Name, err)
	}
	if err := json.Unmarshal([]byte(weaknesses), &c.Weaknesses); err != nil {
		return models.NeighborhoodContent{}, fmt.Errorf("decode weaknesses of %q: %w", c.Name, err)
	}
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return c, nil
}

// Upsert inserts c or replaces the content stored under the same name.
func (r *ContentRepository) Upsert(ctx context.Context, c models.NeighborhoodContent) error {
	return upsert(ctx, r.db, c)
}

// Seed loads DefaultContent in a single transaction and returns the number of rows written.
func (r *ContentRepository) Seed(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	content := DefaultContent()
	for _, c := range content {
		if err := upsert(ctx, tx, c); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(content), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, c models.NeighborhoodContent) error {
	const query = `
		INSERT INTO neighborhood_content (name, description, strengths, weaknesses, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			strengths   = excluded.strengths,
			weaknesses  = excluded.weaknesses,
			updated_at  = excluded.updated_at
	`

	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("upsert content: name must not be empty")
	}

	strengths, err := encodeList(c.Strengths)
	if err != nil {
		return fmt.Errorf("encode strengths of %q: %w", name, err)
	}
	weaknesses, err := encodeList(c.Weaknesses)
	if err != nil {
		return fmt.Errorf("encode weaknesses of %q: %w", name, err)
	}

	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	if _, err := db.ExecContext(ctx, query, name, c.Description, strengths, weaknesses,
		updatedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upsert content %q: %w", name, err)
	}
	return nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	return string(b), err
}
