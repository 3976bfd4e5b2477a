package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	models "io.winapps.memorialboard/internal/models/board"
)

// Postgres is an EntryStore backed by the submissions table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an initialized pool. Tables are created by db.InitPostgres.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const entryColumns = `id::text, section, author, email, credits, title, content, "eventDate", "mediaURL", "mediaType", verified, "postedAt"`

var pgColumns = map[string]string{
	FieldSection:  "section",
	FieldVerified: "verified",
	FieldPostedAt: `"postedAt"`,
	"author":      "author",
	"mediaType":   `"mediaType"`,
}

func (p *Postgres) Create(ctx context.Context, entry models.Entry) (string, error) {
	query := `
		INSERT INTO submissions (section, author, email, credits, title, content, "eventDate", "mediaURL", "mediaType", verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id::text
	`
	var id string
	err := p.pool.QueryRow(ctx, query,
		string(entry.Section),
		entry.Author,
		entry.Email,
		entry.Credits,
		entry.Title,
		entry.Content,
		entry.EventDate,
		entry.MediaURL,
		entry.MediaType,
		entry.Verified,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert submission: %w", err)
	}
	return id, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM submissions WHERE id::text = $1`
	e, err := scanEntry(p.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}
	return e, nil
}

func (p *Postgres) Query(ctx context.Context, q Query) ([]models.Entry, error) {
	conditions := []string{}
	args := []interface{}{}
	for _, f := range q.Filters {
		col, ok := pgColumns[f.Field]
		if !ok {
			return nil, fmt.Errorf("unsupported filter field %q", f.Field)
		}
		value := f.Value
		if s, isSection := value.(models.Section); isSection {
			value = string(s)
		}
		args = append(args, value)
		conditions = append(conditions, col+" = $"+strconv.Itoa(len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + entryColumns + ` FROM submissions`)
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	if q.OrderBy != "" {
		col, ok := pgColumns[q.OrderBy]
		if !ok {
			return nil, fmt.Errorf("unsupported order field %q", q.OrderBy)
		}
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		sb.WriteString(" ORDER BY " + col + " " + dir + ", id")
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	rows, err := p.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	entries := make([]models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read submission: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (p *Postgres) Update(ctx context.Context, id string, update models.EntryUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	updateFields := []string{}
	args := []interface{}{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		updateFields = append(updateFields, col+" = $"+strconv.Itoa(len(args)))
	}
	if update.Author != nil {
		add("author", *update.Author)
	}
	if update.Credits != nil {
		add("credits", *update.Credits)
	}
	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Content != nil {
		add("content", *update.Content)
	}
	if update.EventDate != nil {
		add(`"eventDate"`, *update.EventDate)
	}
	if update.Section != nil {
		add("section", string(*update.Section))
	}
	if update.Verified != nil {
		add("verified", *update.Verified)
	}
	args = append(args, id)

	query := `UPDATE submissions SET ` + strings.Join(updateFields, ", ") +
		` WHERE id::text = $` + strconv.Itoa(len(args))
	result, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	result, err := p.pool.Exec(ctx, `DELETE FROM submissions WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEntry(row pgx.Row) (*models.Entry, error) {
	var (
		e        models.Entry
		section  string
		postedAt *time.Time
	)
	if err := row.Scan(
		&e.ID,
		&section,
		&e.Author,
		&e.Email,
		&e.Credits,
		&e.Title,
		&e.Content,
		&e.EventDate,
		&e.MediaURL,
		&e.MediaType,
		&e.Verified,
		&postedAt,
	); err != nil {
		return nil, err
	}
	e.Section = models.Section(section)
	e.PostedAt = postedAt
	return &e, nil
}
