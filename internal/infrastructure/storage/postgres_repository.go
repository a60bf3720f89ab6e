package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"TrendPress/internal/domain"
	"TrendPress/internal/ports"
)

const outcomesTable = "publish_outcomes"

const schema = `CREATE TABLE IF NOT EXISTS publish_outcomes (
    id           BIGSERIAL PRIMARY KEY,
    trend        TEXT NOT NULL,
    news_title   TEXT NOT NULL,
    news_url     TEXT NOT NULL DEFAULT '',
    title        TEXT NOT NULL DEFAULT '',
    tags         TEXT[] NOT NULL DEFAULT '{}',
    stage        TEXT NOT NULL,
    success      BOOLEAN NOT NULL,
    post_id      BIGINT,
    error        TEXT NOT NULL DEFAULT '',
    error_kind   TEXT NOT NULL DEFAULT '',
    processed_at TIMESTAMPTZ NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var (
	psql           = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	outcomeColumns = []string{
		"trend", "news_title", "news_url", "title", "tags", "stage",
		"success", "post_id", "error", "error_kind", "processed_at",
	}
)

// PostgresRepository keeps publish outcomes in Postgres for history.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.OutcomeRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the outcomes table when it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveOutcome appends one outcome row.
func (r *PostgresRepository) SaveOutcome(ctx context.Context, outcome domain.Outcome) error {
	if r.db == nil {
		return nil
	}

	query, args, err := insertOutcomeQuery(outcome)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// RecentOutcomes returns the newest outcomes first.
func (r *PostgresRepository) RecentOutcomes(ctx context.Context, limit int) ([]domain.Outcome, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := recentOutcomesQuery(limit)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}

	var result []domain.Outcome
	for rows.Next() {
		var (
			o      domain.Outcome
			tags   pq.StringArray
			stage  string
			postID sql.NullInt64
		)
		if err := rows.Scan(
			&o.Trend, &o.NewsTitle, &o.NewsURL, &o.Title, &tags, &stage,
			&o.Result.Success, &postID, &o.Result.Error, &o.Result.ErrorKind, &o.ProcessedAt,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Tags = []string(tags)
		o.Stage = domain.Stage(stage)
		if postID.Valid {
			o.Result.PostID = int(postID.Int64)
		}
		result = append(result, o)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func insertOutcomeQuery(o domain.Outcome) (string, []interface{}, error) {
	var postID interface{}
	if o.Result.PostID != 0 {
		postID = int64(o.Result.PostID)
	}

	return psql.Insert(outcomesTable).
		Columns(outcomeColumns...).
		Values(
			o.Trend, o.NewsTitle, o.NewsURL, o.Title, tagsValue(o.Tags), string(o.Stage),
			o.Result.Success, postID, o.Result.Error, o.Result.ErrorKind, o.ProcessedAt,
		).
		ToSql()
}

// tagsValue keeps the tags column non-null; a nil pq.StringArray encodes as NULL.
func tagsValue(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}

func recentOutcomesQuery(limit int) (string, []interface{}, error) {
	if limit <= 0 {
		limit = 50
	}
	return psql.Select(outcomeColumns...).
		From(outcomesTable).
		OrderBy("processed_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
}
