package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grapplehub/grapplehub/models"
)

var ErrSummaryCacheMiss = errors.New("summary cache entry not found")

type SummaryCacheRepository interface {
	Get(ctx context.Context, userID int, summaryType models.SummaryType) (*models.SummaryCacheEntry, error)
	Upsert(ctx context.Context, entry *models.SummaryCacheEntry) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type postgresSummaryCacheRepository struct {
	db *sql.DB
}

func NewPostgresSummaryCacheRepository(db *sql.DB) SummaryCacheRepository {
	return &postgresSummaryCacheRepository{db: db}
}

func (r *postgresSummaryCacheRepository) Get(ctx context.Context, userID int, summaryType models.SummaryType) (*models.SummaryCacheEntry, error) {
	query := `
		SELECT id, user_id, summary_type, summary, content_hash, row_count, expires_at, updated_at
		FROM ai_summary_cache
		WHERE user_id = $1 AND summary_type = $2`

	entry := &models.SummaryCacheEntry{}
	err := r.db.QueryRowContext(ctx, query, userID, summaryType).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.SummaryType,
		&entry.Summary,
		&entry.ContentHash,
		&entry.RowCount,
		&entry.ExpiresAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSummaryCacheMiss
		}
		return nil, fmt.Errorf("failed to scan summary cache entry for user %d type %s: %w", userID, summaryType, err)
	}
	return entry, nil
}

// Upsert пишет кэш по логическому ключу (user_id, summary_type).
// Именно upsert, а не insert: ключ уникален на пользователя и тип сводки.
func (r *postgresSummaryCacheRepository) Upsert(ctx context.Context, entry *models.SummaryCacheEntry) error {
	query := `
		INSERT INTO ai_summary_cache (user_id, summary_type, summary, content_hash, row_count, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, summary_type)
		DO UPDATE SET summary = EXCLUDED.summary,
		              content_hash = EXCLUDED.content_hash,
		              row_count = EXCLUDED.row_count,
		              expires_at = EXCLUDED.expires_at,
		              updated_at = NOW()
		RETURNING id, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		entry.UserID,
		entry.SummaryType,
		entry.Summary,
		entry.ContentHash,
		entry.RowCount,
		entry.ExpiresAt,
	).Scan(&entry.ID, &entry.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert summary cache entry for user %d type %s: %w", entry.UserID, entry.SummaryType, err)
	}
	return nil
}

func (r *postgresSummaryCacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM ai_summary_cache WHERE expires_at < NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired summary cache entries: %w", err)
	}
	return result.RowsAffected()
}
