package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grapplehub/grapplehub/models"
	"github.com/lib/pq"
)

var ErrWithdrawalMatchInvalid = errors.New("withdrawal match conflict or invalid")

// WithdrawalRepository — только вставка и чтение: записи об уходе
// неизменяемы, update/delete не предусмотрены намеренно.
type WithdrawalRepository interface {
	Create(ctx context.Context, exec SQLExecutor, withdrawal *models.Withdrawal) error
	ListByUser(ctx context.Context, userID int) ([]*models.Withdrawal, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.Withdrawal, error)
}

type postgresWithdrawalRepository struct {
	db *sql.DB
}

func NewPostgresWithdrawalRepository(db *sql.DB) WithdrawalRepository {
	return &postgresWithdrawalRepository{db: db}
}

func (r *postgresWithdrawalRepository) Create(ctx context.Context, exec SQLExecutor, withdrawal *models.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (user_id, event_id, match_id, reason, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		withdrawal.UserID,
		withdrawal.EventID,
		withdrawal.MatchID,
		withdrawal.Reason,
		withdrawal.Comment,
	).Scan(&withdrawal.ID, &withdrawal.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "withdrawals_match_id_fkey" {
			return ErrWithdrawalMatchInvalid
		}
		return err
	}
	return nil
}

func (r *postgresWithdrawalRepository) ListByUser(ctx context.Context, userID int) ([]*models.Withdrawal, error) {
	return r.list(ctx, `user_id`, userID)
}

func (r *postgresWithdrawalRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.Withdrawal, error) {
	return r.list(ctx, `match_id`, matchID)
}

func (r *postgresWithdrawalRepository) list(ctx context.Context, column string, value int) ([]*models.Withdrawal, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, event_id, match_id, reason, comment, created_at
		FROM withdrawals
		WHERE %s = $1
		ORDER BY created_at DESC, id DESC`, column)

	rows, err := r.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals by %s %d: %w", column, value, err)
	}
	defer rows.Close()

	withdrawals := make([]*models.Withdrawal, 0)
	for rows.Next() {
		var w models.Withdrawal
		if scanErr := rows.Scan(
			&w.ID,
			&w.UserID,
			&w.EventID,
			&w.MatchID,
			&w.Reason,
			&w.Comment,
			&w.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan withdrawal row: %w", scanErr)
		}
		withdrawals = append(withdrawals, &w)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during withdrawal rows iteration: %w", err)
	}
	return withdrawals, nil
}
