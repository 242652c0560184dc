package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grapplehub/grapplehub/models"
	"github.com/lib/pq"
)

var (
	ErrRequestNotFound    = errors.New("match request not found")
	ErrRequestUserInvalid = errors.New("match request user conflict or invalid")
)

type RequestRepository interface {
	Create(ctx context.Context, request *models.MatchRequest) error
	GetByID(ctx context.Context, id int) (*models.MatchRequest, error)
	ListByMatch(ctx context.Context, matchID int, statusFilter *models.RequestStatus) ([]*models.MatchRequest, error)
	FindByTupleAndStatus(ctx context.Context, matchID, userID, position int, status models.RequestStatus) (*models.MatchRequest, error)
	ResetToPending(ctx context.Context, id int, message *string) error
	ResolveIfPending(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus) (bool, error)
	DeletePendingByTuple(ctx context.Context, matchID, userID, position int) error
}

type postgresRequestRepository struct {
	db *sql.DB
}

func NewPostgresRequestRepository(db *sql.DB) RequestRepository {
	return &postgresRequestRepository{db: db}
}

const requestColumns = `id, match_id, user_id, position, message, status, responded_at, created_at`

func scanRequest(row interface{ Scan(dest ...interface{}) error }) (*models.MatchRequest, error) {
	req := &models.MatchRequest{}
	err := row.Scan(
		&req.ID,
		&req.MatchID,
		&req.UserID,
		&req.Position,
		&req.Message,
		&req.Status,
		&req.RespondedAt,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *postgresRequestRepository) Create(ctx context.Context, request *models.MatchRequest) error {
	query := `
		INSERT INTO match_requests (match_id, user_id, position, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		request.MatchID,
		request.UserID,
		request.Position,
		request.Message,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "match_requests_match_id_fkey":
				return ErrMatchNotFound
			case "match_requests_user_id_fkey":
				return ErrRequestUserInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresRequestRepository) GetByID(ctx context.Context, id int) (*models.MatchRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM match_requests WHERE id = $1`

	request, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to scan match request by id %d: %w", id, err)
	}
	return request, nil
}

func (r *postgresRequestRepository) ListByMatch(ctx context.Context, matchID int, statusFilter *models.RequestStatus) ([]*models.MatchRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM match_requests WHERE match_id = $1`
	args := []interface{}{matchID}

	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests for match %d: %w", matchID, err)
	}
	defer rows.Close()

	requests := make([]*models.MatchRequest, 0)
	for rows.Next() {
		request, scanErr := scanRequest(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match request row: %w", scanErr)
		}
		requests = append(requests, request)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match request rows iteration: %w", err)
	}
	return requests, nil
}

func (r *postgresRequestRepository) FindByTupleAndStatus(ctx context.Context, matchID, userID, position int, status models.RequestStatus) (*models.MatchRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM match_requests
		WHERE match_id = $1 AND user_id = $2 AND position = $3 AND status = $4
		ORDER BY id DESC
		LIMIT 1`

	request, err := scanRequest(r.db.QueryRowContext(ctx, query, matchID, userID, position, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to scan match request for match %d user %d position %d: %w", matchID, userID, position, err)
	}
	return request, nil
}

// ResetToPending возвращает отклонённую заявку в pending вместо вставки
// дубликата. Прежний ответ организатора очищается.
func (r *postgresRequestRepository) ResetToPending(ctx context.Context, id int, message *string) error {
	query := `
		UPDATE match_requests
		SET status = $1, message = $2, responded_at = NULL
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, models.RequestStatusPending, message, id)
	if err != nil {
		return fmt.Errorf("ResetToPending: failed to execute query for request %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRequestNotFound)
}

// ResolveIfPending переводит заявку из pending в конечный статус. Условие
// status = 'pending' защищает от повторного разрешения той же заявки:
// второй вызов вернёт (false, nil).
func (r *postgresRequestRepository) ResolveIfPending(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus) (bool, error) {
	query := `
		UPDATE match_requests
		SET status = $1, responded_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := exec.ExecContext(ctx, query, status, id, models.RequestStatusPending)
	if err != nil {
		return false, fmt.Errorf("ResolveIfPending: failed to execute query for request %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *postgresRequestRepository) DeletePendingByTuple(ctx context.Context, matchID, userID, position int) error {
	query := `
		DELETE FROM match_requests
		WHERE match_id = $1 AND user_id = $2 AND position = $3 AND status = $4`

	// Ноль удалённых строк — не ошибка: чистить может быть нечего.
	_, err := r.db.ExecContext(ctx, query, matchID, userID, position, models.RequestStatusPending)
	if err != nil {
		return fmt.Errorf("DeletePendingByTuple: failed to execute query for match %d user %d: %w", matchID, userID, err)
	}
	return nil
}
