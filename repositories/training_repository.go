package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grapplehub/grapplehub/models"
)

var ErrTrainingLogNotFound = errors.New("training log not found")

type TrainingRepository interface {
	Create(ctx context.Context, log *models.TrainingLog) error
	ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.TrainingLog, error)
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*models.TrainingLog, error)
}

type postgresTrainingRepository struct {
	db *sql.DB
}

func NewPostgresTrainingRepository(db *sql.DB) TrainingRepository {
	return &postgresTrainingRepository{db: db}
}

func (r *postgresTrainingRepository) Create(ctx context.Context, log *models.TrainingLog) error {
	query := `
		INSERT INTO training_logs (user_id, date, duration_minutes, format, category, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		log.UserID,
		log.Date,
		log.DurationMinutes,
		log.Format,
		log.Category,
		log.Notes,
	).Scan(&log.ID, &log.CreatedAt)
}

func (r *postgresTrainingRepository) GetByID(ctx context.Context, id int) (*models.TrainingLog, error) {
	query := `
		SELECT id, user_id, date, duration_minutes, format, category, notes, created_at
		FROM training_logs
		WHERE id = $1`

	log := &models.TrainingLog{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&log.ID,
		&log.UserID,
		&log.Date,
		&log.DurationMinutes,
		&log.Format,
		&log.Category,
		&log.Notes,
		&log.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrainingLogNotFound
		}
		return nil, fmt.Errorf("failed to scan training log by id %d: %w", id, err)
	}
	return log, nil
}

func (r *postgresTrainingRepository) ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.TrainingLog, error) {
	query := `
		SELECT id, user_id, date, duration_minutes, format, category, notes, created_at
		FROM training_logs
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query training logs for user %d: %w", userID, err)
	}
	defer rows.Close()

	logs := make([]*models.TrainingLog, 0)
	for rows.Next() {
		var log models.TrainingLog
		if scanErr := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.Date,
			&log.DurationMinutes,
			&log.Format,
			&log.Category,
			&log.Notes,
			&log.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan training log row: %w", scanErr)
		}
		logs = append(logs, &log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during training log rows iteration: %w", err)
	}
	return logs, nil
}

func (r *postgresTrainingRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM training_logs WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTrainingLogNotFound)
}
