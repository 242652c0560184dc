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
	ErrCompetitorNotFound    = errors.New("competitor not found")
	ErrCompetitorSlotTaken   = errors.New("competitor slot already occupied")
	ErrCompetitorUserInvalid = errors.New("competitor user conflict or invalid")
)

type CompetitorRepository interface {
	Create(ctx context.Context, exec SQLExecutor, competitor *models.MatchCompetitor) error
	GetByID(ctx context.Context, id int) (*models.MatchCompetitor, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.MatchCompetitor, error)
	FindByMatchAndUser(ctx context.Context, matchID, userID int) (*models.MatchCompetitor, error)
	SetConfirmed(ctx context.Context, id int) (bool, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresCompetitorRepository struct {
	db *sql.DB
}

func NewPostgresCompetitorRepository(db *sql.DB) CompetitorRepository {
	return &postgresCompetitorRepository{db: db}
}

const competitorColumns = `id, match_id, position, competitor_type, user_id,
		manual_name, manual_belt, manual_weight_kg, manual_photo_key, confirmed, created_at`

func scanCompetitor(row interface{ Scan(dest ...interface{}) error }) (*models.MatchCompetitor, error) {
	c := &models.MatchCompetitor{}
	err := row.Scan(
		&c.ID,
		&c.MatchID,
		&c.Position,
		&c.Type,
		&c.UserID,
		&c.ManualName,
		&c.ManualBelt,
		&c.ManualWeightKG,
		&c.ManualPhotoKey,
		&c.Confirmed,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresCompetitorRepository) Create(ctx context.Context, exec SQLExecutor, competitor *models.MatchCompetitor) error {
	query := `
		INSERT INTO match_competitors
			(match_id, position, competitor_type, user_id,
			 manual_name, manual_belt, manual_weight_kg, manual_photo_key, confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		competitor.MatchID,
		competitor.Position,
		competitor.Type,
		competitor.UserID,
		competitor.ManualName,
		competitor.ManualBelt,
		competitor.ManualWeightKG,
		competitor.ManualPhotoKey,
		competitor.Confirmed,
	).Scan(&competitor.ID, &competitor.CreatedAt)

	return r.handleCompetitorError(err)
}

func (r *postgresCompetitorRepository) GetByID(ctx context.Context, id int) (*models.MatchCompetitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM match_competitors WHERE id = $1`

	competitor, err := scanCompetitor(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitorNotFound
		}
		return nil, fmt.Errorf("failed to scan competitor by id %d: %w", id, err)
	}
	return competitor, nil
}

func (r *postgresCompetitorRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchCompetitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM match_competitors WHERE match_id = $1 ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors for match %d: %w", matchID, err)
	}
	defer rows.Close()

	competitors := make([]*models.MatchCompetitor, 0, 2)
	for rows.Next() {
		competitor, scanErr := scanCompetitor(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan competitor row: %w", scanErr)
		}
		competitors = append(competitors, competitor)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competitor rows iteration: %w", err)
	}
	return competitors, nil
}

func (r *postgresCompetitorRepository) FindByMatchAndUser(ctx context.Context, matchID, userID int) (*models.MatchCompetitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM match_competitors WHERE match_id = $1 AND user_id = $2`

	competitor, err := scanCompetitor(r.db.QueryRowContext(ctx, query, matchID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitorNotFound
		}
		return nil, fmt.Errorf("failed to scan competitor for match %d user %d: %w", matchID, userID, err)
	}
	return competitor, nil
}

// SetConfirmed подтверждает участника. Условие confirmed = false делает
// операцию идемпотентной: повторный вызов вернёт (false, nil).
func (r *postgresCompetitorRepository) SetConfirmed(ctx context.Context, id int) (bool, error) {
	query := `UPDATE match_competitors SET confirmed = TRUE WHERE id = $1 AND confirmed = FALSE`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("SetConfirmed: failed to execute query for competitor %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *postgresCompetitorRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `DELETE FROM match_competitors WHERE id = $1`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitorNotFound)
}

func (r *postgresCompetitorRepository) handleCompetitorError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		// "23505": unique_violation, "23503": foreign_key_violation
		switch pqErr.Constraint {
		case "match_competitors_match_id_position_key":
			return ErrCompetitorSlotTaken
		case "match_competitors_user_id_fkey":
			return ErrCompetitorUserInvalid
		case "match_competitors_match_id_fkey":
			return ErrMatchNotFound
		}
	}
	return err
}
