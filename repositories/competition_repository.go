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
	ErrCompetitionNotFound    = errors.New("competition entry not found")
	ErrCompetitionUserInvalid = errors.New("competition user conflict or invalid")
)

type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.Competition, error)
	Update(ctx context.Context, competition *models.Competition) error
	UpdatePodiumPhotoKey(ctx context.Context, id int, photoKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

const competitionColumns = `id, user_id, event_name, event_date, city, state, country,
		placement, result, status, match_type, notes, podium_photo_key, created_at`

func scanCompetition(row interface{ Scan(dest ...interface{}) error }) (*models.Competition, error) {
	c := &models.Competition{}
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.EventName,
		&c.EventDate,
		&c.City,
		&c.State,
		&c.Country,
		&c.Placement,
		&c.Result,
		&c.Status,
		&c.MatchType,
		&c.Notes,
		&c.PodiumPhotoKey,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresCompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	query := `
		INSERT INTO competitions
			(user_id, event_name, event_date, city, state, country,
			 placement, result, status, match_type, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		competition.UserID,
		competition.EventName,
		competition.EventDate,
		competition.City,
		competition.State,
		competition.Country,
		competition.Placement,
		competition.Result,
		competition.Status,
		competition.MatchType,
		competition.Notes,
	).Scan(&competition.ID, &competition.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "competitions_user_id_fkey" {
			return ErrCompetitionUserInvalid
		}
		return err
	}
	return nil
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1`

	competition, err := scanCompetition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to scan competition by id %d: %w", id, err)
	}
	return competition, nil
}

func (r *postgresCompetitionRepository) ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.Competition, error) {
	query := `
		SELECT ` + competitionColumns + `
		FROM competitions
		WHERE user_id = $1
		ORDER BY event_date DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitions for user %d: %w", userID, err)
	}
	defer rows.Close()

	competitions := make([]*models.Competition, 0)
	for rows.Next() {
		competition, scanErr := scanCompetition(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan competition row: %w", scanErr)
		}
		competitions = append(competitions, competition)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competition rows iteration: %w", err)
	}
	return competitions, nil
}

func (r *postgresCompetitionRepository) Update(ctx context.Context, competition *models.Competition) error {
	query := `
		UPDATE competitions
		SET event_name = $1, event_date = $2, city = $3, state = $4, country = $5,
		    placement = $6, result = $7, status = $8, match_type = $9, notes = $10
		WHERE id = $11`

	result, err := r.db.ExecContext(ctx, query,
		competition.EventName,
		competition.EventDate,
		competition.City,
		competition.State,
		competition.Country,
		competition.Placement,
		competition.Result,
		competition.Status,
		competition.MatchType,
		competition.Notes,
		competition.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdatePodiumPhotoKey(ctx context.Context, id int, photoKey *string) error {
	query := `UPDATE competitions SET podium_photo_key = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, photoKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM competitions WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}
