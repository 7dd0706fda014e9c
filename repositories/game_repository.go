package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameInvalidGym   = errors.New("invalid gym reference")
	ErrGameInvalidOwner = errors.New("invalid owner reference")
	ErrGameInvalid      = errors.New("game violates a check constraint")
)

// GameFilter - фильтр для выборки списка игр.
type GameFilter struct {
	DateFrom *models.Date
	DateTo   *models.Date
	Regions  []string
	Gender   *models.GenderTag
	Skill    *models.SkillTag
	Search   string
	OwnerID  *int
	GymID    *int
	Limit    int
	Offset   int
}

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	Update(ctx context.Context, game *models.Game, ownerID int) error
	Delete(ctx context.Context, id, ownerID int) error
	List(ctx context.Context, filter GameFilter) ([]models.Game, error)
	Count(ctx context.Context, filter GameFilter) (int, error)
	ListPendingReminders(ctx context.Context, from, to models.Date) ([]models.Game, error)
	MarkReminderSent(ctx context.Context, id int, at time.Time) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `
	g.id, g.owner_id, g.gym_id, g.title, g.description, g.game_date, g.start_time, g.end_time,
	g.min_participants, g.max_participants, g.fee, g.region, g.gender, g.skill, g.reminder_sent_at, g.created_at`

func scanGame(row rowScanner, extra ...interface{}) (*models.Game, error) {
	g := &models.Game{}
	dest := []interface{}{
		&g.ID, &g.OwnerID, &g.GymID, &g.Title, &g.Description, &g.GameDate, &g.StartTime, &g.EndTime,
		&g.MinParticipants, &g.MaxParticipants, &g.Fee, &g.Region, &g.Gender, &g.Skill, &g.ReminderSentAt, &g.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *postgresGameRepository) Create(ctx context.Context, g *models.Game) error {
	query := `
		INSERT INTO games (
			owner_id, gym_id, title, description, game_date, start_time, end_time,
			min_participants, max_participants, fee, region, gender, skill
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		g.OwnerID, g.GymID, g.Title, g.Description, g.GameDate, g.StartTime, g.EndTime,
		g.MinParticipants, g.MaxParticipants, g.Fee, g.Region, g.Gender, g.Skill,
	).Scan(&g.ID, &g.CreatedAt)

	return r.handleGameError(err)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games g WHERE g.id = $1`

	g, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

// Update перезаписывает игру. Строка обновляется только если ownerID совпадает с владельцем.
func (r *postgresGameRepository) Update(ctx context.Context, g *models.Game, ownerID int) error {
	query := `
		UPDATE games SET
			gym_id = $1,
			title = $2,
			description = $3,
			game_date = $4,
			start_time = $5,
			end_time = $6,
			min_participants = $7,
			max_participants = $8,
			fee = $9,
			region = $10,
			gender = $11,
			skill = $12,
			reminder_sent_at = NULL
		WHERE id = $13 AND owner_id = $14`

	result, err := r.db.ExecContext(ctx, query,
		g.GymID, g.Title, g.Description, g.GameDate, g.StartTime, g.EndTime,
		g.MinParticipants, g.MaxParticipants, g.Fee, g.Region, g.Gender, g.Skill,
		g.ID, ownerID,
	)
	if err != nil {
		return r.handleGameError(err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Delete(ctx context.Context, id, ownerID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func buildGameWhere(filter GameFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argID := 1

	if filter.DateFrom != nil {
		where += fmt.Sprintf(" AND g.game_date >= $%d", argID)
		args = append(args, *filter.DateFrom)
		argID++
	}
	if filter.DateTo != nil {
		where += fmt.Sprintf(" AND g.game_date <= $%d", argID)
		args = append(args, *filter.DateTo)
		argID++
	}
	if len(filter.Regions) > 0 {
		where += fmt.Sprintf(" AND g.region = ANY($%d)", argID)
		args = append(args, pq.Array(filter.Regions))
		argID++
	}
	if filter.Gender != nil {
		where += fmt.Sprintf(" AND g.gender = $%d", argID)
		args = append(args, *filter.Gender)
		argID++
	}
	if filter.Skill != nil {
		where += fmt.Sprintf(" AND g.skill = $%d", argID)
		args = append(args, *filter.Skill)
		argID++
	}
	if filter.OwnerID != nil {
		where += fmt.Sprintf(" AND g.owner_id = $%d", argID)
		args = append(args, *filter.OwnerID)
		argID++
	}
	if filter.GymID != nil {
		where += fmt.Sprintf(" AND g.gym_id = $%d", argID)
		args = append(args, *filter.GymID)
		argID++
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where += fmt.Sprintf(" AND (g.title ILIKE $%d OR g.description ILIKE $%d)", argID, argID)
		args = append(args, "%"+escapeLike(search)+"%")
	}

	return where, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postgresGameRepository) List(ctx context.Context, filter GameFilter) ([]models.Game, error) {
	where, args := buildGameWhere(filter)
	query := `SELECT ` + gameColumns + `,
			(SELECT COUNT(*) FROM participants p WHERE p.game_id = g.id AND p.status = 'approved')
		FROM games g` + where + `
		ORDER BY g.game_date ASC, g.start_time ASC, g.id ASC`

	argID := len(args) + 1
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		var approved int
		g, err := scanGame(rows, &approved)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		g.ApprovedCount = &approved
		games = append(games, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) Count(ctx context.Context, filter GameFilter) (int, error) {
	where, args := buildGameWhere(filter)
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games g`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return total, nil
}

// ListPendingReminders returns games dated within [from, to] that have not had a reminder sent.
// The caller narrows the result down by exact start time.
func (r *postgresGameRepository) ListPendingReminders(ctx context.Context, from, to models.Date) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + `
		FROM games g
		WHERE g.reminder_sent_at IS NULL AND g.game_date BETWEEN $1 AND $2
		ORDER BY g.game_date, g.start_time`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for reminders: %w", err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) MarkReminderSent(ctx context.Context, id int, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE games SET reminder_sent_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) handleGameError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			switch pqErr.Constraint {
			case "games_gym_id_fkey":
				return ErrGameInvalidGym
			case "games_owner_id_fkey":
				return ErrGameInvalidOwner
			}
		case pqCheckViolation:
			return ErrGameInvalid
		}
	}
	return fmt.Errorf("game repository error: %w", err)
}
