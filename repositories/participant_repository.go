package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrParticipantConflict    = errors.New("participant conflict: user already applied for this game")
	ErrParticipantUserInvalid = errors.New("participant user conflict or invalid")
	ErrParticipantGameInvalid = errors.New("participant game conflict or invalid")
	ErrCapacityExceeded       = errors.New("approving the participant would exceed game capacity")
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	FindByID(ctx context.Context, id int) (*models.Participant, error)
	FindByGameAndUser(ctx context.Context, gameID, userID int) (*models.Participant, error)
	CountByStatus(ctx context.Context, gameID int, status models.ParticipantStatus) (int, error)
	// UpdateStatus and ApproveWithinCapacity only touch rows of games owned by ownerID.
	UpdateStatus(ctx context.Context, id, gameID, ownerID int, status models.ParticipantStatus) error
	ApproveWithinCapacity(ctx context.Context, id, gameID, ownerID int) error
	// DeleteOwn removes the application only when it belongs to userID; otherwise it is a no-op.
	DeleteOwn(ctx context.Context, id, userID int) error
	ListByGame(ctx context.Context, gameID int, statusFilter *models.ParticipantStatus) ([]models.Participant, error)
	ListByUser(ctx context.Context, userID int) ([]models.Participant, error)
	// CountAllByStatus считает заявки всех игр, сгруппированные по статусу.
	CountAllByStatus(ctx context.Context) (map[models.ParticipantStatus]int, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (game_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, p.GameID, p.UserID, p.Status).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case pqUniqueViolation:
				if pqErr.Constraint == "participants_game_id_user_id_key" {
					return ErrParticipantConflict
				}
			case pqForeignKeyViolation:
				switch pqErr.Constraint {
				case "participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "participants_game_id_fkey":
					return ErrParticipantGameInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.GameID, &p.UserID, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) FindByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT id, game_id, user_id, status, created_at FROM participants WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresParticipantRepository) FindByGameAndUser(ctx context.Context, gameID, userID int) (*models.Participant, error) {
	query := `SELECT id, game_id, user_id, status, created_at FROM participants WHERE game_id = $1 AND user_id = $2`
	return r.findOne(ctx, query, gameID, userID)
}

func (r *postgresParticipantRepository) CountByStatus(ctx context.Context, gameID int, status models.ParticipantStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM participants WHERE game_id = $1 AND status = $2`
	if err := r.db.QueryRowContext(ctx, query, gameID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) UpdateStatus(ctx context.Context, id, gameID, ownerID int, status models.ParticipantStatus) error {
	query := `
		UPDATE participants p SET status = $1
		FROM games g
		WHERE p.id = $2 AND p.game_id = $3 AND g.id = p.game_id AND g.owner_id = $4`

	result, err := r.db.ExecContext(ctx, query, status, id, gameID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

// ApproveWithinCapacity approves the application inside a transaction that locks the game row,
// so concurrent approvals for the same game are serialized and cannot overshoot max_participants.
func (r *postgresParticipantRepository) ApproveWithinCapacity(ctx context.Context, id, gameID, ownerID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin approval transaction: %w", err)
	}

	var maxParticipants int
	err = tx.QueryRowContext(ctx,
		`SELECT max_participants FROM games WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
		gameID, ownerID,
	).Scan(&maxParticipants)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rollback(tx, ErrParticipantNotFound)
		}
		return rollback(tx, fmt.Errorf("failed to lock game: %w", err))
	}

	var approved int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE game_id = $1 AND status = 'approved' AND id <> $2`,
		gameID, id,
	).Scan(&approved)
	if err != nil {
		return rollback(tx, fmt.Errorf("failed to count approved participants: %w", err))
	}
	if approved >= maxParticipants {
		return rollback(tx, ErrCapacityExceeded)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE participants SET status = 'approved' WHERE id = $1 AND game_id = $2`,
		id, gameID,
	)
	if err != nil {
		return rollback(tx, fmt.Errorf("failed to approve participant: %w", err))
	}
	if err := checkAffectedRows(result, ErrParticipantNotFound); err != nil {
		return rollback(tx, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit approval: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) DeleteOwn(ctx context.Context, id, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) ListByGame(ctx context.Context, gameID int, statusFilter *models.ParticipantStatus) ([]models.Participant, error) {
	query := `
		SELECT p.id, p.game_id, p.user_id, p.status, p.created_at,
			u.nickname, u.role, u.created_at,
			COALESCE(pr.display_name, ''), pr.height_cm, COALESCE(pr.positions, '{}')
		FROM participants p
		JOIN users u ON u.id = p.user_id
		LEFT JOIN profiles pr ON pr.user_id = p.user_id
		WHERE p.game_id = $1`
	args := []interface{}{gameID}

	if statusFilter != nil {
		query += " AND p.status = $2"
		args = append(args, *statusFilter)
	}
	query += " ORDER BY p.created_at ASC, p.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		u := &models.User{}
		pr := &models.Profile{}
		var height sql.NullInt64
		var positions []string

		if err := rows.Scan(
			&p.ID, &p.GameID, &p.UserID, &p.Status, &p.CreatedAt,
			&u.Nickname, &u.Role, &u.CreatedAt,
			&pr.DisplayName, &height, pq.Array(&positions),
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}

		u.ID = p.UserID
		pr.UserID = p.UserID
		if height.Valid {
			h := int(height.Int64)
			pr.HeightCM = &h
		}
		for _, pos := range positions {
			pr.Positions = append(pr.Positions, models.Position(pos))
		}
		p.User = u
		p.Profile = pr
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) ListByUser(ctx context.Context, userID int) ([]models.Participant, error) {
	query := `
		SELECT p.id, p.game_id, p.user_id, p.status, p.created_at, ` + gameColumns + `
		FROM participants p
		JOIN games g ON g.id = p.game_id
		WHERE p.user_id = $1
		ORDER BY g.game_date DESC, g.start_time DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user applications: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		g := &models.Game{}
		if err := rows.Scan(
			&p.ID, &p.GameID, &p.UserID, &p.Status, &p.CreatedAt,
			&g.ID, &g.OwnerID, &g.GymID, &g.Title, &g.Description, &g.GameDate, &g.StartTime, &g.EndTime,
			&g.MinParticipants, &g.MaxParticipants, &g.Fee, &g.Region, &g.Gender, &g.Skill, &g.ReminderSentAt, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user application: %w", err)
		}
		p.Game = g
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user applications: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) CountAllByStatus(ctx context.Context) (map[models.ParticipantStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM participants GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ParticipantStatus]int)
	for rows.Next() {
		var status models.ParticipantStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan participant count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant counts: %w", err)
	}
	return counts, nil
}
