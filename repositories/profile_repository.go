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
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileUserInvalid = errors.New("profile user conflict or invalid")
	ErrProfileInvalid     = errors.New("profile violates a check constraint")
)

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
	UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

func (r *postgresProfileRepository) GetByUserID(ctx context.Context, userID int) (*models.Profile, error) {
	query := `
		SELECT user_id, display_name, birth_date, height_cm, positions, region, bio, avatar_key, updated_at
		FROM profiles
		WHERE user_id = $1`

	p := &models.Profile{}
	var birthDate sql.NullTime
	var height sql.NullInt64
	var positions pq.StringArray

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &birthDate, &height, &positions, &p.Region, &p.Bio, &p.AvatarKey, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if birthDate.Valid {
		d := models.DateOf(birthDate.Time)
		p.BirthDate = &d
	}
	if height.Valid {
		h := int(height.Int64)
		p.HeightCM = &h
	}
	p.Positions = make([]models.Position, 0, len(positions))
	for _, pos := range positions {
		p.Positions = append(p.Positions, models.Position(pos))
	}
	return p, nil
}

func (r *postgresProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, display_name, birth_date, height_cm, positions, region, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			birth_date = EXCLUDED.birth_date,
			height_cm = EXCLUDED.height_cm,
			positions = EXCLUDED.positions,
			region = EXCLUDED.region,
			bio = EXCLUDED.bio,
			updated_at = now()
		RETURNING updated_at`

	positions := make([]string, 0, len(p.Positions))
	for _, pos := range p.Positions {
		positions = append(positions, string(pos))
	}

	var birthDate interface{}
	if p.BirthDate != nil {
		birthDate = *p.BirthDate
	}

	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.DisplayName, birthDate, p.HeightCM, pq.Array(positions), p.Region, p.Bio,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case pqForeignKeyViolation:
				return ErrProfileUserInvalid
			case pqCheckViolation:
				return ErrProfileInvalid
			}
		}
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *postgresProfileRepository) UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error {
	query := `UPDATE profiles SET avatar_key = $1, updated_at = now() WHERE user_id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar key: %w", err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}
