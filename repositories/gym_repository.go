package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/pickup-hoops/models"
)

var (
	ErrGymNotFound       = errors.New("gym not found")
	ErrGymInvalidCreator = errors.New("invalid gym creator reference")
	ErrGymInvalid        = errors.New("gym violates a check constraint")
)

type GymFilter struct {
	Region string
	Search string
	Limit  int
	Offset int
}

type GymRepository interface {
	Create(ctx context.Context, gym *models.Gym) error
	GetByID(ctx context.Context, id int) (*models.Gym, error)
	Update(ctx context.Context, gym *models.Gym) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter GymFilter) ([]models.Gym, error)
	Count(ctx context.Context, filter GymFilter) (int, error)
	UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error
}

type postgresGymRepository struct {
	db *sql.DB
}

func NewPostgresGymRepository(db *sql.DB) GymRepository {
	return &postgresGymRepository{db: db}
}

const gymColumns = `id, name, address, region, court_count, indoor, has_parking, notes, photo_key, created_by, created_at`

func scanGym(row rowScanner) (*models.Gym, error) {
	g := &models.Gym{}
	err := row.Scan(&g.ID, &g.Name, &g.Address, &g.Region, &g.CourtCount, &g.Indoor, &g.HasParking,
		&g.Notes, &g.PhotoKey, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *postgresGymRepository) Create(ctx context.Context, g *models.Gym) error {
	query := `
		INSERT INTO gyms (name, address, region, court_count, indoor, has_parking, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		g.Name, g.Address, g.Region, g.CourtCount, g.Indoor, g.HasParking, g.Notes, g.CreatedBy,
	).Scan(&g.ID, &g.CreatedAt)
	return r.handleGymError(err)
}

func (r *postgresGymRepository) GetByID(ctx context.Context, id int) (*models.Gym, error) {
	g, err := scanGym(r.db.QueryRowContext(ctx, `SELECT `+gymColumns+` FROM gyms WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGymNotFound
		}
		return nil, fmt.Errorf("failed to get gym: %w", err)
	}
	return g, nil
}

func (r *postgresGymRepository) Update(ctx context.Context, g *models.Gym) error {
	query := `
		UPDATE gyms SET
			name = $1, address = $2, region = $3, court_count = $4, indoor = $5, has_parking = $6, notes = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		g.Name, g.Address, g.Region, g.CourtCount, g.Indoor, g.HasParking, g.Notes, g.ID,
	)
	if err != nil {
		return r.handleGymError(err)
	}
	return checkAffectedRows(result, ErrGymNotFound)
}

func (r *postgresGymRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM gyms WHERE id = $1`, id)
	if err != nil {
		return r.handleGymError(err)
	}
	return checkAffectedRows(result, ErrGymNotFound)
}

func buildGymWhere(filter GymFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argID := 1

	if region := strings.TrimSpace(filter.Region); region != "" {
		where += fmt.Sprintf(" AND region = $%d", argID)
		args = append(args, region)
		argID++
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR address ILIKE $%d)", argID, argID)
		args = append(args, "%"+escapeLike(search)+"%")
	}
	return where, args
}

func (r *postgresGymRepository) List(ctx context.Context, filter GymFilter) ([]models.Gym, error) {
	where, args := buildGymWhere(filter)
	query := `SELECT ` + gymColumns + ` FROM gyms` + where + ` ORDER BY name ASC, id ASC`

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
		return nil, fmt.Errorf("failed to list gyms: %w", err)
	}
	defer rows.Close()

	gyms := make([]models.Gym, 0)
	for rows.Next() {
		g, err := scanGym(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gym: %w", err)
		}
		gyms = append(gyms, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gyms: %w", err)
	}
	return gyms, nil
}

func (r *postgresGymRepository) Count(ctx context.Context, filter GymFilter) (int, error) {
	where, args := buildGymWhere(filter)
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gyms`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count gyms: %w", err)
	}
	return total, nil
}

func (r *postgresGymRepository) UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE gyms SET photo_key = $1 WHERE id = $2`, photoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update gym photo key: %w", err)
	}
	return checkAffectedRows(result, ErrGymNotFound)
}

func (r *postgresGymRepository) handleGymError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			return ErrGymInvalidCreator
		case pqCheckViolation:
			return ErrGymInvalid
		}
	}
	return fmt.Errorf("gym repository error: %w", err)
}
