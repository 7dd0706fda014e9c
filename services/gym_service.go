package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories"
	"github.com/Dosada05/pickup-hoops/storage"
)

type GymService interface {
	CreateGym(ctx context.Context, creatorID int, input GymInput) (*models.Gym, error)
	GetGym(ctx context.Context, id int) (*models.Gym, error)
	ListGyms(ctx context.Context, query GymQuery) (*GymPage, error)
	UpdateGym(ctx context.Context, id int, actor Actor, input GymInput) (*models.Gym, error)
	DeleteGym(ctx context.Context, id int, actor Actor) error
	UploadPhoto(ctx context.Context, id int, actor Actor, file io.Reader, contentType string) (*models.Gym, error)
}

// Actor - пользователь, выполняющий операцию, с его ролью из токена.
type Actor struct {
	ID   int
	Role models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

type GymInput struct {
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Region     string  `json:"region"`
	CourtCount int     `json:"court_count"`
	Indoor     bool    `json:"indoor"`
	HasParking bool    `json:"has_parking"`
	Notes      *string `json:"notes"`
}

type GymQuery struct {
	Region string
	Search string
	Page   int
}

type GymPage struct {
	Gyms       []models.Gym `json:"gyms"`
	Pagination Pagination   `json:"pagination"`
}

func (in *GymInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Region = strings.TrimSpace(in.Region)
	in.Notes = trimOptional(in.Notes)
	if in.CourtCount == 0 {
		in.CourtCount = 1
	}
}

func (in GymInput) validate() error {
	if in.Name == "" || utf8.RuneCountInString(in.Name) > 100 {
		return fmt.Errorf("%w: name is required and must not exceed 100 characters", ErrValidationFailed)
	}
	if in.Address == "" {
		return fmt.Errorf("%w: address is required", ErrValidationFailed)
	}
	if in.Region == "" {
		return fmt.Errorf("%w: region is required", ErrValidationFailed)
	}
	if in.CourtCount < 1 {
		return fmt.Errorf("%w: court_count must be positive", ErrValidationFailed)
	}
	return nil
}

func (in GymInput) apply(g *models.Gym) {
	g.Name = in.Name
	g.Address = in.Address
	g.Region = in.Region
	g.CourtCount = in.CourtCount
	g.Indoor = in.Indoor
	g.HasParking = in.HasParking
	g.Notes = in.Notes
}

type gymService struct {
	gymRepo  repositories.GymRepository
	uploader storage.FileUploader
	logger   *slog.Logger
	pageSize int
}

func NewGymService(gymRepo repositories.GymRepository, uploader storage.FileUploader, logger *slog.Logger, pageSize int) GymService {
	if pageSize <= 0 {
		pageSize = 12
	}
	return &gymService{
		gymRepo:  gymRepo,
		uploader: uploader,
		logger:   logger,
		pageSize: pageSize,
	}
}

func (s *gymService) CreateGym(ctx context.Context, creatorID int, input GymInput) (*models.Gym, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	gym := &models.Gym{CreatedBy: creatorID}
	input.apply(gym)

	if err := s.gymRepo.Create(ctx, gym); err != nil {
		return nil, mapGymWriteError(err)
	}
	return gym, nil
}

func (s *gymService) GetGym(ctx context.Context, id int) (*models.Gym, error) {
	gym, err := s.gymRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGymNotFound) {
			return nil, ErrGymNotFound
		}
		return nil, fmt.Errorf("failed to get gym %d: %w", id, err)
	}
	populateGymPhotoURL(gym, s.uploader)
	return gym, nil
}

func (s *gymService) ListGyms(ctx context.Context, query GymQuery) (*GymPage, error) {
	page := normalizePage(query.Page)
	filter := repositories.GymFilter{
		Region: strings.TrimSpace(query.Region),
		Search: strings.TrimSpace(query.Search),
		Limit:  s.pageSize,
		Offset: pageOffset(page, s.pageSize),
	}

	var (
		gyms  []models.Gym
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gyms, err = s.gymRepo.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.gymRepo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list gyms: %w", err)
	}

	for i := range gyms {
		populateGymPhotoURL(&gyms[i], s.uploader)
	}
	return &GymPage{Gyms: gyms, Pagination: newPagination(page, s.pageSize, total)}, nil
}

// editable загружает зал и проверяет, что actor - его автор или администратор.
func (s *gymService) editable(ctx context.Context, id int, actor Actor) (*models.Gym, error) {
	gym, err := s.gymRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGymNotFound) {
			return nil, ErrGymNotFound
		}
		return nil, fmt.Errorf("failed to get gym %d: %w", id, err)
	}
	if gym.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}
	return gym, nil
}

func (s *gymService) UpdateGym(ctx context.Context, id int, actor Actor, input GymInput) (*models.Gym, error) {
	gym, err := s.editable(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	input.apply(gym)

	if err := s.gymRepo.Update(ctx, gym); err != nil {
		return nil, mapGymWriteError(err)
	}
	populateGymPhotoURL(gym, s.uploader)
	return gym, nil
}

func (s *gymService) DeleteGym(ctx context.Context, id int, actor Actor) error {
	gym, err := s.editable(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.gymRepo.Delete(ctx, id); err != nil {
		return mapGymWriteError(err)
	}
	if gym.PhotoKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *gym.PhotoKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete gym photo", slog.Int("gym_id", id), slog.Any("error", err))
		}
	}
	return nil
}

func (s *gymService) UploadPhoto(ctx context.Context, id int, actor Actor, file io.Reader, contentType string) (*models.Gym, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}
	gym, err := s.editable(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	oldKey := gym.PhotoKey

	key := objectKey("gyms", gym.ID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload gym photo: %w", err)
	}
	if err := s.gymRepo.UpdatePhotoKey(ctx, gym.ID, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to clean up uploaded gym photo", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, mapGymWriteError(err)
	}
	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous gym photo", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	gym.PhotoKey = &key
	populateGymPhotoURL(gym, s.uploader)
	return gym, nil
}

func mapGymWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrGymNotFound):
		return ErrGymNotFound
	case errors.Is(err, repositories.ErrGymInvalidCreator):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrGymInvalid):
		return fmt.Errorf("%w: gym violates constraints", ErrValidationFailed)
	}
	return fmt.Errorf("gym write failed: %w", err)
}
