package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories"
	"github.com/Dosada05/pickup-hoops/storage"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID int) (*models.Profile, error)
	UpsertProfile(ctx context.Context, userID int, input ProfileInput) (*models.Profile, error)
	UploadAvatar(ctx context.Context, userID int, file io.Reader, contentType string) (*models.Profile, error)
}

type ProfileInput struct {
	DisplayName string            `json:"display_name"`
	BirthDate   *models.Date      `json:"birth_date"`
	HeightCM    *int              `json:"height_cm"`
	Positions   []models.Position `json:"positions"`
	Region      *string           `json:"region"`
	Bio         *string           `json:"bio"`
}

type profileService struct {
	profileRepo repositories.ProfileRepository
	uploader    storage.FileUploader
	clock       Clock
	logger      *slog.Logger
}

func NewProfileService(
	profileRepo repositories.ProfileRepository,
	uploader storage.FileUploader,
	clock Clock,
	logger *slog.Logger,
) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		uploader:    uploader,
		clock:       clock,
		logger:      logger,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID int) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile of user %d: %w", userID, err)
	}
	s.decorate(profile)
	return profile, nil
}

func (s *profileService) decorate(profile *models.Profile) {
	profile.Complete = profile.IsComplete()
	populateProfileAvatarURL(profile, s.uploader)
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func (s *profileService) UpsertProfile(ctx context.Context, userID int, input ProfileInput) (*models.Profile, error) {
	profile := &models.Profile{
		UserID:      userID,
		DisplayName: strings.TrimSpace(input.DisplayName),
		BirthDate:   input.BirthDate,
		HeightCM:    input.HeightCM,
		Region:      trimOptional(input.Region),
		Bio:         trimOptional(input.Bio),
		Positions:   make([]models.Position, 0, len(input.Positions)),
	}

	if utf8.RuneCountInString(profile.DisplayName) > 50 {
		return nil, fmt.Errorf("%w: display_name must not exceed 50 characters", ErrValidationFailed)
	}
	if profile.HeightCM != nil && (*profile.HeightCM < 100 || *profile.HeightCM > 250) {
		return nil, fmt.Errorf("%w: height_cm must be between 100 and 250", ErrValidationFailed)
	}
	if profile.BirthDate != nil && !profile.BirthDate.Before(s.clock.today().Time) {
		return nil, fmt.Errorf("%w: birth_date must be in the past", ErrValidationFailed)
	}
	seen := make(map[models.Position]bool)
	for _, pos := range input.Positions {
		pos = models.Position(strings.ToUpper(strings.TrimSpace(string(pos))))
		if !pos.Valid() {
			return nil, fmt.Errorf("%w: unknown position %q", ErrValidationFailed, pos)
		}
		if !seen[pos] {
			seen[pos] = true
			profile.Positions = append(profile.Positions, pos)
		}
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		switch {
		case errors.Is(err, repositories.ErrProfileUserInvalid):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrProfileInvalid):
			return nil, fmt.Errorf("%w: profile violates constraints", ErrValidationFailed)
		}
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	// Перечитываем, чтобы вернуть сохранённый avatar_key.
	return s.GetProfile(ctx, userID)
}

func (s *profileService) UploadAvatar(ctx context.Context, userID int, file io.Reader, contentType string) (*models.Profile, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile of user %d: %w", userID, err)
	}
	oldKey := profile.AvatarKey

	key := objectKey("avatars", userID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.profileRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to clean up uploaded avatar", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to save avatar key: %w", err)
	}

	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous avatar", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	profile.AvatarKey = &key
	s.decorate(profile)
	return profile, nil
}
