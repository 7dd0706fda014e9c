package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories"
	"github.com/Dosada05/pickup-hoops/storage"
)

// DefaultListingWindowDays - окно выборки по умолчанию, если даты не заданы.
const DefaultListingWindowDays = 14

type GameService interface {
	CreateGame(ctx context.Context, ownerID int, input GameInput) (*models.Game, error)
	GetGame(ctx context.Context, id int) (*models.Game, error)
	UpdateGame(ctx context.Context, id, ownerID int, input GameInput) (*models.Game, error)
	DeleteGame(ctx context.Context, id, ownerID int) error
	ListGames(ctx context.Context, query ListingQuery) (*GamePage, error)
	ListHostedGames(ctx context.Context, ownerID, page int) (*GamePage, error)
}

type GameInput struct {
	GymID           *int             `json:"gym_id"`
	Title           string           `json:"title"`
	Description     *string          `json:"description"`
	GameDate        models.Date      `json:"game_date"`
	StartTime       models.ClockTime `json:"start_time"`
	EndTime         models.ClockTime `json:"end_time"`
	MinParticipants int              `json:"min_participants"`
	MaxParticipants int              `json:"max_participants"`
	Fee             int              `json:"fee"`
	Region          string           `json:"region"`
	Gender          models.GenderTag `json:"gender"`
	Skill           models.SkillTag  `json:"skill"`
}

// ListingQuery - фильтр публичной ленты игр.
type ListingQuery struct {
	From    *models.Date
	To      *models.Date
	Regions []string
	Gender  *models.GenderTag
	Skill   *models.SkillTag
	Search  string
	Page    int
}

type GamePage struct {
	Games      []models.Game `json:"games"`
	From       models.Date   `json:"from"`
	To         models.Date   `json:"to"`
	Pagination Pagination    `json:"pagination"`
}

type gameService struct {
	gameRepo        repositories.GameRepository
	participantRepo repositories.ParticipantRepository
	gymRepo         repositories.GymRepository
	uploader        storage.FileUploader
	clock           Clock
	pageSize        int
}

func NewGameService(
	gameRepo repositories.GameRepository,
	participantRepo repositories.ParticipantRepository,
	gymRepo repositories.GymRepository,
	uploader storage.FileUploader,
	clock Clock,
	pageSize int,
) GameService {
	if pageSize <= 0 {
		pageSize = 12
	}
	return &gameService{
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		gymRepo:         gymRepo,
		uploader:        uploader,
		clock:           clock,
		pageSize:        pageSize,
	}
}

func (in *GameInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Region = strings.TrimSpace(in.Region)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			in.Description = nil
		} else {
			in.Description = &d
		}
	}
	if in.Gender == "" {
		in.Gender = models.GenderAny
	}
	if in.Skill == "" {
		in.Skill = models.SkillAny
	}
}

func (in *GameInput) validate() error {
	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidationFailed)
	case utf8.RuneCountInString(in.Title) > 120:
		return fmt.Errorf("%w: title must not exceed 120 characters", ErrValidationFailed)
	case in.Region == "":
		return fmt.Errorf("%w: region is required", ErrValidationFailed)
	case in.GameDate.IsZero():
		return fmt.Errorf("%w: game_date is required", ErrValidationFailed)
	case !in.StartTime.Before(in.EndTime):
		return fmt.Errorf("%w: start_time must be before end_time", ErrValidationFailed)
	case in.MinParticipants < 1:
		return fmt.Errorf("%w: min_participants must be at least 1", ErrValidationFailed)
	case in.MaxParticipants < in.MinParticipants:
		return fmt.Errorf("%w: max_participants must not be lower than min_participants", ErrValidationFailed)
	case in.Fee < 0:
		return fmt.Errorf("%w: fee must not be negative", ErrValidationFailed)
	case !in.Gender.Valid():
		return fmt.Errorf("%w: unknown gender tag %q", ErrValidationFailed, in.Gender)
	case !in.Skill.Valid():
		return fmt.Errorf("%w: unknown skill tag %q", ErrValidationFailed, in.Skill)
	}
	return nil
}

func (in *GameInput) apply(g *models.Game) {
	g.GymID = in.GymID
	g.Title = in.Title
	g.Description = in.Description
	g.GameDate = in.GameDate
	g.StartTime = in.StartTime
	g.EndTime = in.EndTime
	g.MinParticipants = in.MinParticipants
	g.MaxParticipants = in.MaxParticipants
	g.Fee = in.Fee
	g.Region = in.Region
	g.Gender = in.Gender
	g.Skill = in.Skill
}

func (s *gameService) checkGym(ctx context.Context, gymID *int) error {
	if gymID == nil {
		return nil
	}
	if _, err := s.gymRepo.GetByID(ctx, *gymID); err != nil {
		if errors.Is(err, repositories.ErrGymNotFound) {
			return fmt.Errorf("%w: gym %d does not exist", ErrValidationFailed, *gymID)
		}
		return fmt.Errorf("failed to check gym: %w", err)
	}
	return nil
}

func (s *gameService) CreateGame(ctx context.Context, ownerID int, input GameInput) (*models.Game, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if !s.clock.current().Before(models.At(input.GameDate, input.StartTime, s.clock.location())) {
		return nil, fmt.Errorf("%w: game must start in the future", ErrValidationFailed)
	}
	if err := s.checkGym(ctx, input.GymID); err != nil {
		return nil, err
	}

	game := &models.Game{OwnerID: ownerID}
	input.apply(game)

	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, s.mapGameWriteError(err)
	}

	zero := 0
	game.ApprovedCount = &zero
	game.Status = game.StatusAt(s.clock.current(), s.clock.location())
	return game, nil
}

// GetGame загружает игру вместе с числом одобренных участников и площадкой.
func (s *gameService) GetGame(ctx context.Context, id int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}

	var approved int
	var gym *models.Gym

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		approved, err = s.participantRepo.CountByStatus(gctx, id, models.ParticipantApproved)
		return err
	})
	if game.GymID != nil {
		g.Go(func() error {
			var err error
			gym, err = s.gymRepo.GetByID(gctx, *game.GymID)
			if errors.Is(err, repositories.ErrGymNotFound) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load game %d details: %w", id, err)
	}

	game.ApprovedCount = &approved
	if gym != nil {
		populateGymPhotoURL(gym, s.uploader)
		game.Gym = gym
	}
	game.Status = game.StatusAt(s.clock.current(), s.clock.location())
	return game, nil
}

func (s *gameService) UpdateGame(ctx context.Context, id, ownerID int, input GameInput) (*models.Game, error) {
	existing, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	if existing.OwnerID != ownerID {
		return nil, ErrForbiddenOperation
	}

	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.checkGym(ctx, input.GymID); err != nil {
		return nil, err
	}

	approved, err := s.participantRepo.CountByStatus(ctx, id, models.ParticipantApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved participants: %w", err)
	}
	if input.MaxParticipants < approved {
		return nil, ErrGameCapacityBelowApproved
	}

	input.apply(existing)
	if err := s.gameRepo.Update(ctx, existing, ownerID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, s.mapGameWriteError(err)
	}

	existing.ReminderSentAt = nil
	existing.ApprovedCount = &approved
	existing.Status = existing.StatusAt(s.clock.current(), s.clock.location())
	return existing, nil
}

func (s *gameService) DeleteGame(ctx context.Context, id, ownerID int) error {
	existing, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to get game %d: %w", id, err)
	}
	if existing.OwnerID != ownerID {
		return ErrForbiddenOperation
	}
	if err := s.gameRepo.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to delete game %d: %w", id, err)
	}
	return nil
}

// ListGames строит фильтр ленты: окно дат по умолчанию, сортировка по дате и времени начала.
func (s *gameService) ListGames(ctx context.Context, query ListingQuery) (*GamePage, error) {
	from, to := s.listingWindow(query.From, query.To)
	if to.Before(from.Time) {
		return nil, fmt.Errorf("%w: 'to' must not be before 'from'", ErrValidationFailed)
	}
	if query.Gender != nil && !query.Gender.Valid() {
		return nil, fmt.Errorf("%w: unknown gender tag %q", ErrValidationFailed, *query.Gender)
	}
	if query.Skill != nil && !query.Skill.Valid() {
		return nil, fmt.Errorf("%w: unknown skill tag %q", ErrValidationFailed, *query.Skill)
	}

	filter := repositories.GameFilter{
		DateFrom: &from,
		DateTo:   &to,
		Regions:  cleanRegions(query.Regions),
		Gender:   query.Gender,
		Skill:    query.Skill,
		Search:   strings.TrimSpace(query.Search),
	}

	page, err := s.listPage(ctx, filter, query.Page)
	if err != nil {
		return nil, err
	}
	page.From, page.To = from, to
	return page, nil
}

func (s *gameService) ListHostedGames(ctx context.Context, ownerID, page int) (*GamePage, error) {
	return s.listPage(ctx, repositories.GameFilter{OwnerID: &ownerID}, page)
}

// listPage выполняет выборку страницы и подсчёт общего количества параллельно.
func (s *gameService) listPage(ctx context.Context, filter repositories.GameFilter, page int) (*GamePage, error) {
	page = normalizePage(page)
	filter.Limit = s.pageSize
	filter.Offset = pageOffset(page, s.pageSize)

	var games []models.Game
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		games, err = s.gameRepo.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.gameRepo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	now := s.clock.current()
	for i := range games {
		games[i].Status = games[i].StatusAt(now, s.clock.location())
	}

	return &GamePage{
		Games:      games,
		Pagination: newPagination(page, s.pageSize, total),
	}, nil
}

// listingWindow: без дат - [сегодня, сегодня+14]; только from - [from, from+14].
func (s *gameService) listingWindow(from, to *models.Date) (models.Date, models.Date) {
	start := s.clock.today()
	if from != nil {
		start = *from
	}
	if to != nil {
		return start, *to
	}
	return start, start.AddDays(DefaultListingWindowDays)
}

func cleanRegions(regions []string) []string {
	seen := make(map[string]bool, len(regions))
	result := make([]string, 0, len(regions))
	for _, r := range regions {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		result = append(result, r)
	}
	return result
}

func (s *gameService) mapGameWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrGameInvalidGym):
		return fmt.Errorf("%w: gym does not exist", ErrValidationFailed)
	case errors.Is(err, repositories.ErrGameInvalidOwner):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrGameInvalid):
		return fmt.Errorf("%w: game violates schedule or capacity rules", ErrValidationFailed)
	}
	return fmt.Errorf("failed to save game: %w", err)
}
