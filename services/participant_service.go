package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories"
)

// ParticipantService - движок заявок: подача, смена статуса владельцем, отзыв.
// Состояние между вызовами не хранится, каждый вызов заново читает данные из репозиториев.
type ParticipantService interface {
	Apply(ctx context.Context, gameID, applicantID int) (*models.Participant, error)
	UpdateApplicationStatus(ctx context.Context, input UpdateApplicationStatusInput) (*models.Participant, error)
	Withdraw(ctx context.Context, participantID, userID int) error
	ListApplications(ctx context.Context, gameID, viewerID int) ([]models.Participant, error)
	ListMyApplications(ctx context.Context, userID int) ([]models.Participant, error)
}

type UpdateApplicationStatusInput struct {
	ParticipantID int
	GameID        int
	// ApplicantID, если задан, должен совпадать с автором заявки.
	ApplicantID *int
	Status      models.ParticipantStatus
	// ActorID - владелец игры, от имени которого выполняется запрос.
	ActorID int
}

type participantService struct {
	participantRepo repositories.ParticipantRepository
	gameRepo        repositories.GameRepository
	profileRepo     repositories.ProfileRepository
	clock           Clock
	outcomes        OutcomeRecorder
}

func NewParticipantService(
	participantRepo repositories.ParticipantRepository,
	gameRepo repositories.GameRepository,
	profileRepo repositories.ProfileRepository,
	clock Clock,
	outcomes OutcomeRecorder,
) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
		gameRepo:        gameRepo,
		profileRepo:     profileRepo,
		clock:           clock,
		outcomes:        outcomes,
	}
}

func (s *participantService) Apply(ctx context.Context, gameID, applicantID int) (p *models.Participant, err error) {
	defer func() { recordOutcome(s.outcomes, opApply, err) }()

	// Порядок проверок важен: повторная подача определяется раньше всего остального.
	_, err = s.participantRepo.FindByGameAndUser(ctx, gameID, applicantID)
	switch {
	case err == nil:
		return nil, ErrAlreadyApplied
	case !errors.Is(err, repositories.ErrParticipantNotFound):
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}

	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to load game %d: %w", gameID, err)
	}

	if game.HasStarted(s.clock.current(), s.clock.location()) {
		return nil, ErrAlreadyStarted
	}

	approved, err := s.participantRepo.CountByStatus(ctx, gameID, models.ParticipantApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved participants: %w", err)
	}
	if approved >= game.MaxParticipants {
		return nil, ErrCapacityFull
	}

	if game.OwnerID == applicantID {
		return nil, ErrCannotApplyToOwnListing
	}

	profile, err := s.profileRepo.GetByUserID(ctx, applicantID)
	if err != nil && !errors.Is(err, repositories.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to load applicant profile: %w", err)
	}
	if !profile.IsComplete() {
		return nil, ErrProfileIncomplete
	}

	p = &models.Participant{
		GameID: gameID,
		UserID: applicantID,
		Status: models.ParticipantPending,
	}
	if err = s.participantRepo.Create(ctx, p); err != nil {
		switch {
		case errors.Is(err, repositories.ErrParticipantConflict):
			return nil, ErrAlreadyApplied
		case errors.Is(err, repositories.ErrParticipantGameInvalid):
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return p, nil
}

func (s *participantService) UpdateApplicationStatus(ctx context.Context, input UpdateApplicationStatusInput) (p *models.Participant, err error) {
	if !input.Status.Valid() {
		return nil, ErrInvalidApplicationStatus
	}
	defer func() { recordOutcome(s.outcomes, opUpdateStatus, err) }()

	p, err = s.participantRepo.FindByID(ctx, input.ParticipantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to load application %d: %w", input.ParticipantID, err)
	}
	if p.GameID != input.GameID || (input.ApplicantID != nil && p.UserID != *input.ApplicantID) {
		return nil, ErrApplicationNotFound
	}

	game, err := s.gameRepo.GetByID(ctx, input.GameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to load game %d: %w", input.GameID, err)
	}

	if input.Status != models.ParticipantApproved {
		err = s.participantRepo.UpdateStatus(ctx, p.ID, game.ID, input.ActorID, input.Status)
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrApplicationNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update application status: %w", err)
		}
		p.Status = input.Status
		return p, nil
	}

	// Сама заявка в подсчёт не входит.
	approved, err := s.participantRepo.CountByStatus(ctx, game.ID, models.ParticipantApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved participants: %w", err)
	}
	if p.Status == models.ParticipantApproved {
		approved--
	}
	if approved >= game.MaxParticipants {
		return nil, ErrCapacityFull
	}

	err = s.participantRepo.ApproveWithinCapacity(ctx, p.ID, game.ID, input.ActorID)
	switch {
	case err == nil:
		p.Status = models.ParticipantApproved
		return p, nil
	case errors.Is(err, repositories.ErrCapacityExceeded):
		return nil, ErrCapacityFull
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return nil, ErrApplicationNotFound
	}
	return nil, fmt.Errorf("failed to approve application: %w", err)
}

// Withdraw удаляет заявку пользователя. Чужая или несуществующая заявка молча игнорируется.
func (s *participantService) Withdraw(ctx context.Context, participantID, userID int) (err error) {
	defer func() { recordOutcome(s.outcomes, opWithdraw, err) }()

	if err = s.participantRepo.DeleteOwn(ctx, participantID, userID); err != nil {
		return fmt.Errorf("failed to withdraw application %d: %w", participantID, err)
	}
	return nil
}

func (s *participantService) ListApplications(ctx context.Context, gameID, viewerID int) ([]models.Participant, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %d: %w", gameID, err)
	}

	var statusFilter *models.ParticipantStatus
	if game.OwnerID != viewerID {
		approved := models.ParticipantApproved
		statusFilter = &approved
	}

	participants, err := s.participantRepo.ListByGame(ctx, gameID, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications for game %d: %w", gameID, err)
	}
	return participants, nil
}

func (s *participantService) ListMyApplications(ctx context.Context, userID int) ([]models.Participant, error) {
	participants, err := s.participantRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications of user %d: %w", userID, err)
	}
	now := s.clock.current()
	for i := range participants {
		if g := participants[i].Game; g != nil {
			g.Status = g.StatusAt(now, s.clock.location())
		}
	}
	return participants, nil
}
