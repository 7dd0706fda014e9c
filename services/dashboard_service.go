package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories"
)

// DashboardStats - сводка для администратора.
type DashboardStats struct {
	UsersTotal       int `json:"users_total"`
	GamesTotal       int `json:"games_total"`
	UpcomingGames    int `json:"upcoming_games"`
	PendingRequests  int `json:"pending_requests"`
	ApprovedRequests int `json:"approved_requests"`
	RejectedRequests int `json:"rejected_requests"`
}

type DashboardService interface {
	GetStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	userRepo        repositories.UserRepository
	gameRepo        repositories.GameRepository
	participantRepo repositories.ParticipantRepository
	clock           Clock
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	gameRepo repositories.GameRepository,
	participantRepo repositories.ParticipantRepository,
	clock Clock,
) DashboardService {
	return &dashboardService{
		userRepo:        userRepo,
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		clock:           clock,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	today := s.clock.today()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.UsersTotal, err = s.userRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.GamesTotal, err = s.gameRepo.Count(gctx, repositories.GameFilter{})
		return err
	})
	g.Go(func() (err error) {
		// Включает сегодняшние игры, в том числе уже начавшиеся.
		stats.UpcomingGames, err = s.gameRepo.Count(gctx, repositories.GameFilter{DateFrom: &today})
		return err
	})
	g.Go(func() error {
		counts, err := s.participantRepo.CountAllByStatus(gctx)
		if err != nil {
			return err
		}
		stats.PendingRequests = counts[models.ParticipantPending]
		stats.ApprovedRequests = counts[models.ParticipantApproved]
		stats.RejectedRequests = counts[models.ParticipantRejected]
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect dashboard stats: %w", err)
	}
	return &stats, nil
}
