// Package scheduler запускает периодические задачи сервиса: напоминания о скорых играх.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories"
	"github.com/Dosada05/pickup-hoops/services"
)

// ReminderNotifier реализуется services.Notifier.
type ReminderNotifier interface {
	GameReminder(ctx context.Context, game *models.Game, participants []models.Participant) int
}

// ReminderCounter реализуется metrics.Registry.
type ReminderCounter interface {
	RemindersSent(n int)
}

type Config struct {
	Schedule string
	Lead     time.Duration
	Timeout  time.Duration
}

type Scheduler struct {
	games        repositories.GameRepository
	participants repositories.ParticipantRepository
	notifier     ReminderNotifier
	counter      ReminderCounter
	clock        services.Clock
	lead         time.Duration
	timeout      time.Duration
	logger       *slog.Logger

	cron *cron.Cron
}

func New(
	cfg Config,
	games repositories.GameRepository,
	participants repositories.ParticipantRepository,
	notifier ReminderNotifier,
	counter ReminderCounter,
	clock services.Clock,
	logger *slog.Logger,
) (*Scheduler, error) {
	if cfg.Lead <= 0 {
		return nil, fmt.Errorf("scheduler: reminder lead must be positive, got %s", cfg.Lead)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}

	s := &Scheduler{
		games:        games,
		participants: participants,
		notifier:     notifier,
		counter:      counter,
		clock:        clock,
		lead:         cfg.Lead,
		timeout:      cfg.Timeout,
		logger:       logger,
		cron:         cron.New(cron.WithLocation(clock.Current().Location())),
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, s.tick); err != nil {
		return nil, fmt.Errorf("scheduler: invalid reminder schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reminder scheduler started", slog.Duration("lead", s.lead))
}

// Stop ждёт завершения текущего запуска, но не дольше ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("reminder scheduler did not stop in time")
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	sent, err := s.SendReminders(ctx)
	if err != nil {
		s.logger.Error("reminder run failed", slog.Any("error", err))
		return
	}
	if sent > 0 {
		s.logger.Info("game reminders sent", slog.Int("recipients", sent))
	}
}

// SendReminders уведомляет участников игр, начинающихся в ближайшие lead, и возвращает число адресатов.
// Ошибка по отдельной игре логируется и не прерывает обработку остальных.
func (s *Scheduler) SendReminders(ctx context.Context) (int, error) {
	now := s.clock.Current()
	horizon := now.Add(s.lead)
	loc := now.Location()

	games, err := s.games.ListPendingReminders(ctx, models.DateOf(now), models.DateOf(horizon))
	if err != nil {
		return 0, fmt.Errorf("list pending reminders: %w", err)
	}

	total := 0
	for i := range games {
		game := &games[i]
		start := game.StartsAt(loc)
		if !start.After(now) || start.After(horizon) {
			continue
		}

		approved := models.ParticipantApproved
		participants, err := s.participants.ListByGame(ctx, game.ID, &approved)
		if err != nil {
			s.logger.WarnContext(ctx, "reminder: failed to load participants",
				slog.Int("game_id", game.ID), slog.Any("error", err))
			continue
		}

		sent := s.notifier.GameReminder(ctx, game, participants)

		if err := s.games.MarkReminderSent(ctx, game.ID, now); err != nil {
			s.logger.WarnContext(ctx, "reminder: failed to mark game",
				slog.Int("game_id", game.ID), slog.Any("error", err))
		}
		if s.counter != nil {
			s.counter.RemindersSent(sent)
		}
		total += sent
	}
	return total, nil
}
