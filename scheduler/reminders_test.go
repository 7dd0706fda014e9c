package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories/memrepo"
	"github.com/Dosada05/pickup-hoops/services"
)

type recordingNotifier struct {
	games      []int
	recipients map[int][]int
}

func (n *recordingNotifier) GameReminder(_ context.Context, game *models.Game, participants []models.Participant) int {
	n.games = append(n.games, game.ID)
	if n.recipients == nil {
		n.recipients = make(map[int][]int)
	}
	for _, p := range participants {
		n.recipients[game.ID] = append(n.recipients[game.ID], p.UserID)
	}
	return len(participants)
}

type counter struct{ total int }

func (c *counter) RemindersSent(n int) { c.total += n }

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newScheduler(t *testing.T, store *memrepo.Store, n ReminderNotifier, c ReminderCounter) *Scheduler {
	t.Helper()
	clock := services.Clock{Location: time.UTC, Now: func() time.Time { return now }}
	s, err := New(Config{Schedule: "*/10 * * * *", Lead: 2 * time.Hour},
		store.Games(), store.Participants(), n, c, clock,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func seedGame(t *testing.T, store *memrepo.Store, ownerID int, date models.Date, startHour int) *models.Game {
	t.Helper()
	g := &models.Game{
		OwnerID:         ownerID,
		Title:           "Lunch run",
		GameDate:        date,
		StartTime:       models.ClockTime{Hour: startHour},
		EndTime:         models.ClockTime{Hour: startHour + 1},
		MinParticipants: 1,
		MaxParticipants: 10,
		Region:          "Seoul",
		Gender:          models.GenderAny,
		Skill:           models.SkillAny,
	}
	require.NoError(t, store.Games().Create(context.Background(), g))
	return g
}

func seedUser(t *testing.T, store *memrepo.Store, nickname string) *models.User {
	t.Helper()
	u := &models.User{Email: nickname + "@example.com", Nickname: nickname, Role: models.RolePlayer, PasswordHash: "x"}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func TestSendReminders(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New()
	owner := seedUser(t, store, "owner")
	approved := seedUser(t, store, "approved")
	pending := seedUser(t, store, "pending")

	today := models.DateOf(now)
	soon := seedGame(t, store, owner.ID, today, 13)
	seedGame(t, store, owner.ID, today, 19) // за пределами окна
	seedGame(t, store, owner.ID, today, 11) // уже началась
	seedGame(t, store, owner.ID, today.AddDays(1), 13)

	require.NoError(t, store.Participants().Create(ctx, &models.Participant{GameID: soon.ID, UserID: approved.ID, Status: models.ParticipantApproved}))
	require.NoError(t, store.Participants().Create(ctx, &models.Participant{GameID: soon.ID, UserID: pending.ID, Status: models.ParticipantPending}))

	notifier := &recordingNotifier{}
	c := &counter{}
	s := newScheduler(t, store, notifier, c)

	sent, err := s.SendReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []int{soon.ID}, notifier.games)
	assert.Equal(t, []int{approved.ID}, notifier.recipients[soon.ID])
	assert.Equal(t, 1, c.total)

	stored, err := store.Games().GetByID(ctx, soon.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReminderSentAt)

	// Повторный запуск не шлёт напоминание второй раз.
	sent, err = s.SendReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, notifier.games, 1)
}

func TestSendRemindersRepositoryError(t *testing.T) {
	store := memrepo.New()
	s := newScheduler(t, store, &recordingNotifier{}, nil)

	boom := errors.New("db down")
	store.FailNext(boom)
	_, err := s.SendReminders(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	store := memrepo.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(Config{Schedule: "not a cron", Lead: time.Hour}, store.Games(), store.Participants(), &recordingNotifier{}, nil, services.Clock{}, logger)
	assert.Error(t, err)

	_, err = New(Config{Schedule: "@every 1m", Lead: 0}, store.Games(), store.Participants(), &recordingNotifier{}, nil, services.Clock{}, logger)
	assert.Error(t, err)
}
