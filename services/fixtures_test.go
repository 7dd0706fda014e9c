package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories/memrepo"
	"github.com/Dosada05/pickup-hoops/storage"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	store *memrepo.Store
	now   time.Time
	clock Clock

	outcomes *outcomeLog
	engine   ParticipantService
	games    GameService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, store: memrepo.New(), now: testNow, outcomes: &outcomeLog{}}
	f.clock = Clock{Location: time.UTC, Now: func() time.Time { return f.now }}
	f.engine = NewParticipantService(f.store.Participants(), f.store.Games(), f.store.Profiles(), f.clock, f.outcomes)
	f.games = NewGameService(f.store.Games(), f.store.Participants(), f.store.Gyms(), nil, f.clock, 2)
	return f
}

func (f *fixture) user(nickname string) *models.User {
	f.t.Helper()
	u := &models.User{
		Email:        nickname + "@example.com",
		Nickname:     nickname,
		Role:         models.RolePlayer,
		PasswordHash: "x",
	}
	require.NoError(f.t, f.store.Users().Create(context.Background(), u))
	return u
}

// player creates a user with a profile complete enough to apply.
func (f *fixture) player(nickname string) *models.User {
	f.t.Helper()
	u := f.user(nickname)
	birth := models.NewDate(1995, time.May, 4)
	height := 185
	require.NoError(f.t, f.store.Profiles().Upsert(context.Background(), &models.Profile{
		UserID:      u.ID,
		DisplayName: nickname,
		BirthDate:   &birth,
		HeightCM:    &height,
		Positions:   []models.Position{models.PositionPointGuard},
	}))
	return u
}

func (f *fixture) game(ownerID, maxParticipants int, date models.Date) *models.Game {
	f.t.Helper()
	g := &models.Game{
		OwnerID:         ownerID,
		Title:           fmt.Sprintf("Run %d", maxParticipants),
		GameDate:        date,
		StartTime:       models.ClockTime{Hour: 19},
		EndTime:         models.ClockTime{Hour: 21},
		MinParticipants: 1,
		MaxParticipants: maxParticipants,
		Region:          "Seoul",
		Gender:          models.GenderAny,
		Skill:           models.SkillAny,
	}
	require.NoError(f.t, f.store.Games().Create(context.Background(), g))
	return g
}

func (f *fixture) upcoming(ownerID, maxParticipants int) *models.Game {
	return f.game(ownerID, maxParticipants, models.DateOf(f.now).AddDays(2))
}

func (f *fixture) approvedCount(gameID int) int {
	f.t.Helper()
	n, err := f.store.Participants().CountByStatus(context.Background(), gameID, models.ParticipantApproved)
	require.NoError(f.t, err)
	return n
}

type outcomeLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *outcomeLog) EngineOutcome(operation, outcome string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, operation+":"+outcome)
}

func (l *outcomeLog) last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return ""
	}
	return l.entries[len(l.entries)-1]
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string]string)}
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = contentType + ":" + string(data)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}
