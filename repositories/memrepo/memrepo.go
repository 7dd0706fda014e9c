// Package memrepo is an in-memory implementation of the repository interfaces.
// It follows the same access rules as the PostgreSQL repositories and is used in tests.
package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories"
)

// Store holds every table. Repositories returned by its methods share the data.
type Store struct {
	mu sync.Mutex

	seq          int
	users        map[int]models.User
	profiles     map[int]models.Profile
	gyms         map[int]models.Gym
	games        map[int]models.Game
	participants map[int]models.Participant
	messages     map[int]models.Message

	failNext error
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:        make(map[int]models.User),
		profiles:     make(map[int]models.Profile),
		gyms:         make(map[int]models.Gym),
		games:        make(map[int]models.Game),
		participants: make(map[int]models.Participant),
		messages:     make(map[int]models.Message),
		now:          time.Now,
	}
}

// FailNext makes the next repository call return err.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

// consumeFailure must be called with s.mu held.
func (s *Store) consumeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *Store) nextID() int {
	s.seq++
	return s.seq
}

func (s *Store) Users() repositories.UserRepository               { return userRepo{s} }
func (s *Store) Profiles() repositories.ProfileRepository         { return profileRepo{s} }
func (s *Store) Gyms() repositories.GymRepository                 { return gymRepo{s} }
func (s *Store) Games() repositories.GameRepository               { return gameRepo{s} }
func (s *Store) Participants() repositories.ParticipantRepository { return participantRepo{s} }
func (s *Store) Messages() repositories.MessageRepository         { return messageRepo{s} }

// --- users ---

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repositories.ErrUserEmailConflict
		}
		if existing.Nickname == u.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	u.ID = r.s.nextID()
	u.CreatedAt = r.s.now()
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r userRepo) ListByIDs(_ context.Context, ids []int) (map[int]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	result := make(map[int]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			result[id] = &u
		}
	}
	return result, nil
}

// --- profiles ---

type profileRepo struct{ s *Store }

func (r profileRepo) GetByUserID(_ context.Context, userID int) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	p.Positions = append([]models.Position(nil), p.Positions...)
	return &p, nil
}

func (r profileRepo) Upsert(_ context.Context, p *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	if _, ok := r.s.users[p.UserID]; !ok {
		return repositories.ErrProfileUserInvalid
	}
	if p.HeightCM != nil && (*p.HeightCM < 100 || *p.HeightCM > 250) {
		return repositories.ErrProfileInvalid
	}
	stored := *p
	if existing, ok := r.s.profiles[p.UserID]; ok {
		stored.AvatarKey = existing.AvatarKey
	}
	stored.Positions = append([]models.Position(nil), p.Positions...)
	stored.UpdatedAt = r.s.now()
	p.UpdatedAt = stored.UpdatedAt
	r.s.profiles[p.UserID] = stored
	return nil
}

func (r profileRepo) UpdateAvatarKey(_ context.Context, userID int, avatarKey *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	p, ok := r.s.profiles[userID]
	if !ok {
		return repositories.ErrProfileNotFound
	}
	p.AvatarKey = avatarKey
	p.UpdatedAt = r.s.now()
	r.s.profiles[userID] = p
	return nil
}

// --- gyms ---

type gymRepo struct{ s *Store }

func (r gymRepo) Create(_ context.Context, g *models.Gym) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	if _, ok := r.s.users[g.CreatedBy]; !ok {
		return repositories.ErrGymInvalidCreator
	}
	g.ID = r.s.nextID()
	g.CreatedAt = r.s.now()
	r.s.gyms[g.ID] = *g
	return nil
}

func (r gymRepo) GetByID(_ context.Context, id int) (*models.Gym, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	g, ok := r.s.gyms[id]
	if !ok {
		return nil, repositories.ErrGymNotFound
	}
	return &g, nil
}

func (r gymRepo) Update(_ context.Context, g *models.Gym) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	existing, ok := r.s.gyms[g.ID]
	if !ok {
		return repositories.ErrGymNotFound
	}
	updated := *g
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	updated.PhotoKey = existing.PhotoKey
	r.s.gyms[g.ID] = updated
	return nil
}

func (r gymRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	if _, ok := r.s.gyms[id]; !ok {
		return repositories.ErrGymNotFound
	}
	delete(r.s.gyms, id)
	// ON DELETE SET NULL
	for gameID, game := range r.s.games {
		if game.GymID != nil && *game.GymID == id {
			game.GymID = nil
			r.s.games[gameID] = game
		}
	}
	return nil
}

func (r gymRepo) matching(filter repositories.GymFilter) []models.Gym {
	region := strings.TrimSpace(filter.Region)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	result := make([]models.Gym, 0)
	for _, g := range r.s.gyms {
		if region != "" && g.Region != region {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(g.Name), search) &&
			!strings.Contains(strings.ToLower(g.Address), search) {
			continue
		}
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r gymRepo) List(_ context.Context, filter repositories.GymFilter) ([]models.Gym, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	return paginate(r.matching(filter), filter.Limit, filter.Offset), nil
}

func (r gymRepo) Count(_ context.Context, filter repositories.GymFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return 0, err
	}
	return len(r.matching(filter)), nil
}

func (r gymRepo) UpdatePhotoKey(_ context.Context, id int, photoKey *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	g, ok := r.s.gyms[id]
	if !ok {
		return repositories.ErrGymNotFound
	}
	g.PhotoKey = photoKey
	r.s.gyms[id] = g
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return make([]T, 0)
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (r userRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return 0, err
	}
	return len(r.s.users), nil
}
