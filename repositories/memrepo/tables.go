package memrepo

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories"
)

// --- games ---

type gameRepo struct{ s *Store }

func validGame(g *models.Game) bool {
	return g.MinParticipants >= 1 && g.MinParticipants <= g.MaxParticipants &&
		g.StartTime.Before(g.EndTime) && g.Fee >= 0
}

func (r gameRepo) checkRefs(g *models.Game) error {
	if _, ok := r.s.users[g.OwnerID]; !ok {
		return repositories.ErrGameInvalidOwner
	}
	if g.GymID != nil {
		if _, ok := r.s.gyms[*g.GymID]; !ok {
			return repositories.ErrGameInvalidGym
		}
	}
	if !validGame(g) {
		return repositories.ErrGameInvalid
	}
	return nil
}

func (r gameRepo) Create(_ context.Context, g *models.Game) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	if err := r.checkRefs(g); err != nil {
		return err
	}
	g.ID = r.s.nextID()
	g.CreatedAt = r.s.now()
	stored := *g
	stored.ApprovedCount, stored.Gym, stored.Participants, stored.Status = nil, nil, nil, ""
	r.s.games[g.ID] = stored
	return nil
}

func (r gameRepo) GetByID(_ context.Context, id int) (*models.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	g, ok := r.s.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	return &g, nil
}

func (r gameRepo) Update(_ context.Context, g *models.Game, ownerID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	existing, ok := r.s.games[g.ID]
	if !ok || existing.OwnerID != ownerID {
		return repositories.ErrGameNotFound
	}
	updated := *g
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	updated.ReminderSentAt = nil
	updated.ApprovedCount, updated.Gym, updated.Participants, updated.Status = nil, nil, nil, ""
	if err := r.checkRefs(&updated); err != nil {
		return err
	}
	r.s.games[g.ID] = updated
	return nil
}

func (r gameRepo) Delete(_ context.Context, id, ownerID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	existing, ok := r.s.games[id]
	if !ok || existing.OwnerID != ownerID {
		return repositories.ErrGameNotFound
	}
	delete(r.s.games, id)
	for pid, p := range r.s.participants {
		if p.GameID == id {
			delete(r.s.participants, pid)
		}
	}
	for mid, m := range r.s.messages {
		if m.GameID != nil && *m.GameID == id {
			m.GameID = nil
			r.s.messages[mid] = m
		}
	}
	return nil
}

func (r gameRepo) matching(filter repositories.GameFilter) []models.Game {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	regions := make(map[string]bool, len(filter.Regions))
	for _, region := range filter.Regions {
		regions[region] = true
	}

	result := make([]models.Game, 0)
	for _, g := range r.s.games {
		if filter.DateFrom != nil && g.GameDate.Before(filter.DateFrom.Time) {
			continue
		}
		if filter.DateTo != nil && g.GameDate.After(filter.DateTo.Time) {
			continue
		}
		if len(regions) > 0 && !regions[g.Region] {
			continue
		}
		if filter.Gender != nil && g.Gender != *filter.Gender {
			continue
		}
		if filter.Skill != nil && g.Skill != *filter.Skill {
			continue
		}
		if filter.OwnerID != nil && g.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.GymID != nil && (g.GymID == nil || *g.GymID != *filter.GymID) {
			continue
		}
		if search != "" {
			text := strings.ToLower(g.Title)
			if g.Description != nil {
				text += " " + strings.ToLower(*g.Description)
			}
			if !strings.Contains(text, search) {
				continue
			}
		}
		result = append(result, g)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.GameDate.Equal(b.GameDate.Time) {
			return a.GameDate.Before(b.GameDate.Time)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime.Before(b.StartTime)
		}
		return a.ID < b.ID
	})
	return result
}

func (r gameRepo) List(_ context.Context, filter repositories.GameFilter) ([]models.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	games := paginate(r.matching(filter), filter.Limit, filter.Offset)
	for i := range games {
		approved := r.s.countParticipants(games[i].ID, models.ParticipantApproved, 0)
		games[i].ApprovedCount = &approved
	}
	return games, nil
}

func (r gameRepo) Count(_ context.Context, filter repositories.GameFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return 0, err
	}
	return len(r.matching(filter)), nil
}

func (r gameRepo) ListPendingReminders(_ context.Context, from, to models.Date) ([]models.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	games := r.matching(repositories.GameFilter{DateFrom: &from, DateTo: &to})
	pending := make([]models.Game, 0, len(games))
	for _, g := range games {
		if g.ReminderSentAt == nil {
			pending = append(pending, g)
		}
	}
	return pending, nil
}

func (r gameRepo) MarkReminderSent(_ context.Context, id int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	g, ok := r.s.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.ReminderSentAt = &at
	r.s.games[id] = g
	return nil
}

// countParticipants must be called with s.mu held. excludeID of 0 excludes nothing.
func (s *Store) countParticipants(gameID int, status models.ParticipantStatus, excludeID int) int {
	count := 0
	for _, p := range s.participants {
		if p.GameID == gameID && p.Status == status && p.ID != excludeID {
			count++
		}
	}
	return count
}

// --- participants ---

type participantRepo struct{ s *Store }

func (r participantRepo) Create(_ context.Context, p *models.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	if _, ok := r.s.games[p.GameID]; !ok {
		return repositories.ErrParticipantGameInvalid
	}
	if _, ok := r.s.users[p.UserID]; !ok {
		return repositories.ErrParticipantUserInvalid
	}
	for _, existing := range r.s.participants {
		if existing.GameID == p.GameID && existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = r.s.nextID()
	p.CreatedAt = r.s.now()
	r.s.participants[p.ID] = models.Participant{
		ID: p.ID, GameID: p.GameID, UserID: p.UserID, Status: p.Status, CreatedAt: p.CreatedAt,
	}
	return nil
}

func (r participantRepo) FindByID(_ context.Context, id int) (*models.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	p, ok := r.s.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	return &p, nil
}

func (r participantRepo) FindByGameAndUser(_ context.Context, gameID, userID int) (*models.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	for _, p := range r.s.participants {
		if p.GameID == gameID && p.UserID == userID {
			return &p, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r participantRepo) CountByStatus(_ context.Context, gameID int, status models.ParticipantStatus) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return 0, err
	}
	return r.s.countParticipants(gameID, status, 0), nil
}

func (r participantRepo) CountAllByStatus(_ context.Context) (map[models.ParticipantStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	counts := make(map[models.ParticipantStatus]int)
	for _, p := range r.s.participants {
		counts[p.Status]++
	}
	return counts, nil
}

// ownedRecord must be called with s.mu held.
func (r participantRepo) ownedRecord(id, gameID, ownerID int) (models.Participant, bool) {
	p, ok := r.s.participants[id]
	if !ok || p.GameID != gameID {
		return models.Participant{}, false
	}
	g, ok := r.s.games[gameID]
	if !ok || g.OwnerID != ownerID {
		return models.Participant{}, false
	}
	return p, true
}

func (r participantRepo) UpdateStatus(_ context.Context, id, gameID, ownerID int, status models.ParticipantStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	p, ok := r.ownedRecord(id, gameID, ownerID)
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Status = status
	r.s.participants[id] = p
	return nil
}

func (r participantRepo) ApproveWithinCapacity(_ context.Context, id, gameID, ownerID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	p, ok := r.ownedRecord(id, gameID, ownerID)
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	if r.s.countParticipants(gameID, models.ParticipantApproved, id) >= r.s.games[gameID].MaxParticipants {
		return repositories.ErrCapacityExceeded
	}
	p.Status = models.ParticipantApproved
	r.s.participants[id] = p
	return nil
}

func (r participantRepo) DeleteOwn(_ context.Context, id, userID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	if p, ok := r.s.participants[id]; ok && p.UserID == userID {
		delete(r.s.participants, id)
	}
	return nil
}

func sortParticipants(list []models.Participant, less func(a, b models.Participant) bool) {
	sort.Slice(list, func(i, j int) bool { return less(list[i], list[j]) })
}

func (r participantRepo) ListByGame(_ context.Context, gameID int, statusFilter *models.ParticipantStatus) ([]models.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}

	result := make([]models.Participant, 0)
	for _, p := range r.s.participants {
		if p.GameID != gameID || (statusFilter != nil && p.Status != *statusFilter) {
			continue
		}
		if u, ok := r.s.users[p.UserID]; ok {
			p.User = &models.User{ID: u.ID, Nickname: u.Nickname, Role: u.Role, CreatedAt: u.CreatedAt}
		}
		profile := &models.Profile{UserID: p.UserID}
		if stored, ok := r.s.profiles[p.UserID]; ok {
			profile.DisplayName = stored.DisplayName
			profile.HeightCM = stored.HeightCM
			profile.Positions = append([]models.Position(nil), stored.Positions...)
		}
		p.Profile = profile
		result = append(result, p)
	}
	sortParticipants(result, func(a, b models.Participant) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return result, nil
}

func (r participantRepo) ListByUser(_ context.Context, userID int) ([]models.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}

	result := make([]models.Participant, 0)
	for _, p := range r.s.participants {
		if p.UserID != userID {
			continue
		}
		if g, ok := r.s.games[p.GameID]; ok {
			p.Game = &g
		}
		result = append(result, p)
	}
	sortParticipants(result, func(a, b models.Participant) bool {
		if a.Game == nil || b.Game == nil {
			return a.ID > b.ID
		}
		if !a.Game.GameDate.Equal(b.Game.GameDate.Time) {
			return a.Game.GameDate.After(b.Game.GameDate.Time)
		}
		return b.Game.StartTime.Before(a.Game.StartTime)
	})
	return result, nil
}

// --- messages ---

type messageRepo struct{ s *Store }

func (r messageRepo) Create(_ context.Context, m *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return err
	}
	if _, ok := r.s.users[m.SenderID]; !ok {
		return repositories.ErrMessageUserInvalid
	}
	if _, ok := r.s.users[m.RecipientID]; !ok {
		return repositories.ErrMessageUserInvalid
	}
	if m.GameID != nil {
		if _, ok := r.s.games[*m.GameID]; !ok {
			return repositories.ErrMessageGameInvalid
		}
	}
	if n := utf8.RuneCountInString(m.Body); n == 0 || n > 2000 {
		return repositories.ErrMessageInvalid
	}
	m.ID = r.s.nextID()
	m.CreatedAt = r.s.now()
	r.s.messages[m.ID] = *m
	return nil
}

func between(m models.Message, a, b int) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}

func newestFirst(list []models.Message) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}

func (r messageRepo) ListConversation(_ context.Context, userID, otherID, beforeID, limit int) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}
	result := make([]models.Message, 0)
	for _, m := range r.s.messages {
		if !between(m, userID, otherID) || (beforeID > 0 && m.ID >= beforeID) {
			continue
		}
		result = append(result, m)
	}
	newestFirst(result)
	return paginate(result, limit, 0), nil
}

func (r messageRepo) ListInbox(_ context.Context, userID int) ([]models.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return nil, err
	}

	all := make([]models.Message, 0)
	for _, m := range r.s.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			all = append(all, m)
		}
	}
	newestFirst(all)

	byCounterpart := make(map[int]int)
	conversations := make([]models.Conversation, 0)
	for _, m := range all {
		other := m.SenderID
		if other == userID {
			other = m.RecipientID
		}
		idx, seen := byCounterpart[other]
		if !seen {
			u := r.s.users[other]
			conversations = append(conversations, models.Conversation{
				Counterpart: &models.User{ID: u.ID, Nickname: u.Nickname, Role: u.Role, CreatedAt: u.CreatedAt},
				LastMessage: m,
			})
			idx = len(conversations) - 1
			byCounterpart[other] = idx
		}
		if m.RecipientID == userID && m.ReadAt == nil {
			conversations[idx].UnreadCount++
		}
	}
	return conversations, nil
}

func (r messageRepo) MarkConversationRead(_ context.Context, userID, otherID int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return 0, err
	}
	now := r.s.now()
	var n int64
	for id, m := range r.s.messages {
		if m.RecipientID == userID && m.SenderID == otherID && m.ReadAt == nil {
			m.ReadAt = &now
			r.s.messages[id] = m
			n++
		}
	}
	return n, nil
}

func (r messageRepo) CountUnread(_ context.Context, userID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.consumeFailure(); err != nil {
		return 0, err
	}
	count := 0
	for _, m := range r.s.messages {
		if m.RecipientID == userID && m.ReadAt == nil {
			count++
		}
	}
	return count, nil
}
