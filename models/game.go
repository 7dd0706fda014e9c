package models

import "time"

// GenderTag ограничивает состав игроков.
type GenderTag string

const (
	GenderAny    GenderTag = "any"
	GenderMale   GenderTag = "male"
	GenderFemale GenderTag = "female"
	GenderMixed  GenderTag = "mixed"
)

func (g GenderTag) Valid() bool {
	switch g {
	case GenderAny, GenderMale, GenderFemale, GenderMixed:
		return true
	}
	return false
}

// SkillTag - ожидаемый уровень игры.
type SkillTag string

const (
	SkillAny          SkillTag = "any"
	SkillBeginner     SkillTag = "beginner"
	SkillIntermediate SkillTag = "intermediate"
	SkillAdvanced     SkillTag = "advanced"
)

func (s SkillTag) Valid() bool {
	switch s {
	case SkillAny, SkillBeginner, SkillIntermediate, SkillAdvanced:
		return true
	}
	return false
}

// GameStatus is derived from the schedule and never stored.
type GameStatus string

const (
	GameUpcoming GameStatus = "upcoming"
	GamePast     GameStatus = "past"
)

// Game представляет объявление о пикап-игре.
type Game struct {
	ID              int        `json:"id" db:"id"`
	OwnerID         int        `json:"owner_id" db:"owner_id"`
	GymID           *int       `json:"gym_id,omitempty" db:"gym_id"`
	Title           string     `json:"title" db:"title"`
	Description     *string    `json:"description,omitempty" db:"description"`
	GameDate        Date       `json:"game_date" db:"game_date"`
	StartTime       ClockTime  `json:"start_time" db:"start_time"`
	EndTime         ClockTime  `json:"end_time" db:"end_time"`
	MinParticipants int        `json:"min_participants" db:"min_participants"`
	MaxParticipants int        `json:"max_participants" db:"max_participants"`
	Fee             int        `json:"fee" db:"fee"`
	Region          string     `json:"region" db:"region"`
	Gender          GenderTag  `json:"gender" db:"gender"`
	Skill           SkillTag   `json:"skill" db:"skill"`
	ReminderSentAt  *time.Time `json:"-" db:"reminder_sent_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`

	// Вычисляемые поля
	Status        GameStatus    `json:"status,omitempty" db:"-"`
	ApprovedCount *int          `json:"approved_count,omitempty" db:"-"`
	Gym           *Gym          `json:"gym,omitempty" db:"-"`
	Participants  []Participant `json:"participants,omitempty" db:"-"`
}

// StartsAt returns the scheduled start in loc.
func (g *Game) StartsAt(loc *time.Location) time.Time {
	return At(g.GameDate, g.StartTime, loc)
}

func (g *Game) EndsAt(loc *time.Location) time.Time {
	return At(g.GameDate, g.EndTime, loc)
}

func (g *Game) HasStarted(now time.Time, loc *time.Location) bool {
	return now.After(g.StartsAt(loc))
}

func (g *Game) StatusAt(now time.Time, loc *time.Location) GameStatus {
	if g.HasStarted(now, loc) {
		return GamePast
	}
	return GameUpcoming
}
