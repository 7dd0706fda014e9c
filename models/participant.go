package models

import "time"

// ParticipantStatus - статус заявки на участие в игре.
type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "pending"
	ParticipantApproved ParticipantStatus = "approved"
	ParticipantRejected ParticipantStatus = "rejected"
)

func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantPending, ParticipantApproved, ParticipantRejected:
		return true
	}
	return false
}

type Participant struct {
	ID        int               `json:"id" db:"id"`
	GameID    int               `json:"game_id" db:"game_id"`
	UserID    int               `json:"user_id" db:"user_id"`
	Status    ParticipantStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`

	User    *User    `json:"user,omitempty" db:"-"`
	Profile *Profile `json:"profile,omitempty" db:"-"`
	Game    *Game    `json:"game,omitempty" db:"-"`
}
