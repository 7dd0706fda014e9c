package models

import (
	"strings"
	"time"
)

// Position - игровая позиция.
type Position string

const (
	PositionPointGuard    Position = "PG"
	PositionShootingGuard Position = "SG"
	PositionSmallForward  Position = "SF"
	PositionPowerForward  Position = "PF"
	PositionCenter        Position = "C"
)

func (p Position) Valid() bool {
	switch p {
	case PositionPointGuard, PositionShootingGuard, PositionSmallForward, PositionPowerForward, PositionCenter:
		return true
	}
	return false
}

type Profile struct {
	UserID      int        `json:"user_id" db:"user_id"`
	DisplayName string     `json:"display_name" db:"display_name"`
	BirthDate   *Date      `json:"birth_date,omitempty" db:"birth_date"`
	HeightCM    *int       `json:"height_cm,omitempty" db:"height_cm"`
	Positions   []Position `json:"positions" db:"positions"`
	Region      *string    `json:"region,omitempty" db:"region"`
	Bio         *string    `json:"bio,omitempty" db:"bio"`
	AvatarKey   *string    `json:"-" db:"avatar_key"`
	AvatarURL   *string    `json:"avatar_url,omitempty" db:"-"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	Complete bool `json:"complete" db:"-"`
}

// IsComplete reports whether the fields required to apply for a game are filled.
func (p *Profile) IsComplete() bool {
	if p == nil {
		return false
	}
	return strings.TrimSpace(p.DisplayName) != "" &&
		p.BirthDate != nil &&
		p.HeightCM != nil && *p.HeightCM > 0 &&
		len(p.Positions) > 0
}
