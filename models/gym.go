package models

import "time"

// Gym - площадка/зал, где проходят игры.
type Gym struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Address    string    `json:"address" db:"address"`
	Region     string    `json:"region" db:"region"`
	CourtCount int       `json:"court_count" db:"court_count"`
	Indoor     bool      `json:"indoor" db:"indoor"`
	HasParking bool      `json:"has_parking" db:"has_parking"`
	Notes      *string   `json:"notes,omitempty" db:"notes"`
	PhotoKey   *string   `json:"-" db:"photo_key"`
	PhotoURL   *string   `json:"photo_url,omitempty" db:"-"`
	CreatedBy  int       `json:"created_by" db:"created_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
