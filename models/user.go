package models

import "time"

type UserRole string

const (
	RolePlayer UserRole = "player"
	RoleAdmin  UserRole = "admin"
)

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email,omitempty"`
	Nickname     string    `json:"nickname"`
	Role         UserRole  `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public strips fields other users must not see.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, Nickname: u.Nickname, Role: u.Role, CreatedAt: u.CreatedAt}
}
