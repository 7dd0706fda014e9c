package models

import "time"

type Message struct {
	ID          int        `json:"id" db:"id"`
	SenderID    int        `json:"sender_id" db:"sender_id"`
	RecipientID int        `json:"recipient_id" db:"recipient_id"`
	GameID      *int       `json:"game_id,omitempty" db:"game_id"`
	Body        string     `json:"body" db:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Conversation - последняя переписка с собеседником для списка входящих.
type Conversation struct {
	Counterpart *User   `json:"counterpart"`
	LastMessage Message `json:"last_message"`
	UnreadCount int     `json:"unread_count"`
}
