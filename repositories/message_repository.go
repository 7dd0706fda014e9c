package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/pickup-hoops/models"
)

var (
	ErrMessageUserInvalid = errors.New("message sender or recipient is invalid")
	ErrMessageGameInvalid = errors.New("message game reference is invalid")
	ErrMessageInvalid     = errors.New("message violates a check constraint")
)

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	// ListConversation returns messages between two users, newest first.
	// A positive beforeID limits the result to older messages.
	ListConversation(ctx context.Context, userID, otherID, beforeID, limit int) ([]models.Message, error)
	ListInbox(ctx context.Context, userID int) ([]models.Conversation, error)
	MarkConversationRead(ctx context.Context, userID, otherID int) (int64, error)
	CountUnread(ctx context.Context, userID int) (int, error)
}

type postgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) MessageRepository {
	return &postgresMessageRepository{db: db}
}

func (r *postgresMessageRepository) Create(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (sender_id, recipient_id, game_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, m.SenderID, m.RecipientID, m.GameID, m.Body).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case pqForeignKeyViolation:
				if pqErr.Constraint == "messages_game_id_fkey" {
					return ErrMessageGameInvalid
				}
				return ErrMessageUserInvalid
			case pqCheckViolation:
				return ErrMessageInvalid
			}
		}
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *postgresMessageRepository) ListConversation(ctx context.Context, userID, otherID, beforeID, limit int) ([]models.Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, game_id, body, read_at, created_at
		FROM messages
		WHERE ((sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1))`
	args := []interface{}{userID, otherID}

	if beforeID > 0 {
		query += " AND id < $3"
		args = append(args, beforeID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.GameID, &m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

func (r *postgresMessageRepository) ListInbox(ctx context.Context, userID int) ([]models.Conversation, error) {
	query := `
		SELECT DISTINCT ON (m.other_id)
			m.id, m.sender_id, m.recipient_id, m.game_id, m.body, m.read_at, m.created_at,
			u.id, u.nickname, u.role, u.created_at,
			(SELECT COUNT(*) FROM messages x
				WHERE x.sender_id = m.other_id AND x.recipient_id = $1 AND x.read_at IS NULL)
		FROM (
			SELECT msg.*, CASE WHEN msg.sender_id = $1 THEN msg.recipient_id ELSE msg.sender_id END AS other_id
			FROM messages msg
			WHERE msg.sender_id = $1 OR msg.recipient_id = $1
		) m
		JOIN users u ON u.id = m.other_id
		ORDER BY m.other_id, m.created_at DESC, m.id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		u := &models.User{}
		m := &c.LastMessage
		if err := rows.Scan(
			&m.ID, &m.SenderID, &m.RecipientID, &m.GameID, &m.Body, &m.ReadAt, &m.CreatedAt,
			&u.ID, &u.Nickname, &u.Role, &u.CreatedAt,
			&c.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		c.Counterpart = u
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inbox: %w", err)
	}

	// DISTINCT ON forces ordering by counterpart; the inbox shows the freshest conversation first.
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.CreatedAt.After(conversations[j].LastMessage.CreatedAt)
	})
	return conversations, nil
}

func (r *postgresMessageRepository) MarkConversationRead(ctx context.Context, userID, otherID int) (int64, error) {
	query := `UPDATE messages SET read_at = now() WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, userID, otherID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}

func (r *postgresMessageRepository) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND read_at IS NULL`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
