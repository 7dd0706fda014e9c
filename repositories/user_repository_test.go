package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pickup-hoops/models"
)

func TestUserCreateConflicts(t *testing.T) {
	for constraint, want := range map[string]error{
		"users_email_key":    ErrUserEmailConflict,
		"users_nickname_key": ErrUserNicknameConflict,
	} {
		t.Run(constraint, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewPostgresUserRepository(db)
			mock.ExpectQuery(`INSERT INTO users`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: constraint})

			err := repo.Create(context.Background(), &models.User{Email: "a@b.c", Nickname: "a", Role: models.RolePlayer})
			assert.ErrorIs(t, err, want)
		})
	}
}

func TestUserListByIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db)

	empty, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	now := time.Now()
	mock.ExpectQuery(`FROM users WHERE id = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "nickname", "password_hash", "role", "created_at"}).
			AddRow(1, "a@b.c", "alpha", "hash", "player", now).
			AddRow(2, "b@b.c", "bravo", "hash", "admin", now))

	users, err := repo.ListByIDs(context.Background(), []int{1, 2})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bravo", users[2].Nickname)
	assert.Equal(t, models.RoleAdmin, users[2].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageMarkConversationRead(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresMessageRepository(db)

	mock.ExpectExec(`UPDATE messages SET read_at = now\(\) WHERE recipient_id = \$1 AND sender_id = \$2`).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkConversationRead(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestGymCreateInvalidCreator(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresGymRepository(db)

	mock.ExpectQuery(`INSERT INTO gyms`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "gyms_created_by_fkey"})

	err := repo.Create(context.Background(), &models.Gym{Name: "Court", CreatedBy: 404})
	assert.ErrorIs(t, err, ErrGymInvalidCreator)
}

func TestDashboardCounts(t *testing.T) {
	db, mock := newMock(t)
	users := NewPostgresUserRepository(db)
	participants := NewPostgresParticipantRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM participants GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 4).
			AddRow("approved", 9))

	n, err := users.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	counts, err := participants.CountAllByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, counts[models.ParticipantApproved])
	assert.Equal(t, 4, counts[models.ParticipantPending])
	assert.Zero(t, counts[models.ParticipantRejected])
	assert.NoError(t, mock.ExpectationsWereMet())
}
