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

var gameRowColumns = []string{
	"id", "owner_id", "gym_id", "title", "description", "game_date", "start_time", "end_time",
	"min_participants", "max_participants", "fee", "region", "gender", "skill", "reminder_sent_at", "created_at",
}

func TestBuildGameWhere(t *testing.T) {
	from := models.NewDate(2026, time.May, 1)
	to := from.AddDays(14)
	gender := models.GenderMixed
	owner := 7

	where, args := buildGameWhere(GameFilter{
		DateFrom: &from,
		DateTo:   &to,
		Regions:  []string{"Seoul", "Busan"},
		Gender:   &gender,
		OwnerID:  &owner,
		Search:   " 3on3_ ",
	})

	assert.Equal(t,
		" WHERE 1=1 AND g.game_date >= $1 AND g.game_date <= $2 AND g.region = ANY($3)"+
			" AND g.gender = $4 AND g.owner_id = $5 AND (g.title ILIKE $6 OR g.description ILIKE $6)",
		where)
	require.Len(t, args, 6)
	assert.Equal(t, from, args[0])
	assert.Equal(t, models.GenderMixed, args[3])
	assert.Equal(t, `%3on3\_%`, args[5])
}

func TestBuildGameWhereEmpty(t *testing.T) {
	where, args := buildGameWhere(GameFilter{Search: "   "})
	assert.Equal(t, " WHERE 1=1", where)
	assert.Empty(t, args)
}

func TestGameListScansApprovedCount(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresGameRepository(db)

	created := time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)
	gameDate := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(append(gameRowColumns, "approved")).
		AddRow(1, 7, nil, "Saturday run", nil, gameDate, "18:00:00", "20:00:00", 6, 10, 5000, "Seoul", "any", "intermediate", nil, created, 4)

	mock.ExpectQuery(`ORDER BY g.game_date ASC, g.start_time ASC, g.id ASC LIMIT \$2 OFFSET \$3`).
		WithArgs(sqlmock.AnyArg(), 12, 24).
		WillReturnRows(rows)

	games, err := repo.List(context.Background(), GameFilter{Regions: []string{"Seoul"}, Limit: 12, Offset: 24})
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "Saturday run", g.Title)
	assert.Equal(t, "2026-05-02", g.GameDate.String())
	assert.Equal(t, models.ClockTime{Hour: 18}, g.StartTime)
	assert.Equal(t, models.SkillIntermediate, g.Skill)
	require.NotNil(t, g.ApprovedCount)
	assert.Equal(t, 4, *g.ApprovedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameUpdateRequiresOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresGameRepository(db)

	mock.ExpectExec(`UPDATE games SET .* WHERE id = \$13 AND owner_id = \$14`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	game := &models.Game{ID: 1, Title: "x", GameDate: models.NewDate(2026, 5, 2), MaxParticipants: 4, MinParticipants: 2}
	err := repo.Update(context.Background(), game, 99)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestGameCreateMapsConstraintErrors(t *testing.T) {
	cases := []struct {
		name string
		err  *pq.Error
		want error
	}{
		{"missing gym", &pq.Error{Code: "23503", Constraint: "games_gym_id_fkey"}, ErrGameInvalidGym},
		{"missing owner", &pq.Error{Code: "23503", Constraint: "games_owner_id_fkey"}, ErrGameInvalidOwner},
		{"check", &pq.Error{Code: "23514", Constraint: "chk_game_capacity"}, ErrGameInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewPostgresGameRepository(db)
			mock.ExpectQuery(`INSERT INTO games`).WillReturnError(tc.err)

			err := repo.Create(context.Background(), &models.Game{OwnerID: 1, GameDate: models.NewDate(2026, 5, 2)})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
