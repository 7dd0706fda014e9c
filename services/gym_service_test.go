package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pickup-hoops/models"
)

func TestGymLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creator := f.user("creator")
	stranger := f.user("stranger")
	admin := f.user("admin")
	uploader := newFakeUploader()
	svc := NewGymService(f.store.Gyms(), uploader, discardLogger(), 10)

	_, err := svc.CreateGym(ctx, creator.ID, GymInput{Name: "", Address: "x", Region: "Seoul"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	gym, err := svc.CreateGym(ctx, creator.ID, GymInput{Name: " Hoops Hall ", Address: "5 Court Rd", Region: "Seoul", Indoor: true})
	require.NoError(t, err)
	assert.Equal(t, "Hoops Hall", gym.Name)
	assert.Equal(t, 1, gym.CourtCount)

	update := GymInput{Name: "Hoops Hall 2", Address: "5 Court Rd", Region: "Seoul", CourtCount: 3}
	_, err = svc.UpdateGym(ctx, gym.ID, Actor{ID: stranger.ID, Role: models.RolePlayer}, update)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	updated, err := svc.UpdateGym(ctx, gym.ID, Actor{ID: admin.ID, Role: models.RoleAdmin}, update)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.CourtCount)

	withPhoto, err := svc.UploadPhoto(ctx, gym.ID, Actor{ID: creator.ID}, strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	require.NotNil(t, withPhoto.PhotoURL)
	assert.True(t, strings.HasPrefix(*withPhoto.PhotoKey, "gyms/"))

	got, err := svc.GetGym(ctx, gym.ID)
	require.NoError(t, err)
	assert.Equal(t, withPhoto.PhotoURL, got.PhotoURL)

	assert.ErrorIs(t, svc.DeleteGym(ctx, gym.ID, Actor{ID: stranger.ID}), ErrForbiddenOperation)
	require.NoError(t, svc.DeleteGym(ctx, gym.ID, Actor{ID: creator.ID}))
	assert.Contains(t, uploader.deleted, *withPhoto.PhotoKey)

	_, err = svc.GetGym(ctx, gym.ID)
	assert.ErrorIs(t, err, ErrGymNotFound)
}

func TestDeleteGymKeepsGames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.player("owner")
	svc := NewGymService(f.store.Gyms(), nil, discardLogger(), 10)

	gym, err := svc.CreateGym(ctx, owner.ID, GymInput{Name: "Court", Address: "1 St", Region: "Seoul"})
	require.NoError(t, err)
	in := validGameInput(models.DateOf(f.now).AddDays(1))
	in.GymID = &gym.ID
	game, err := f.games.CreateGame(ctx, owner.ID, in)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteGym(ctx, gym.ID, Actor{ID: owner.ID}))

	got, err := f.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GymID)
	assert.Nil(t, got.Gym)
}

func TestListGyms(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user("creator")
	svc := NewGymService(f.store.Gyms(), nil, discardLogger(), 2)

	for _, in := range []GymInput{
		{Name: "Alpha Court", Address: "1 River Rd", Region: "Seoul"},
		{Name: "Beta Gym", Address: "2 Hill St", Region: "Seoul"},
		{Name: "Gamma Arena", Address: "3 River Rd", Region: "Busan"},
	} {
		_, err := svc.CreateGym(ctx, u.ID, in)
		require.NoError(t, err)
	}

	page, err := svc.ListGyms(ctx, GymQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pagination.Total)
	require.Len(t, page.Gyms, 2)
	assert.Equal(t, "Alpha Court", page.Gyms[0].Name)

	page, err = svc.ListGyms(ctx, GymQuery{Search: "river"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Total)

	page, err = svc.ListGyms(ctx, GymQuery{Region: "Busan"})
	require.NoError(t, err)
	require.Len(t, page.Gyms, 1)
	assert.Equal(t, "Gamma Arena", page.Gyms[0].Name)

	_, err = svc.UploadPhoto(ctx, page.Gyms[0].ID, Actor{ID: u.ID}, strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}
