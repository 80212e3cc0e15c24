package repository

import (
	"context"
	"testing"

	"bookie/models"
	"bookie/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewMemberRepository(testDB.DB)

	member, err := repo.Create(ctx, "alice")
	require.NoError(t, err)
	require.NotEqual(t, int64(0), member.ID)
	assert.Equal(t, "alice", member.DisplayName)
	assert.Equal(t, models.DefaultRating, member.Rating)

	fetched, err := repo.GetByID(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, member.ID, fetched.ID)
	assert.Equal(t, "alice", fetched.DisplayName)
}

func TestMemberRepository_GetByID_NotFound(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewMemberRepository(testDB.DB)

	member, err := repo.GetByID(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, member)
}

func TestMemberRepository_GetRating_DefaultsForUnknown(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewMemberRepository(testDB.DB)

	rating, err := repo.GetRating(ctx, 999999)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRating, rating)
}

func TestMemberRepository_UpdateRating(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewMemberRepository(testDB.DB)

	member, err := repo.Create(ctx, "bob")
	require.NoError(t, err)

	err = repo.UpdateRating(ctx, member.ID, 1450)
	require.NoError(t, err)

	rating, err := repo.GetRating(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 1450, rating)

	// Updating a missing member is an error
	err = repo.UpdateRating(ctx, 999999, 1450)
	assert.Error(t, err)
}
