package cache

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/api/internal/models"
)

func TestSessionCacheRoundTrip(t *testing.T) {
	store, s := setupRedisStore(t)
	sessions := NewSessionCache(store)
	ctx := context.Background()

	user := models.User{
		ID:           "u1",
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: []byte("secret-hash"),
		Role:         models.UserRoleUser,
		Courses:      []models.CourseRef{{CourseID: "c1"}},
	}
	require.NoError(t, sessions.Put(ctx, user))

	raw, err := s.Get("session:u1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret-hash")
	assert.Zero(t, s.TTL("session:u1"))

	got, err := sessions.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.True(t, got.HasCourse("c1"))
	assert.Empty(t, got.PasswordHash)
}

func TestSessionCacheOverwriteAndDelete(t *testing.T) {
	sessions := NewSessionCache(NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, sessions.Put(ctx, models.User{ID: "u1", Name: "first"}))
	require.NoError(t, sessions.Put(ctx, models.User{ID: "u1", Name: "second"}))

	got, err := sessions.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Name)

	require.NoError(t, sessions.Delete(ctx, "u1"))
	_, err = sessions.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCourseCacheReadThrough(t *testing.T) {
	store := NewMemoryStore()
	courses := NewCourseCache(store, 0, zerolog.Nop())
	ctx := context.Background()

	_, ok := courses.Get(ctx, "c1")
	assert.False(t, ok)

	courses.Put(ctx, models.Course{ID: "c1", Name: "Go"})
	got, ok := courses.Get(ctx, "c1")
	require.True(t, ok)
	assert.Equal(t, "Go", got.Name)

	courses.Invalidate(ctx, "c1")
	_, ok = courses.Get(ctx, "c1")
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "course:bad", "{", 0))
	_, ok = courses.Get(ctx, "bad")
	assert.False(t, ok)
}
