package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/models"
	"learnhub/api/internal/security"
)

func TestUpdateInfoRewritesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser)

	updated, err := h.users.UpdateInfo(ctx, user.ID, UpdateInfoInput{Name: "Ada L.", Email: "lovelace@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.Name)
	assert.Nil(t, updated.PasswordHash)

	cached, err := h.sessions.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "lovelace@example.com", cached.Email)
}

func TestUpdateInfoDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser)
	h.seedUser(t, "Grace", "grace@example.com", models.UserRoleUser)

	_, err := h.users.UpdateInfo(ctx, user.ID, UpdateInfoInput{Email: "Grace@example.com"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	_, err = h.users.UpdateInfo(ctx, "missing", UpdateInfoInput{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestUpdatePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser)

	_, err := h.users.UpdatePassword(ctx, user.ID, "wrong", "newsecret")
	assert.ErrorIs(t, err, apperr.ErrIncorrectPassword)

	_, err = h.users.UpdatePassword(ctx, user.ID, "secret123", "newsecret")
	require.NoError(t, err)

	stored, err := h.stores.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	ok, err := security.VerifyPassword("newsecret", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdatePasswordSocialAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.auth.SocialAuth(ctx, SocialInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = h.users.UpdatePassword(ctx, res.User.ID, "anything", "newsecret")
	assert.ErrorIs(t, err, apperr.ErrInvalidUser)
}

func TestUpdateAvatarDestroysPrevious(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser)

	first, err := h.users.UpdateAvatar(ctx, user.ID, "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Empty(t, h.media.destroyed)

	second, err := h.users.UpdateAvatar(ctx, user.ID, "data:image/png;base64,BBBB")
	require.NoError(t, err)
	assert.Equal(t, []string{first.Avatar.ID}, h.media.destroyed)

	cached, err := h.sessions.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Avatar.ID, cached.Avatar.ID)
}

func TestListUsersHidesHashes(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser)
	h.seedUser(t, "Grace", "grace@example.com", models.UserRoleAdmin)

	users, err := h.users.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Nil(t, u.PasswordHash)
	}
}
