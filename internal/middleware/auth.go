package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/models"
	"learnhub/api/internal/security"
	"learnhub/api/internal/service"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	currentUserKey = "current_user"
)

// Authenticator is the slice of the auth service the request pipeline needs.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (models.User, error)
	Refresh(ctx context.Context, refreshToken string) (service.AuthResult, error)
}

// Cookies holds the attributes shared by both auth cookies.
type Cookies struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Set writes both tokens. The access cookie outlives the token it carries so
// an expired access token can still be presented for a transparent refresh.
func (k Cookies) Set(c *gin.Context, result service.AuthResult) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, result.AccessToken, int(k.RefreshTTL.Seconds()), "/", k.Domain, k.Secure, true)
	c.SetCookie(RefreshCookie, result.RefreshToken, int(k.RefreshTTL.Seconds()), "/", k.Domain, k.Secure, true)
}

func (k Cookies) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", k.Domain, k.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", k.Domain, k.Secure, true)
}

// IsAuthenticated resolves the access cookie to the cached session user.
// An expired access token is refreshed in place when a refresh cookie is
// present; the new cookies are written before the handler runs.
func IsAuthenticated(auth Authenticator, cookies Cookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		access, _ := c.Cookie(AccessCookie)
		if access == "" {
			abort(c, apperr.ErrUnauthenticated)
			return
		}

		user, err := auth.Authenticate(ctx, access)
		if err != nil && errors.Is(err, security.ErrTokenExpired) {
			refresh, _ := c.Cookie(RefreshCookie)
			if refresh == "" {
				abort(c, err)
				return
			}
			result, refreshErr := auth.Refresh(ctx, refresh)
			if refreshErr != nil {
				abort(c, refreshErr)
				return
			}
			cookies.Set(c, result)
			user, err = result.User, nil
		}
		if err != nil {
			abort(c, err)
			return
		}

		SetCurrentUser(c, user)
		c.Next()
	}
}

func SetCurrentUser(c *gin.Context, user models.User) {
	c.Set(currentUserKey, user)
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
