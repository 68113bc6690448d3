package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/cache"
	"learnhub/api/internal/ids"
	"learnhub/api/internal/mail"
	"learnhub/api/internal/metrics"
	"learnhub/api/internal/models"
	"learnhub/api/internal/repository"
	"learnhub/api/internal/security"
)

// AuthService drives an identity from registration through activation,
// login, refresh and logout. The session cache is the source of truth for
// who a request belongs to; the user store is only read on login.
type AuthService struct {
	users     repository.UserStore
	sessions  *cache.SessionCache
	tokens    *security.TokenIssuer
	activator *security.Activator
	mailer    mail.Sender
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(
	users repository.UserStore,
	sessions *cache.SessionCache,
	tokens *security.TokenIssuer,
	activator *security.Activator,
	mailer mail.Sender,
	m *metrics.Metrics,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		activator: activator,
		mailer:    mailer,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type RegisterResult struct {
	Email           string
	ActivationToken string
}

// AuthResult is what a successful login or refresh hands back to the transport.
type AuthResult struct {
	User         models.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (result RegisterResult, err error) {
	defer func() { s.metrics.Auth("register", err) }()

	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if input.Name == "" {
		return RegisterResult{}, apperr.ErrValidation.Withf("Please enter your name")
	}
	if err := validateEmail(input.Email); err != nil {
		return RegisterResult{}, err
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return RegisterResult{}, apperr.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return RegisterResult{}, internalError(err)
	}

	passwordHash, err := hashPassword(input.Password)
	if err != nil {
		return RegisterResult{}, internalError(err)
	}

	token, code, err := s.activator.CreateTicket(models.PendingUser{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		return RegisterResult{}, internalError(err)
	}

	if err := s.mailer.Send(ctx, mail.Message{
		To:       input.Email,
		Subject:  "Activate your account",
		Template: mail.TemplateActivation,
		Data: map[string]any{
			"name":           input.Name,
			"activationCode": code,
		},
	}); err != nil {
		s.metrics.MailFailed(mail.TemplateActivation)
		s.log.Error().Err(err).Str("email", input.Email).Msg("activation mail failed")
		return RegisterResult{}, apperr.ErrMailDelivery.Wrap(err)
	}

	return RegisterResult{Email: input.Email, ActivationToken: token}, nil
}

// Activate redeems a ticket and persists the account. Email uniqueness is
// checked again because another registration may have completed since the
// ticket was issued.
func (s *AuthService) Activate(ctx context.Context, token, code string) (user models.User, err error) {
	defer func() { s.metrics.Auth("activate", err) }()

	pending, err := s.activator.Redeem(token, strings.TrimSpace(code))
	if err != nil {
		return models.User{}, err
	}

	if _, err := s.users.FindByEmail(ctx, pending.Email); err == nil {
		return models.User{}, apperr.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, internalError(err)
	}

	now := s.now().UTC()
	user = models.User{
		ID:           ids.New(),
		Name:         pending.Name,
		Email:        pending.Email,
		PasswordHash: []byte(pending.PasswordHash),
		Role:         models.UserRoleUser,
		IsVerified:   true,
		Courses:      []models.CourseRef{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, apperr.ErrDuplicateEmail
		}
		return models.User{}, internalError(err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("account activated")
	return user, nil
}

// Login never reveals whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (result AuthResult, err error) {
	defer func() { s.metrics.Auth("login", err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, apperr.ErrMissingCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, apperr.ErrInvalidCredentials
		}
		return AuthResult{}, internalError(err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, apperr.ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

type SocialInput struct {
	Name   string
	Email  string
	Avatar string
}

// SocialAuth signs in a user vouched for by an external identity provider,
// creating the account on first sight.
func (s *AuthService) SocialAuth(ctx context.Context, input SocialInput) (result AuthResult, err error) {
	defer func() { s.metrics.Auth("social", err) }()

	input.Email = normalizeEmail(input.Email)
	if err := validateEmail(input.Email); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err == nil {
		return s.startSession(ctx, user)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, internalError(err)
	}

	now := s.now().UTC()
	user = models.User{
		ID:         ids.New(),
		Name:       strings.TrimSpace(input.Name),
		Email:      input.Email,
		Role:       models.UserRoleUser,
		IsVerified: true,
		Courses:    []models.CourseRef{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.Avatar != "" {
		user.Avatar = &models.Asset{URL: input.Avatar}
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, apperr.ErrDuplicateEmail
		}
		return AuthResult{}, internalError(err)
	}
	return s.startSession(ctx, user)
}

// startSession issues both tokens and overwrites the user's session snapshot.
func (s *AuthService) startSession(ctx context.Context, user models.User) (AuthResult, error) {
	access, err := s.tokens.SignAccess(user.ID)
	if err != nil {
		return AuthResult{}, internalError(err)
	}
	refresh, err := s.tokens.SignRefresh(user.ID)
	if err != nil {
		return AuthResult{}, internalError(err)
	}

	if err := s.sessions.Put(ctx, user); err != nil {
		return AuthResult{}, internalError(err)
	}

	user.PasswordHash = nil
	return AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) (err error) {
	defer func() { s.metrics.Auth("logout", err) }()

	if err := s.sessions.Delete(ctx, userID); err != nil {
		return internalError(err)
	}
	return nil
}

// Refresh rotates both tokens. A valid refresh token is not enough on its
// own: the session snapshot must still exist, so logout ends refreshability.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (result AuthResult, err error) {
	defer func() { s.metrics.Auth("refresh", err) }()

	if refreshToken == "" {
		return AuthResult{}, apperr.ErrCouldNotRefresh
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return AuthResult{}, apperr.ErrCouldNotRefresh.Wrap(err)
	}

	user, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, cache.ErrNoSession) {
			return AuthResult{}, apperr.ErrCouldNotRefresh
		}
		return AuthResult{}, internalError(err)
	}

	return s.startSession(ctx, user)
}

// Authenticate resolves an access token to its cached session user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (models.User, error) {
	if accessToken == "" {
		return models.User{}, apperr.ErrUnauthenticated
	}
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return models.User{}, apperr.ErrInvalidToken.Wrap(err)
	}

	user, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, cache.ErrNoSession) {
			return models.User{}, apperr.ErrSessionUserNotFound
		}
		return models.User{}, internalError(err)
	}
	return user, nil
}
