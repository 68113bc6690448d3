package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/cache"
	"learnhub/api/internal/models"
	"learnhub/api/internal/repository"
	"learnhub/api/internal/security"
)

// UserService covers profile reads and edits. Every successful write also
// rewrites the session snapshot so authenticated requests see the change.
type UserService struct {
	users    repository.UserStore
	sessions *cache.SessionCache
	media    Media
	log      zerolog.Logger
	now      func() time.Time
}

func NewUserService(users repository.UserStore, sessions *cache.SessionCache, media Media, log zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		media:    media,
		log:      log,
		now:      time.Now,
	}
}

func (s *UserService) UserInfo(ctx context.Context, userID string) (models.User, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = nil
	return user, nil
}

type UpdateInfoInput struct {
	Name  string
	Email string
}

func (s *UserService) UpdateInfo(ctx context.Context, userID string, input UpdateInfoInput) (models.User, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if email := normalizeEmail(input.Email); email != "" && email != user.Email {
		if err := validateEmail(email); err != nil {
			return models.User{}, err
		}
		if _, err := s.users.FindByEmail(ctx, email); err == nil {
			return models.User{}, apperr.ErrDuplicateEmail
		} else if !errors.Is(err, repository.ErrNotFound) {
			return models.User{}, internalError(err)
		}
		user.Email = email
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}

	return s.persist(ctx, user)
}

// UpdatePassword requires the current password. Accounts created through
// social sign-in have none and cannot use it.
func (s *UserService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) (models.User, error) {
	if oldPassword == "" || newPassword == "" {
		return models.User{}, apperr.ErrValidation.Withf("Please enter old and new password")
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if len(user.PasswordHash) == 0 {
		return models.User{}, apperr.ErrInvalidUser
	}

	ok, err := security.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil || !ok {
		return models.User{}, apperr.ErrIncorrectPassword
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return models.User{}, internalError(err)
	}
	user.PasswordHash = hash

	return s.persist(ctx, user)
}

// UpdateAvatar removes the previous avatar before uploading its replacement.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, source string) (models.User, error) {
	if strings.TrimSpace(source) == "" {
		return models.User{}, apperr.ErrValidation.Withf("Please provide an avatar")
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if !user.Avatar.Empty() {
		if err := s.media.Destroy(ctx, user.Avatar.ID); err != nil {
			return models.User{}, mediaError(err)
		}
	}
	asset, err := s.media.Upload(ctx, source, "avatars")
	if err != nil {
		return models.User{}, mediaError(err)
	}
	user.Avatar = &asset

	return s.persist(ctx, user)
}

// ListUsers returns every account newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	for i := range users {
		users[i].PasswordHash = nil
	}
	return users, nil
}

// Enroll adds a course to the user's enrolment list and refreshes the
// session so the next request sees it.
func (s *UserService) Enroll(ctx context.Context, userID, courseID string) (models.User, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if user.HasCourse(courseID) {
		return models.User{}, apperr.ErrAlreadyEnrolled
	}
	user.Courses = append(user.Courses, models.CourseRef{CourseID: courseID})
	return s.persist(ctx, user)
}

func (s *UserService) find(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, apperr.ErrUserNotFound
		}
		return models.User{}, internalError(err)
	}
	return user, nil
}

func (s *UserService) persist(ctx context.Context, user models.User) (models.User, error) {
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return models.User{}, apperr.ErrDuplicateEmail
		case errors.Is(err, repository.ErrNotFound):
			return models.User{}, apperr.ErrUserNotFound
		default:
			return models.User{}, internalError(err)
		}
	}
	if err := s.sessions.Put(ctx, user); err != nil {
		return models.User{}, internalError(err)
	}
	user.PasswordHash = nil
	return user, nil
}
