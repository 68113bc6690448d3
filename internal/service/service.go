package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/media"
	"learnhub/api/internal/models"
	"learnhub/api/internal/security"
	"learnhub/api/internal/storage"
)

// Media uploads and removes avatar and thumbnail assets.
type Media interface {
	Upload(ctx context.Context, source, folder string) (models.Asset, error)
	Destroy(ctx context.Context, id string) error
}

var emailPattern = regexp.MustCompile(`^[\w\-.+]+@([\w-]+\.)+[\w-]{2,}$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperr.ErrValidation.Withf("Please enter a valid email")
	}
	return nil
}

func internalError(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.ErrInternal.Wrap(err)
}

func hashPassword(password string) ([]byte, error) {
	hash, err := security.HashPassword(password)
	if errors.Is(err, security.ErrPasswordTooShort) {
		return nil, apperr.ErrValidation.Withf("Password must be at least 6 characters")
	}
	return hash, err
}

// mediaError separates bad client payloads from storage outages.
func mediaError(err error) error {
	switch {
	case errors.Is(err, media.ErrUnknownType),
		errors.Is(err, media.ErrEmptyPayload),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrForbiddenHost):
		return apperr.ErrValidation.Withf("Unsupported or invalid image").Wrap(err)
	default:
		return apperr.ErrMedia.Wrap(err)
	}
}
