package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/ids"
	"learnhub/api/internal/metrics"
	"learnhub/api/internal/models"
	"learnhub/api/internal/repository"
)

// DefaultRetention is how long read notifications survive before a sweep.
const DefaultRetention = 30 * 24 * time.Hour

type NotificationService struct {
	store     repository.NotificationStore
	retention time.Duration
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time
}

func NewNotificationService(store repository.NotificationStore, retention time.Duration, m *metrics.Metrics, log zerolog.Logger) *NotificationService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &NotificationService{
		store:     store,
		retention: retention,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Record appends an unread notification. Identical notifications are not
// collapsed.
func (s *NotificationService) Record(ctx context.Context, userID, title, message string) (models.Notification, error) {
	now := s.now().UTC()
	n := models.Notification{
		ID:        ids.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Status:    models.NotificationUnread,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return models.Notification{}, internalError(err)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.store.MarkRead(ctx, id, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotificationNotFound
		}
		return internalError(err)
	}
	return nil
}

// List returns every notification, newest first.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	return list, nil
}

// Sweep deletes read notifications created before now minus the retention
// window. Unread notifications are kept regardless of age.
func (s *NotificationService) Sweep(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.retention)
	removed, err := s.store.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.Swept(removed)
	s.log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("notification sweep finished")
	return removed, nil
}
