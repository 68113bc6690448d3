package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/cache"
	"learnhub/api/internal/ids"
	"learnhub/api/internal/mail"
	"learnhub/api/internal/metrics"
	"learnhub/api/internal/models"
	"learnhub/api/internal/repository"
)

// purchaseAttempts bounds the re-read loop when incrementing the purchase
// counter races with a thread mutation on the same course.
const purchaseAttempts = 3

type OrderService struct {
	orders        repository.OrderStore
	courses       repository.CourseStore
	cache         *cache.CourseCache
	users         *UserService
	notifications *NotificationService
	mailer        mail.Sender
	metrics       *metrics.Metrics
	log           zerolog.Logger
	now           func() time.Time
}

func NewOrderService(
	orders repository.OrderStore,
	courses repository.CourseStore,
	courseCache *cache.CourseCache,
	users *UserService,
	notifications *NotificationService,
	mailer mail.Sender,
	m *metrics.Metrics,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:        orders,
		courses:       courses,
		cache:         courseCache,
		users:         users,
		notifications: notifications,
		mailer:        mailer,
		metrics:       m,
		log:           log,
		now:           time.Now,
	}
}

// OrderResult carries the placed order and the buyer as the session now
// sees them.
type OrderResult struct {
	Order models.Order
	User  models.User
}

// Create enrols user in the course. The confirmation mail goes out first; if
// it fails nothing is persisted. Once the user is enrolled the order is
// already stored, so a later failure never strands an enrolment without
// its order.
func (s *OrderService) Create(ctx context.Context, user models.User, courseID string, paymentInfo map[string]any) (OrderResult, error) {
	if user.HasCourse(courseID) {
		return OrderResult{}, apperr.ErrAlreadyEnrolled
	}

	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return OrderResult{}, apperr.ErrCourseNotFound
		}
		return OrderResult{}, internalError(err)
	}

	now := s.now().UTC()
	order := models.Order{
		ID:          ids.New(),
		UserID:      user.ID,
		CourseID:    course.ID,
		PaymentInfo: paymentInfo,
		CreatedAt:   now,
	}

	if err := s.mailer.Send(ctx, mail.Message{
		To:       user.Email,
		Subject:  "Order Confirmation",
		Template: mail.TemplateOrderConfirmation,
		Data: map[string]any{
			"name": user.Name,
			"order": map[string]any{
				"id":    order.ID,
				"name":  course.Name,
				"price": course.Price,
				"date":  now.Format("January 2, 2006"),
			},
		},
	}); err != nil {
		s.metrics.MailFailed(mail.TemplateOrderConfirmation)
		s.log.Error().Err(err).Str("user_id", user.ID).Str("course_id", course.ID).Msg("order confirmation mail failed")
		return OrderResult{}, apperr.ErrMailDelivery.Wrap(err)
	}

	// The order row is the record of payment, so it is written before the
	// enrolment it grants. Steps after enrolment only log on failure.
	if err := s.orders.Create(ctx, order); err != nil {
		return OrderResult{}, internalError(err)
	}

	enrolled, err := s.users.Enroll(ctx, user.ID, course.ID)
	if err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Str("user_id", user.ID).Msg("order stored but enrolment failed")
		return OrderResult{}, err
	}

	if _, err := s.notifications.Record(ctx, user.ID,
		"New Order",
		fmt.Sprintf("You have a new order from %s", course.Name),
	); err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID).Msg("order notification not recorded")
	}

	if err := s.incrementPurchased(ctx, course); err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID).Str("course_id", course.ID).Msg("purchase counter not updated")
	}

	s.log.Info().Str("order_id", order.ID).Str("user_id", user.ID).Str("course_id", course.ID).Msg("order placed")
	return OrderResult{Order: order, User: enrolled}, nil
}

// incrementPurchased is the one place a stale revision is retried: the
// counter bump commutes with any concurrent edit, so a fresh read is safe.
func (s *OrderService) incrementPurchased(ctx context.Context, course models.Course) error {
	for attempt := 1; ; attempt++ {
		course.Purchased++
		course.UpdatedAt = s.now().UTC()
		saved, err := s.courses.Save(ctx, course)
		if err == nil {
			s.cache.Invalidate(ctx, saved.ID)
			return nil
		}
		if !errors.Is(err, repository.ErrStaleRevision) || attempt == purchaseAttempts {
			return saveError(err)
		}

		course, err = s.courses.Get(ctx, course.ID)
		if err != nil {
			return saveError(err)
		}
	}
}

// List returns every order newest first.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	return orders, nil
}
