package service

import (
	"context"
	"errors"
	"fmt"
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
)

// ThreadService appends questions, answers, reviews and review replies to a
// course document. Every operation is a single read-modify-write: all
// lookups finish before anything is mutated, and the save is rejected if the
// course changed in between.
type ThreadService struct {
	courses       repository.CourseStore
	cache         *cache.CourseCache
	notifications *NotificationService
	mailer        mail.Sender
	metrics       *metrics.Metrics
	log           zerolog.Logger
	now           func() time.Time
}

func NewThreadService(
	courses repository.CourseStore,
	courseCache *cache.CourseCache,
	notifications *NotificationService,
	mailer mail.Sender,
	m *metrics.Metrics,
	log zerolog.Logger,
) *ThreadService {
	return &ThreadService{
		courses:       courses,
		cache:         courseCache,
		notifications: notifications,
		mailer:        mailer,
		metrics:       m,
		log:           log,
		now:           time.Now,
	}
}

type QuestionInput struct {
	CourseID  string
	ContentID string
	Question  string
}

type AnswerInput struct {
	CourseID   string
	ContentID  string
	QuestionID string
	Answer     string
}

type ReviewInput struct {
	CourseID string
	Rating   float64
	Comment  string
}

type ReplyInput struct {
	CourseID string
	ReviewID string
	Comment  string
}

func (s *ThreadService) AddQuestion(ctx context.Context, user models.User, input QuestionInput) (course models.Course, err error) {
	defer func() { s.metrics.Thread("add_question", err) }()

	if strings.TrimSpace(input.Question) == "" {
		return models.Course{}, apperr.ErrValidation.Withf("Please enter your question")
	}

	course, err = s.load(ctx, input.CourseID, apperr.ErrCourseNotFound)
	if err != nil {
		return models.Course{}, err
	}
	item := course.ContentItem(input.ContentID)
	if item == nil {
		return models.Course{}, apperr.ErrInvalidContentID
	}

	item.Questions = append(item.Questions, models.Question{
		ID:        ids.New(),
		User:      user.Summary(),
		Question:  input.Question,
		Replies:   []models.Reply{},
		CreatedAt: s.now().UTC(),
	})
	title := item.Title

	saved, err := s.save(ctx, course)
	if err != nil {
		return models.Course{}, err
	}

	if _, err := s.notifications.Record(ctx, user.ID,
		"New Question Received",
		fmt.Sprintf("You have a new question in %s", title),
	); err != nil {
		return models.Course{}, err
	}
	return saved, nil
}

// AddAnswer appends a reply to a question. When someone other than the asker
// answers, the asker is told by mail; a self-answer only records a
// notification.
func (s *ThreadService) AddAnswer(ctx context.Context, user models.User, input AnswerInput) (course models.Course, err error) {
	defer func() { s.metrics.Thread("add_answer", err) }()

	if strings.TrimSpace(input.Answer) == "" {
		return models.Course{}, apperr.ErrValidation.Withf("Please enter your answer")
	}

	course, err = s.load(ctx, input.CourseID, apperr.ErrCourseNotFound)
	if err != nil {
		return models.Course{}, err
	}
	item := course.ContentItem(input.ContentID)
	if item == nil {
		return models.Course{}, apperr.ErrInvalidContentID
	}
	question := item.Question(input.QuestionID)
	if question == nil {
		return models.Course{}, apperr.ErrInvalidQuestionID
	}

	question.Replies = append(question.Replies, models.Reply{
		ID:        ids.New(),
		User:      user.Summary(),
		Answer:    input.Answer,
		CreatedAt: s.now().UTC(),
	})
	asker := question.User
	title := item.Title

	saved, err := s.save(ctx, course)
	if err != nil {
		return models.Course{}, err
	}

	if asker.ID == user.ID {
		if _, err := s.notifications.Record(ctx, user.ID,
			"New Question Reply Received",
			fmt.Sprintf("You have a new question reply in %s", title),
		); err != nil {
			return models.Course{}, err
		}
		return saved, nil
	}

	if err := s.mailer.Send(ctx, mail.Message{
		To:       asker.Email,
		Subject:  "Question Reply",
		Template: mail.TemplateQuestionReply,
		Data: map[string]any{
			"name":  asker.Name,
			"title": title,
		},
	}); err != nil {
		s.metrics.MailFailed(mail.TemplateQuestionReply)
		s.log.Error().Err(err).Str("course_id", saved.ID).Msg("question reply mail failed")
		return models.Course{}, apperr.ErrMailDelivery.Wrap(err)
	}
	return saved, nil
}

// AddReview is only open to users whose session lists the course.
func (s *ThreadService) AddReview(ctx context.Context, user models.User, input ReviewInput) (course models.Course, err error) {
	defer func() { s.metrics.Thread("add_review", err) }()

	if !user.HasCourse(input.CourseID) {
		return models.Course{}, apperr.ErrNotPurchased
	}
	if input.Rating < 1 || input.Rating > 5 {
		return models.Course{}, apperr.ErrInvalidRating
	}

	course, err = s.load(ctx, input.CourseID, apperr.ErrCourseNotFound)
	if err != nil {
		return models.Course{}, err
	}

	course.Reviews = append(course.Reviews, models.Review{
		ID:        ids.New(),
		User:      user.Summary(),
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: s.now().UTC(),
	})
	course.RecomputeRatings()

	return s.save(ctx, course)
}

func (s *ThreadService) AddReply(ctx context.Context, user models.User, input ReplyInput) (course models.Course, err error) {
	defer func() { s.metrics.Thread("add_reply", err) }()

	if strings.TrimSpace(input.Comment) == "" {
		return models.Course{}, apperr.ErrValidation.Withf("Please enter your reply")
	}

	course, err = s.load(ctx, input.CourseID, apperr.ErrInvalidCourseID)
	if err != nil {
		return models.Course{}, err
	}
	review := course.Review(input.ReviewID)
	if review == nil {
		return models.Course{}, apperr.ErrInvalidReviewID
	}

	if review.Replies == nil {
		review.Replies = []models.ReviewReply{}
	}
	review.Replies = append(review.Replies, models.ReviewReply{
		ID:        ids.New(),
		User:      user.Summary(),
		Comment:   input.Comment,
		CreatedAt: s.now().UTC(),
	})

	return s.save(ctx, course)
}

// load fetches the course, reporting a missing document as missing.
func (s *ThreadService) load(ctx context.Context, id string, missing *apperr.Error) (models.Course, error) {
	course, err := s.courses.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Course{}, missing
		}
		return models.Course{}, internalError(err)
	}
	return course, nil
}

func (s *ThreadService) save(ctx context.Context, course models.Course) (models.Course, error) {
	course.UpdatedAt = s.now().UTC()
	saved, err := s.courses.Save(ctx, course)
	if err != nil {
		return models.Course{}, saveError(err)
	}
	s.cache.Invalidate(ctx, saved.ID)
	return saved, nil
}
