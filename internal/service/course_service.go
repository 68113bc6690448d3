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
	"learnhub/api/internal/models"
	"learnhub/api/internal/repository"
)

// CourseService manages the catalog. Public reads go through the course
// cache; admin writes invalidate it.
type CourseService struct {
	courses repository.CourseStore
	cache   *cache.CourseCache
	media   Media
	log     zerolog.Logger
	now     func() time.Time
}

func NewCourseService(courses repository.CourseStore, courseCache *cache.CourseCache, media Media, log zerolog.Logger) *CourseService {
	return &CourseService{
		courses: courses,
		cache:   courseCache,
		media:   media,
		log:     log,
		now:     time.Now,
	}
}

// CourseInput is the editable part of a course. Thumbnail is an upload
// source (data URL, base64 or remote URL); empty keeps the current one.
type CourseInput struct {
	Name           string
	Description    string
	Price          float64
	EstimatedPrice float64
	Thumbnail      string
	Tags           string
	Level          string
	DemoURL        string
	Benefits       []string
	Prerequisites  []string
	Content        []models.ContentItem
}

func (in CourseInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.ErrValidation.Withf("Please enter course name")
	}
	if in.Price < 0 || in.EstimatedPrice < 0 {
		return apperr.ErrValidation.Withf("Price cannot be negative")
	}
	return nil
}

func (s *CourseService) Create(ctx context.Context, input CourseInput) (models.Course, error) {
	if err := input.validate(); err != nil {
		return models.Course{}, err
	}

	now := s.now().UTC()
	course := models.Course{
		ID:        ids.New(),
		Reviews:   []models.Review{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(&course, input, nil)

	if input.Thumbnail != "" {
		asset, err := s.media.Upload(ctx, input.Thumbnail, "courses")
		if err != nil {
			return models.Course{}, mediaError(err)
		}
		course.Thumbnail = &asset
	}

	created, err := s.courses.Create(ctx, course)
	if err != nil {
		return models.Course{}, internalError(err)
	}
	s.log.Info().Str("course_id", created.ID).Msg("course created")
	return created, nil
}

// Edit replaces the editable fields. Reviews, ratings and purchase counts are
// kept, and each content item keeps its question thread when its id is
// resubmitted.
func (s *CourseService) Edit(ctx context.Context, id string, input CourseInput) (models.Course, error) {
	if err := input.validate(); err != nil {
		return models.Course{}, err
	}

	course, err := s.get(ctx, id)
	if err != nil {
		return models.Course{}, err
	}

	if input.Thumbnail != "" {
		if !course.Thumbnail.Empty() {
			if err := s.media.Destroy(ctx, course.Thumbnail.ID); err != nil {
				return models.Course{}, mediaError(err)
			}
		}
		asset, err := s.media.Upload(ctx, input.Thumbnail, "courses")
		if err != nil {
			return models.Course{}, mediaError(err)
		}
		course.Thumbnail = &asset
	}

	threads := make(map[string][]models.Question, len(course.Content))
	for _, item := range course.Content {
		threads[item.ID] = item.Questions
	}
	applyInput(&course, input, threads)
	course.UpdatedAt = s.now().UTC()

	saved, err := s.courses.Save(ctx, course)
	if err != nil {
		return models.Course{}, saveError(err)
	}
	s.cache.Invalidate(ctx, saved.ID)
	return saved, nil
}

// Get returns the public projection of a course, served from cache when
// possible.
func (s *CourseService) Get(ctx context.Context, id string) (models.Course, error) {
	if course, ok := s.cache.Get(ctx, id); ok {
		return course, nil
	}

	course, err := s.get(ctx, id)
	if err != nil {
		return models.Course{}, err
	}
	public := course.Public()
	s.cache.Put(ctx, public)

	// A save that landed between the read and the Put has already cleared
	// the key, so the entry just written may be older than the store.
	if current, err := s.courses.Get(ctx, id); err != nil || current.Revision != course.Revision {
		s.cache.Invalidate(ctx, id)
	}
	return public, nil
}

func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	out := make([]models.Course, len(courses))
	for i, c := range courses {
		out[i] = c.Public()
	}
	return out, nil
}

// Content returns the full lesson list to enrolled users and admins.
func (s *CourseService) Content(ctx context.Context, id string, user models.User) ([]models.ContentItem, error) {
	if user.Role != models.UserRoleAdmin && !user.HasCourse(id) {
		return nil, apperr.ErrNotPurchased
	}
	course, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return course.Content, nil
}

// ListAll returns full documents for the admin dashboard.
func (s *CourseService) ListAll(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	return courses, nil
}

func (s *CourseService) Delete(ctx context.Context, id string) error {
	course, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrCourseNotFound
		}
		return internalError(err)
	}
	s.cache.Invalidate(ctx, id)

	if !course.Thumbnail.Empty() {
		if err := s.media.Destroy(ctx, course.Thumbnail.ID); err != nil {
			s.log.Warn().Err(err).Str("course_id", id).Msg("thumbnail cleanup failed")
		}
	}
	return nil
}

func (s *CourseService) get(ctx context.Context, id string) (models.Course, error) {
	course, err := s.courses.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Course{}, apperr.ErrCourseNotFound
		}
		return models.Course{}, internalError(err)
	}
	return course, nil
}

func applyInput(course *models.Course, input CourseInput, threads map[string][]models.Question) {
	course.Name = strings.TrimSpace(input.Name)
	course.Description = input.Description
	course.Price = input.Price
	course.EstimatedPrice = input.EstimatedPrice
	course.Tags = input.Tags
	course.Level = input.Level
	course.DemoURL = input.DemoURL
	course.Benefits = append([]string{}, input.Benefits...)
	course.Prerequisites = append([]string{}, input.Prerequisites...)

	course.Content = make([]models.ContentItem, len(input.Content))
	for i, item := range input.Content {
		if questions, ok := threads[item.ID]; ok && item.ID != "" {
			item.Questions = questions
		} else {
			item.ID = ids.New()
			item.Questions = []models.Question{}
		}
		course.Content[i] = item
	}
}

func saveError(err error) error {
	switch {
	case errors.Is(err, repository.ErrStaleRevision):
		return apperr.ErrConcurrentUpdate
	case errors.Is(err, repository.ErrNotFound):
		return apperr.ErrCourseNotFound
	default:
		return internalError(err)
	}
}
