package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"learnhub/api/internal/models"
)

const coursePrefix = "course:"

// CourseCache is a read-through accelerator for public course views.
// Failures are logged and treated as misses; the document store stays
// authoritative.
type CourseCache struct {
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCourseCache(store Store, ttl time.Duration, log zerolog.Logger) *CourseCache {
	return &CourseCache{store: store, ttl: ttl, log: log}
}

func (c *CourseCache) Get(ctx context.Context, id string) (models.Course, bool) {
	raw, err := c.store.Get(ctx, coursePrefix+id)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.Warn().Err(err).Str("course_id", id).Msg("course cache read failed")
		}
		return models.Course{}, false
	}

	var course models.Course
	if err := json.Unmarshal([]byte(raw), &course); err != nil {
		c.log.Warn().Err(err).Str("course_id", id).Msg("course cache entry corrupt")
		return models.Course{}, false
	}
	return course, true
}

func (c *CourseCache) Put(ctx context.Context, course models.Course) {
	data, err := json.Marshal(course)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, coursePrefix+course.ID, string(data), c.ttl); err != nil {
		c.log.Warn().Err(err).Str("course_id", course.ID).Msg("course cache write failed")
	}
}

func (c *CourseCache) Invalidate(ctx context.Context, id string) {
	if err := c.store.Del(ctx, coursePrefix+id); err != nil {
		c.log.Warn().Err(err).Str("course_id", id).Msg("course cache invalidate failed")
	}
}
