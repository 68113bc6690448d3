package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"learnhub/api/internal/cache"
	"learnhub/api/internal/ids"
	"learnhub/api/internal/mail"
	"learnhub/api/internal/models"
	"learnhub/api/internal/repository"
	"learnhub/api/internal/repository/memory"
	"learnhub/api/internal/security"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) messages() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.sent...)
}

type fakeMedia struct {
	uploads   []string
	destroyed []string
	err       error
}

func (f *fakeMedia) Upload(_ context.Context, source, folder string) (models.Asset, error) {
	if f.err != nil {
		return models.Asset{}, f.err
	}
	id := folder + "/" + ids.New()
	f.uploads = append(f.uploads, source)
	return models.Asset{ID: id, URL: "https://cdn.test/" + id}, nil
}

func (f *fakeMedia) Destroy(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	f.destroyed = append(f.destroyed, id)
	return nil
}

var errBoom = errors.New("boom")

type harness struct {
	stores        repository.Stores
	kv            *cache.MemoryStore
	sessions      *cache.SessionCache
	courseCache   *cache.CourseCache
	mailer        *fakeMailer
	media         *fakeMedia
	tokens        *security.TokenIssuer
	auth          *AuthService
	users         *UserService
	threads       *ThreadService
	courses       *CourseService
	notifications *NotificationService
	orders        *OrderService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()

	h := &harness{
		stores: memory.NewStores(),
		kv:     cache.NewMemoryStore(),
		mailer: &fakeMailer{},
		media:  &fakeMedia{},
		tokens: security.NewTokenIssuer("access", "refresh", 5*time.Minute, 7*24*time.Hour),
	}
	h.sessions = cache.NewSessionCache(h.kv)
	h.courseCache = cache.NewCourseCache(h.kv, time.Hour, log)
	activator := security.NewActivator("activation", 5*time.Minute)

	h.auth = NewAuthService(h.stores.Users, h.sessions, h.tokens, activator, h.mailer, nil, log)
	h.users = NewUserService(h.stores.Users, h.sessions, h.media, log)
	h.notifications = NewNotificationService(h.stores.Notifications, DefaultRetention, nil, log)
	h.threads = NewThreadService(h.stores.Courses, h.courseCache, h.notifications, h.mailer, nil, log)
	h.courses = NewCourseService(h.stores.Courses, h.courseCache, h.media, log)
	h.orders = NewOrderService(h.stores.Orders, h.stores.Courses, h.courseCache, h.users, h.notifications, h.mailer, nil, log)
	return h
}

// seedUser stores an activated account with a known password and an active session.
func (h *harness) seedUser(t *testing.T, name, email string, role models.UserRole, courses ...string) models.User {
	t.Helper()
	hash, err := security.HashPasswordWithParams("secret123", security.Argon2Params{
		Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16,
	})
	require.NoError(t, err)

	user := models.User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsVerified:   true,
		CreatedAt:    time.Now().UTC(),
	}
	for _, id := range courses {
		user.Courses = append(user.Courses, models.CourseRef{CourseID: id})
	}
	require.NoError(t, h.stores.Users.Create(context.Background(), user))
	require.NoError(t, h.sessions.Put(context.Background(), user))
	return user
}

func (h *harness) seedCourse(t *testing.T) models.Course {
	t.Helper()
	course, err := h.courses.Create(context.Background(), CourseInput{
		Name:  "Go in Practice",
		Price: 49,
		Content: []models.ContentItem{
			{Title: "Intro", VideoURL: "https://video.test/intro", Suggestion: "watch twice"},
			{Title: "Channels", VideoURL: "https://video.test/channels"},
		},
	})
	require.NoError(t, err)
	return course
}
