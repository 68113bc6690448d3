package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/api/internal/cache"
	"learnhub/api/internal/config"
	"learnhub/api/internal/mail"
	"learnhub/api/internal/middleware"
	"learnhub/api/internal/models"
	"learnhub/api/internal/repository"
	"learnhub/api/internal/repository/memory"
	"learnhub/api/internal/security"
	"learnhub/api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) last() mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type noMedia struct{}

func (noMedia) Upload(_ context.Context, _, folder string) (models.Asset, error) {
	return models.Asset{ID: folder + "/x", URL: "https://cdn.test/" + folder + "/x"}, nil
}

func (noMedia) Destroy(context.Context, string) error { return nil }

type testAPI struct {
	engine   *gin.Engine
	stores   repository.Stores
	sessions *cache.SessionCache
	mailer   *captureMailer
	courses  *service.CourseService
}

func newTestAPI(t *testing.T, checks map[string]Pinger) *testAPI {
	t.Helper()
	log := zerolog.Nop()
	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTAccessSecret:     "access",
			JWTRefreshSecret:    "refresh",
			JWTActivationSecret: "activation",
			JWTAccessTTL:        5 * time.Minute,
			JWTRefreshTTL:       time.Hour,
			ActivationTTL:       5 * time.Minute,
		},
	}

	stores := memory.NewStores()
	kv := cache.NewMemoryStore()
	sessions := cache.NewSessionCache(kv)
	courseCache := cache.NewCourseCache(kv, time.Hour, log)
	mailer := &captureMailer{}
	tokens := security.NewTokenIssuer(cfg.Security.JWTAccessSecret, cfg.Security.JWTRefreshSecret, cfg.Security.JWTAccessTTL, cfg.Security.JWTRefreshTTL)
	activator := security.NewActivator(cfg.Security.JWTActivationSecret, cfg.Security.ActivationTTL)

	users := service.NewUserService(stores.Users, sessions, noMedia{}, log)
	notifications := service.NewNotificationService(stores.Notifications, 0, nil, log)
	courses := service.NewCourseService(stores.Courses, courseCache, noMedia{}, log)

	h := NewHandlerSet(Deps{
		Log:           log,
		Config:        cfg,
		Auth:          service.NewAuthService(stores.Users, sessions, tokens, activator, mailer, nil, log),
		Users:         users,
		Courses:       courses,
		Threads:       service.NewThreadService(stores.Courses, courseCache, notifications, mailer, nil, log),
		Notifications: notifications,
		Orders:        service.NewOrderService(stores.Orders, stores.Courses, courseCache, users, notifications, mailer, nil, log),
		Checks:        checks,
	})

	engine := gin.New()
	engine.Use(middleware.Errors(log))
	h.Register(engine.Group("/api"))

	return &testAPI{engine: engine, stores: stores, sessions: sessions, mailer: mailer, courses: courses}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, cookies []*http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

// signup registers, activates and logs in, returning the session cookies.
func (a *testAPI) signup(t *testing.T, email string) []*http.Cookie {
	t.Helper()

	rec, body := a.do(t, http.MethodPost, "/api/v1/registration", gin.H{
		"name": "Ada", "email": email, "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token := body["activationToken"].(string)
	code := a.mailer.last().Data["activationCode"].(string)

	rec, _ = a.do(t, http.MethodPost, "/api/v1/activate-user", gin.H{
		"activation_token": token, "activation_code": code,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body = a.do(t, http.MethodPost, "/api/v1/login", gin.H{"email": email, "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["accessToken"])
	return rec.Result().Cookies()
}

func (a *testAPI) promote(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	user, err := a.stores.Users.FindByEmail(ctx, email)
	require.NoError(t, err)
	user.Role = models.UserRoleAdmin
	require.NoError(t, a.stores.Users.Update(ctx, user))
	require.NoError(t, a.sessions.Put(ctx, user))
}

func TestAuthLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	cookies := api.signup(t, "ada@example.com")

	names := map[string]bool{}
	for _, ck := range cookies {
		names[ck.Name] = ck.HttpOnly
	}
	assert.True(t, names[middleware.AccessCookie])
	assert.True(t, names[middleware.RefreshCookie])

	rec, body := api.do(t, http.MethodGet, "/api/v1/me", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, rec.Body.String(), "argon2")

	rec, body = api.do(t, http.MethodGet, "/api/v1/refresh-token", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["accessToken"])

	rec, _ = api.do(t, http.MethodGet, "/api/v1/logout", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = api.do(t, http.MethodGet, "/api/v1/refresh-token", nil, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Could not refresh token", body["message"])
}

func TestRegistrationDuplicateEmail(t *testing.T) {
	api := newTestAPI(t, nil)
	api.signup(t, "ada@example.com")

	rec, body := api.do(t, http.MethodPost, "/api/v1/registration", gin.H{
		"name": "Ada", "email": "ada@example.com", "password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Email already exists", body["message"])
}

func TestLoginWrongPassword(t *testing.T) {
	api := newTestAPI(t, nil)
	api.signup(t, "ada@example.com")

	rec, body := api.do(t, http.MethodPost, "/api/v1/login", gin.H{"email": "ada@example.com", "password": "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	api := newTestAPI(t, nil)
	cookies := api.signup(t, "ada@example.com")

	rec, body := api.do(t, http.MethodGet, "/api/v1/get-all-users", nil, cookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, body["message"], "Role: user")

	rec, _ = api.do(t, http.MethodGet, "/api/v1/get-all-users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.promote(t, "ada@example.com")
	rec, body = api.do(t, http.MethodGet, "/api/v1/get-all-users", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["users"], 1)
}

func TestProtectedRoutesAreMounted(t *testing.T) {
	api := newTestAPI(t, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/v1/update-profile"},
		{http.MethodPut, "/api/v1/update-password"},
		{http.MethodPut, "/api/v1/update-avatar"},
		{http.MethodGet, "/api/v1/get-all-users"},
		{http.MethodGet, "/api/v1/get-all-courses"},
		{http.MethodPost, "/api/v1/create-order"},
		{http.MethodGet, "/api/v1/get-notifications"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec, body := api.do(t, rt.method, rt.path, nil, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Please login to access this resource", body["message"])
		})
	}
}

func TestCourseThreadFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	adminCookies := api.signup(t, "admin@example.com")
	api.promote(t, "admin@example.com")
	studentCookies := api.signup(t, "student@example.com")

	rec, body := api.do(t, http.MethodPost, "/api/v1/create-course", gin.H{
		"name":       "Go",
		"price":      10,
		"courseData": []gin.H{{"title": "Intro", "videoUrl": "https://video.test/1"}},
	}, adminCookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	course := body["course"].(map[string]any)
	courseID := course["_id"].(string)
	contentID := course["courseData"].([]any)[0].(map[string]any)["_id"].(string)

	rec, body = api.do(t, http.MethodGet, "/api/v1/get-course/"+courseID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "video.test")

	rec, _ = api.do(t, http.MethodGet, "/api/v1/get-course-content/"+courseID, nil, studentCookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, http.MethodPut, "/api/v1/add-review/"+courseID, gin.H{"review": "nice", "rating": 5}, studentCookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, http.MethodPost, "/api/v1/create-order", gin.H{"courseId": courseID}, studentCookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body = api.do(t, http.MethodGet, "/api/v1/get-course-content/"+courseID, nil, studentCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "video.test")

	rec, _ = api.do(t, http.MethodPut, "/api/v1/add-question", gin.H{
		"question": "why?", "courseId": courseID, "contentId": contentID,
	}, studentCookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body = api.do(t, http.MethodPut, "/api/v1/add-question", gin.H{
		"question": "why?", "courseId": courseID, "contentId": "missing",
	}, studentCookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid content id", body["message"])

	rec, body = api.do(t, http.MethodPut, "/api/v1/add-review/"+courseID, gin.H{"review": "nice", "rating": 4}, studentCookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reviewID := body["course"].(map[string]any)["reviews"].([]any)[0].(map[string]any)["_id"].(string)

	rec, _ = api.do(t, http.MethodPut, "/api/v1/add-reply", gin.H{
		"comment": "thanks", "courseId": courseID, "reviewId": reviewID,
	}, adminCookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body = api.do(t, http.MethodGet, "/api/v1/get-notifications", nil, adminCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := body["notifications"].([]any)
	require.Len(t, notes, 2)
	newest := notes[0].(map[string]any)
	assert.Equal(t, "New Question Received", newest["title"])

	rec, body = api.do(t, http.MethodPut, "/api/v1/update-notification/"+newest["_id"].(string), nil, adminCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"read"`)

	rec, body = api.do(t, http.MethodPut, "/api/v1/update-notification/missing", nil, adminCookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Notification not found", body["message"])
}

func TestValidationErrorsNameFields(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, body := api.do(t, http.MethodPost, "/api/v1/activate-user", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "ActivationToken")
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, map[string]Pinger{
		"cache":    PingFunc(func(context.Context) error { return nil }),
		"database": PingFunc(func(context.Context) error { return errors.New("down") }),
	})

	rec, body := api.do(t, http.MethodGet, "/api/v1/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["cache"])
	assert.Equal(t, "error", checks["database"])
}
