package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/config"
	"learnhub/api/internal/middleware"
	"learnhub/api/internal/models"
	"learnhub/api/internal/service"
)

// Pinger is any backing service the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Deps struct {
	Log           zerolog.Logger
	Config        *config.AppConfig
	Auth          *service.AuthService
	Users         *service.UserService
	Courses       *service.CourseService
	Threads       *service.ThreadService
	Notifications *service.NotificationService
	Orders        *service.OrderService
	// Checks are probed by /healthz, keyed by the name reported back.
	Checks map[string]Pinger
}

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	cookies       middleware.Cookies
	auth          *service.AuthService
	users         *service.UserService
	courses       *service.CourseService
	threads       *service.ThreadService
	notifications *service.NotificationService
	orders        *service.OrderService
	checks        map[string]Pinger
}

func NewHandlerSet(deps Deps) HandlerSet {
	sec := deps.Config.Security
	return HandlerSet{
		log: deps.Log,
		cfg: deps.Config,
		cookies: middleware.Cookies{
			Domain:     sec.CookieDomain,
			Secure:     sec.CookieSecure || deps.Config.IsProduction(),
			AccessTTL:  sec.JWTAccessTTL,
			RefreshTTL: sec.JWTRefreshTTL,
		},
		auth:          deps.Auth,
		users:         deps.Users,
		courses:       deps.Courses,
		threads:       deps.Threads,
		notifications: deps.Notifications,
		orders:        deps.Orders,
		checks:        deps.Checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	v1 := router.Group("/v1")
	v1.GET("/healthz", h.Health)

	authed := middleware.IsAuthenticated(h.auth, h.cookies)
	admin := middleware.AuthorizeRoles(models.UserRoleAdmin)

	v1.POST("/registration", h.Registration)
	v1.POST("/activate-user", h.ActivateUser)
	v1.POST("/login", h.Login)
	v1.POST("/social-auth", h.SocialAuth)
	v1.GET("/refresh-token", h.RefreshToken)
	v1.GET("/logout", authed, h.Logout)
	v1.GET("/me", authed, h.Me)

	v1.PUT("/update-profile", authed, h.UpdateUserInfo)
	v1.PUT("/update-password", authed, h.UpdateUserPassword)
	v1.PUT("/update-avatar", authed, h.UpdateUserAvatar)
	v1.GET("/get-all-users", authed, admin, h.GetAllUsers)

	v1.GET("/get-course/:id", h.GetCourse)
	v1.GET("/get-courses", h.GetCourses)
	v1.GET("/get-course-content/:id", authed, h.GetCourseContent)
	v1.POST("/create-course", authed, admin, h.CreateCourse)
	v1.PUT("/edit-course/:id", authed, admin, h.EditCourse)
	v1.GET("/get-all-courses", authed, admin, h.GetAllCourses)
	v1.DELETE("/delete-course/:id", authed, admin, h.DeleteCourse)

	v1.PUT("/add-question", authed, h.AddQuestion)
	v1.PUT("/add-answer", authed, h.AddAnswer)
	v1.PUT("/add-review/:id", authed, h.AddReview)
	v1.PUT("/add-reply", authed, admin, h.AddReply)

	v1.POST("/create-order", authed, h.CreateOrder)
	v1.GET("/get-orders", authed, admin, h.GetOrders)

	v1.GET("/get-notifications", authed, admin, h.GetNotifications)
	v1.PUT("/update-notification/:id", authed, admin, h.UpdateNotification)
}

// bind decodes the JSON body. Validator failures are passed through so the
// error responder can name the offending fields.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			_ = c.Error(err)
		} else {
			_ = c.Error(apperr.ErrValidation.Withf("Invalid request body").Wrap(err))
		}
		return false
	}
	return true
}

func currentUser(c *gin.Context) (models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperr.ErrUnauthenticated)
	}
	return user, ok
}

func respond(c *gin.Context, status int, body gin.H) {
	body["success"] = true
	c.JSON(status, body)
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

