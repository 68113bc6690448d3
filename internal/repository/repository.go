// Package repository defines the document store contracts used by the
// services and implements them on PostgreSQL. Sibling packages provide the
// MongoDB and in-memory implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"learnhub/api/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate key")
	// ErrStaleRevision means the course changed between read and save.
	ErrStaleRevision = errors.New("stale revision")
)

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	List(ctx context.Context) ([]models.User, error)
}

// CourseStore persists whole course documents. Save is a compare-and-swap on
// Revision: it succeeds only if the stored revision still equals
// course.Revision and returns the course with the incremented revision.
type CourseStore interface {
	Create(ctx context.Context, course models.Course) (models.Course, error)
	Get(ctx context.Context, id string) (models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	Save(ctx context.Context, course models.Course) (models.Course, error)
	Delete(ctx context.Context, id string) error
}

type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) error
	Get(ctx context.Context, id string) (models.Notification, error)
	// MarkRead moves an unread notification to read. Already-read rows are left alone.
	MarkRead(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context) ([]models.Notification, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type OrderStore interface {
	Create(ctx context.Context, order models.Order) error
	List(ctx context.Context) ([]models.Order, error)
}

// Stores bundles one implementation of every contract.
type Stores struct {
	Users         UserStore
	Courses       CourseStore
	Notifications NotificationStore
	Orders        OrderStore
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
