// Package memory implements the repository contracts in process memory. It
// backs the "memory" database driver and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"learnhub/api/internal/models"
	"learnhub/api/internal/repository"
)

func NewStores() repository.Stores {
	return repository.Stores{
		Users:         NewUserStore(),
		Courses:       NewCourseStore(),
		Notifications: NewNotificationStore(),
		Orders:        NewOrderStore(),
	}
}

type UserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

func (s *UserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(user.Email, "") {
		return repository.ErrDuplicate
	}
	if _, ok := s.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return copyUser(user), nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return copyUser(user), nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

func (s *UserStore) Update(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if s.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicate
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *UserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, copyUser(user))
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

// Count reports how many users are stored.
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *UserStore) emailTaken(email, exceptID string) bool {
	for id, existing := range s.users {
		if id != exceptID && strings.EqualFold(existing.Email, email) {
			return true
		}
	}
	return false
}

func copyUser(u models.User) models.User {
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	u.Courses = append([]models.CourseRef(nil), u.Courses...)
	if u.Avatar != nil {
		avatar := *u.Avatar
		u.Avatar = &avatar
	}
	return u
}

type CourseStore struct {
	mu      sync.RWMutex
	courses map[string]models.Course
}

func NewCourseStore() *CourseStore {
	return &CourseStore{courses: make(map[string]models.Course)}
}

func (s *CourseStore) Create(_ context.Context, course models.Course) (models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[course.ID]; ok {
		return models.Course{}, repository.ErrDuplicate
	}
	course.Revision = 1
	s.courses[course.ID] = course.Clone()
	return course, nil
}

func (s *CourseStore) Get(_ context.Context, id string) (models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	course, ok := s.courses[id]
	if !ok {
		return models.Course{}, repository.ErrNotFound
	}
	return course.Clone(), nil
}

func (s *CourseStore) List(_ context.Context) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Course, 0, len(s.courses))
	for _, course := range s.courses {
		out = append(out, course.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *CourseStore) Save(_ context.Context, course models.Course) (models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.courses[course.ID]
	if !ok {
		return models.Course{}, repository.ErrNotFound
	}
	if current.Revision != course.Revision {
		return models.Course{}, repository.ErrStaleRevision
	}
	course.Revision++
	s.courses[course.ID] = course.Clone()
	return course, nil
}

func (s *CourseStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.courses, id)
	return nil
}

type NotificationStore struct {
	mu            sync.RWMutex
	notifications map[string]models.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{notifications: make(map[string]models.Notification)}
}

func (s *NotificationStore) Create(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[n.ID]; ok {
		return repository.ErrDuplicate
	}
	s.notifications[n.ID] = n
	return nil
}

func (s *NotificationStore) Get(_ context.Context, id string) (models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return models.Notification{}, repository.ErrNotFound
	}
	return n, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	if n.Status != models.NotificationUnread {
		return nil
	}
	n.Status = models.NotificationRead
	n.UpdatedAt = at
	s.notifications[id] = n
	return nil
}

func (s *NotificationStore) List(_ context.Context) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *NotificationStore) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, n := range s.notifications {
		if n.Status == models.NotificationRead && n.CreatedAt.Before(cutoff) {
			delete(s.notifications, id)
			removed++
		}
	}
	return removed, nil
}

type OrderStore struct {
	mu     sync.RWMutex
	orders []models.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{}
}

func (s *OrderStore) Create(_ context.Context, order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order)
	return nil
}

func (s *OrderStore) List(_ context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]models.Order(nil), s.orders...)
	sort.SliceStable(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

// newer orders by creation time descending; ids break ties so equal
// timestamps still sort deterministically.
func newer(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idA > idB
}
