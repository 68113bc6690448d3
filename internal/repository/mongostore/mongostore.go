// Package mongostore implements the repository contracts on MongoDB, one
// collection per aggregate. Course documents carry their revision inline and
// saves filter on it.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnhub/api/internal/models"
	"learnhub/api/internal/repository"
)

const (
	usersCollection         = "users"
	coursesCollection       = "courses"
	notificationsCollection = "notifications"
	ordersCollection        = "orders"
)

// NewStores builds every store on db after making sure the indexes the
// contracts rely on exist.
func NewStores(ctx context.Context, db *mongo.Database) (repository.Stores, error) {
	if err := EnsureIndexes(ctx, db); err != nil {
		return repository.Stores{}, err
	}
	return repository.Stores{
		Users:         &UserStore{coll: db.Collection(usersCollection)},
		Courses:       &CourseStore{coll: db.Collection(coursesCollection)},
		Notifications: &NotificationStore{coll: db.Collection(notificationsCollection)},
		Orders:        &OrderStore{coll: db.Collection(ordersCollection)},
	}, nil
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	if _, err := db.Collection(notificationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("notifications sweep index: %w", err)
	}
	return nil
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

type UserStore struct {
	coll *mongo.Collection
}

func (s *UserStore) Create(ctx context.Context, user models.User) error {
	user.Email = strings.ToLower(user.Email)
	if user.Courses == nil {
		user.Courses = []models.CourseRef{}
	}
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, repository.ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *UserStore) Update(ctx context.Context, user models.User) error {
	user.Email = strings.ToLower(user.Email)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("replace user: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

type CourseStore struct {
	coll *mongo.Collection
}

func (s *CourseStore) Create(ctx context.Context, course models.Course) (models.Course, error) {
	course.Revision = 1
	if _, err := s.coll.InsertOne(ctx, course); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Course{}, repository.ErrDuplicate
		}
		return models.Course{}, fmt.Errorf("insert course: %w", err)
	}
	return course, nil
}

func (s *CourseStore) Get(ctx context.Context, id string) (models.Course, error) {
	var course models.Course
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&course); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Course{}, repository.ErrNotFound
		}
		return models.Course{}, fmt.Errorf("find course: %w", err)
	}
	return course, nil
}

func (s *CourseStore) List(ctx context.Context) ([]models.Course, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	var courses []models.Course
	if err := cur.All(ctx, &courses); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	return courses, nil
}

func (s *CourseStore) Save(ctx context.Context, course models.Course) (models.Course, error) {
	expected := course.Revision
	course.Revision = expected + 1

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": course.ID, "revision": expected}, course)
	if err != nil {
		return models.Course{}, fmt.Errorf("save course: %w", err)
	}
	if res.MatchedCount == 1 {
		return course, nil
	}

	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": course.ID})
	if err != nil {
		return models.Course{}, fmt.Errorf("check course: %w", err)
	}
	if n == 0 {
		return models.Course{}, repository.ErrNotFound
	}
	return models.Course{}, repository.ErrStaleRevision
}

func (s *CourseStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type NotificationStore struct {
	coll *mongo.Collection
}

func (s *NotificationStore) Create(ctx context.Context, n models.Notification) error {
	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *NotificationStore) Get(ctx context.Context, id string) (models.Notification, error) {
	var n models.Notification
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Notification{}, repository.ErrNotFound
		}
		return models.Notification{}, fmt.Errorf("find notification: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id string, at time.Time) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.NotificationUnread},
		bson.M{"$set": bson.M{"status": models.NotificationRead, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing unread matched: either it is already read or it does not exist.
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count notification: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *NotificationStore) List(ctx context.Context) ([]models.Notification, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return out, nil
}

func (s *NotificationStore) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{
		"status":     models.NotificationRead,
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("sweep notifications: %w", err)
	}
	return res.DeletedCount, nil
}

type OrderStore struct {
	coll *mongo.Collection
}

func (s *OrderStore) Create(ctx context.Context, order models.Order) error {
	if _, err := s.coll.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *OrderStore) List(ctx context.Context) ([]models.Order, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}
