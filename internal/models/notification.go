package models

import "time"

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

type Notification struct {
	ID        string             `json:"_id" bson:"_id"`
	UserID    string             `json:"userId" bson:"user_id"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	Status    NotificationStatus `json:"status" bson:"status"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

type Order struct {
	ID          string         `json:"_id" bson:"_id"`
	UserID      string         `json:"userId" bson:"user_id"`
	CourseID    string         `json:"courseId" bson:"course_id"`
	PaymentInfo map[string]any `json:"payment_info,omitempty" bson:"payment_info,omitempty"`
	CreatedAt   time.Time      `json:"createdAt" bson:"created_at"`
}
