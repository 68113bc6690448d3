package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

// Asset references an object held by the media service.
type Asset struct {
	ID  string `json:"public_id" bson:"public_id"`
	URL string `json:"url" bson:"url"`
}

func (a *Asset) Empty() bool {
	return a == nil || a.ID == ""
}

type CourseRef struct {
	CourseID string `json:"courseId" bson:"course_id"`
}

// User is the persisted identity record. PasswordHash is never serialized to
// clients or into the session snapshot.
type User struct {
	ID           string      `json:"_id" bson:"_id"`
	Name         string      `json:"name" bson:"name"`
	Email        string      `json:"email" bson:"email"`
	PasswordHash []byte      `json:"-" bson:"password_hash,omitempty"`
	Avatar       *Asset      `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Role         UserRole    `json:"role" bson:"role"`
	IsVerified   bool        `json:"isVerified" bson:"is_verified"`
	Courses      []CourseRef `json:"courses" bson:"courses"`
	CreatedAt    time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updated_at"`
}

func (u User) HasCourse(courseID string) bool {
	for _, ref := range u.Courses {
		if ref.CourseID == courseID {
			return true
		}
	}
	return false
}

// Summary is the compact author reference embedded in thread nodes.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
		Role:   u.Role,
	}
}

type UserSummary struct {
	ID     string   `json:"_id" bson:"_id"`
	Name   string   `json:"name" bson:"name"`
	Email  string   `json:"email" bson:"email"`
	Avatar *Asset   `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Role   UserRole `json:"role" bson:"role"`
}

// PendingUser is the unverified registration carried inside an activation
// ticket. The ticket payload is readable by the client, so only the password
// hash travels in it.
type PendingUser struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}
