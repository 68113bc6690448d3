// Package apperr defines the error taxonomy shared by services and the HTTP
// error responder. Every error a client can see is an *Error with a stable
// code and a user-safe message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInvalid Kind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "upstream"
	}
}

// Status maps a kind onto its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindInvalid:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so wrapped copies of a sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) Status() int { return e.Kind.Status() }

// Wrap returns a copy of e carrying cause. The sentinel itself is not mutated.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// Withf returns a copy of e with a formatted message.
func (e *Error) Withf(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func Invalid(code, message string) *Error {
	return New(KindInvalid, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

var (
	ErrValidation           = New(KindInvalid, "validation", "Invalid request")
	ErrDuplicateEmail       = New(KindInvalid, "duplicate_email", "Email already exists")
	ErrInvalidCredentials   = New(KindInvalid, "invalid_credentials", "Invalid email or password")
	ErrMissingCredentials   = New(KindInvalid, "missing_credentials", "Please enter your email and password")
	ErrInvalidCode          = New(KindInvalid, "invalid_code", "Incorrect activation code")
	ErrExpiredTicket        = New(KindInvalid, "expired_ticket", "Activation token has expired")
	ErrInvalidTicket        = New(KindInvalid, "invalid_ticket", "Activation token is not valid")
	ErrCouldNotRefresh      = New(KindInvalid, "could_not_refresh", "Could not refresh token")
	ErrIncorrectPassword    = New(KindInvalid, "incorrect_password", "Old password is incorrect")
	ErrInvalidUser          = New(KindInvalid, "invalid_user", "Invalid user")
	ErrUnauthenticated      = New(KindUnauthenticated, "unauthenticated", "Please login to access this resource")
	ErrInvalidToken         = New(KindUnauthenticated, "invalid_token", "Access Token is not valid")
	ErrSessionUserNotFound  = New(KindUnauthenticated, "session_not_found", "User not found")
	ErrForbidden            = New(KindForbidden, "forbidden", "You are not allowed to access this resource")
	ErrInvalidContentID     = New(KindInvalid, "invalid_content_id", "Invalid content id")
	ErrInvalidQuestionID    = New(KindInvalid, "invalid_question_id", "Invalid question id")
	ErrInvalidCourseID      = New(KindInvalid, "invalid_course_id", "Invalid course id")
	ErrInvalidReviewID      = New(KindInvalid, "invalid_review_id", "Invalid review id")
	ErrInvalidRating        = New(KindInvalid, "invalid_rating", "Rating must be between 1 and 5")
	ErrNotPurchased         = New(KindForbidden, "not_purchased", "You are not eligible to access this course")
	ErrAlreadyEnrolled      = New(KindInvalid, "already_enrolled", "You already enrolled this course")
	ErrUserNotFound         = New(KindNotFound, "user_not_found", "User not found")
	ErrCourseNotFound       = New(KindNotFound, "course_not_found", "Course not found")
	ErrNotificationNotFound = New(KindNotFound, "notification_not_found", "Notification not found")
	ErrConcurrentUpdate     = New(KindConflict, "concurrent_update", "The resource was modified by another request, please retry")
	ErrMailDelivery         = New(KindUpstream, "mail_delivery", "Could not send email, please try again later")
	ErrMedia                = New(KindUpstream, "media_failure", "Could not process media, please try again later")
	ErrInternal             = New(KindUpstream, "internal", "Internal Server Error")
)
