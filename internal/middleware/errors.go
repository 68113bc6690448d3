package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/repository"
	"learnhub/api/internal/security"
)

// Errors turns the last error a handler attached with c.Error into the
// {success:false,message} envelope. Unclassified errors are logged and
// reported as a generic 500.
func Errors(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, message := classify(c, err)
		if status >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("request_id", RequestIDFrom(c)).
				Str("path", c.Request.URL.Path).
				Msg("request failed")
		}

		c.JSON(status, gin.H{"success": false, "message": message})
	}
}

func classify(c *gin.Context, err error) (int, string) {
	if appErr, ok := apperr.As(err); ok {
		return appErr.Status(), appErr.Message
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
		return http.StatusBadRequest, strings.Join(fields, ", ")
	case errors.Is(err, security.ErrTokenExpired):
		return http.StatusBadRequest, "Json web token is expired, try again"
	case errors.Is(err, security.ErrTokenMalformed):
		return http.StatusBadRequest, "Json web token is invalid, try again"
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusBadRequest, "Duplicate key entered"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Resource not found. Invalid: " + c.Param("id")
	default:
		return http.StatusInternalServerError, apperr.ErrInternal.Message
	}
}
