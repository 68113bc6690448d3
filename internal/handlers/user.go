package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub/api/internal/service"
)

type updateInfoRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h HandlerSet) UpdateUserInfo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req updateInfoRequest
	if !bind(c, &req) {
		return
	}

	updated, err := h.users.UpdateInfo(c.Request.Context(), user.ID, service.UpdateInfoInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"user": updated})
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h HandlerSet) UpdateUserPassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req updatePasswordRequest
	if !bind(c, &req) {
		return
	}

	updated, err := h.users.UpdatePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"user": updated})
}

type updateAvatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

func (h HandlerSet) UpdateUserAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req updateAvatarRequest
	if !bind(c, &req) {
		return
	}

	updated, err := h.users.UpdateAvatar(c.Request.Context(), user.ID, req.Avatar)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": updated})
}

func (h HandlerSet) GetAllUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"users": users})
}
