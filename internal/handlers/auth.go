package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub/api/internal/middleware"
	"learnhub/api/internal/service"
)

type registrationRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Registration(c *gin.Context) {
	var req registrationRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"message":         "Please check your email: " + result.Email + " to activate your account!",
		"activationToken": result.ActivationToken,
	})
}

type activationRequest struct {
	ActivationToken string `json:"activation_token" binding:"required"`
	ActivationCode  string `json:"activation_code" binding:"required"`
}

func (h HandlerSet) ActivateUser(c *gin.Context) {
	var req activationRequest
	if !bind(c, &req) {
		return
	}

	if _, err := h.auth.Activate(c.Request.Context(), req.ActivationToken, req.ActivationCode); err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	h.sendSession(c, result)
}

type socialAuthRequest struct {
	Email  string `json:"email" binding:"required"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (h HandlerSet) SocialAuth(c *gin.Context) {
	var req socialAuthRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.auth.SocialAuth(c.Request.Context(), service.SocialInput{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: req.Avatar,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.sendSession(c, result)
}

func (h HandlerSet) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), user.ID); err != nil {
		fail(c, err)
		return
	}

	h.cookies.Clear(c)
	respond(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h HandlerSet) RefreshToken(c *gin.Context) {
	refresh, _ := c.Cookie(middleware.RefreshCookie)

	result, err := h.auth.Refresh(c.Request.Context(), refresh)
	if err != nil {
		fail(c, err)
		return
	}

	h.cookies.Set(c, result)
	respond(c, http.StatusOK, gin.H{"accessToken": result.AccessToken})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	info, err := h.users.UserInfo(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": info})
}

func (h HandlerSet) sendSession(c *gin.Context, result service.AuthResult) {
	h.cookies.Set(c, result)
	respond(c, http.StatusOK, gin.H{
		"user":        result.User,
		"accessToken": result.AccessToken,
	})
}
