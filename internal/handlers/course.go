package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub/api/internal/models"
	"learnhub/api/internal/service"
)

type courseRequest struct {
	Name           string               `json:"name" binding:"required"`
	Description    string               `json:"description"`
	Price          float64              `json:"price" binding:"gte=0"`
	EstimatedPrice float64              `json:"estimatedPrice" binding:"gte=0"`
	Thumbnail      string               `json:"thumbnail"`
	Tags           string               `json:"tags"`
	Level          string               `json:"level"`
	DemoURL        string               `json:"demoUrl"`
	Benefits       []string             `json:"benefits"`
	Prerequisites  []string             `json:"prerequisites"`
	CourseData     []models.ContentItem `json:"courseData"`
}

func (r courseRequest) input() service.CourseInput {
	return service.CourseInput{
		Name:           r.Name,
		Description:    r.Description,
		Price:          r.Price,
		EstimatedPrice: r.EstimatedPrice,
		Thumbnail:      r.Thumbnail,
		Tags:           r.Tags,
		Level:          r.Level,
		DemoURL:        r.DemoURL,
		Benefits:       r.Benefits,
		Prerequisites:  r.Prerequisites,
		Content:        r.CourseData,
	}
}

func (h HandlerSet) CreateCourse(c *gin.Context) {
	var req courseRequest
	if !bind(c, &req) {
		return
	}

	course, err := h.courses.Create(c.Request.Context(), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"course": course})
}

func (h HandlerSet) EditCourse(c *gin.Context) {
	var req courseRequest
	if !bind(c, &req) {
		return
	}

	course, err := h.courses.Edit(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"course": course})
}

func (h HandlerSet) GetCourse(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"course": course})
}

func (h HandlerSet) GetCourses(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"courses": courses})
}

func (h HandlerSet) GetCourseContent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	content, err := h.courses.Content(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"content": content})
}

func (h HandlerSet) GetAllCourses(c *gin.Context) {
	courses, err := h.courses.ListAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"courses": courses})
}

func (h HandlerSet) DeleteCourse(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Course deleted successfully"})
}
