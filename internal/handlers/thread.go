package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub/api/internal/service"
)

type addQuestionRequest struct {
	Question  string `json:"question" binding:"required"`
	CourseID  string `json:"courseId" binding:"required"`
	ContentID string `json:"contentId" binding:"required"`
}

func (h HandlerSet) AddQuestion(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req addQuestionRequest
	if !bind(c, &req) {
		return
	}

	course, err := h.threads.AddQuestion(c.Request.Context(), user, service.QuestionInput{
		CourseID:  req.CourseID,
		ContentID: req.ContentID,
		Question:  req.Question,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"course": course})
}

type addAnswerRequest struct {
	Answer     string `json:"answer" binding:"required"`
	CourseID   string `json:"courseId" binding:"required"`
	ContentID  string `json:"contentId" binding:"required"`
	QuestionID string `json:"questionId" binding:"required"`
}

func (h HandlerSet) AddAnswer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req addAnswerRequest
	if !bind(c, &req) {
		return
	}

	course, err := h.threads.AddAnswer(c.Request.Context(), user, service.AnswerInput{
		CourseID:   req.CourseID,
		ContentID:  req.ContentID,
		QuestionID: req.QuestionID,
		Answer:     req.Answer,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"course": course})
}

type addReviewRequest struct {
	Review string  `json:"review"`
	Rating float64 `json:"rating" binding:"required"`
}

func (h HandlerSet) AddReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req addReviewRequest
	if !bind(c, &req) {
		return
	}

	course, err := h.threads.AddReview(c.Request.Context(), user, service.ReviewInput{
		CourseID: c.Param("id"),
		Rating:   req.Rating,
		Comment:  req.Review,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"course": course})
}

type addReplyRequest struct {
	Comment  string `json:"comment" binding:"required"`
	CourseID string `json:"courseId" binding:"required"`
	ReviewID string `json:"reviewId" binding:"required"`
}

func (h HandlerSet) AddReply(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req addReplyRequest
	if !bind(c, &req) {
		return
	}

	course, err := h.threads.AddReply(c.Request.Context(), user, service.ReplyInput{
		CourseID: req.CourseID,
		ReviewID: req.ReviewID,
		Comment:  req.Comment,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"course": course})
}
