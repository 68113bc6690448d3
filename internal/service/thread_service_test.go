package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/mail"
	"learnhub/api/internal/models"
)

func TestAddQuestionAppendsAndNotifies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	student := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser, course.ID)
	contentID := course.Content[0].ID

	for _, text := range []string{"first?", "second?"} {
		_, err := h.threads.AddQuestion(ctx, student, QuestionInput{CourseID: course.ID, ContentID: contentID, Question: text})
		require.NoError(t, err)
	}

	stored, err := h.stores.Courses.Get(ctx, course.ID)
	require.NoError(t, err)
	questions := stored.ContentItem(contentID).Questions
	require.Len(t, questions, 2)
	assert.Equal(t, "first?", questions[0].Question)
	assert.Equal(t, "second?", questions[1].Question)
	assert.Equal(t, student.ID, questions[0].User.ID)
	assert.Empty(t, questions[0].Replies)
	assert.Equal(t, course.Revision+2, stored.Revision)

	notes, err := h.notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "New Question Received", notes[0].Title)
	assert.Equal(t, "You have a new question in Intro", notes[0].Message)
	assert.Equal(t, models.NotificationUnread, notes[0].Status)
}

func TestAddQuestionUnknownContentLeavesCourseUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	student := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser)

	_, err := h.threads.AddQuestion(ctx, student, QuestionInput{CourseID: course.ID, ContentID: "missing", Question: "hello?"})
	assert.ErrorIs(t, err, apperr.ErrInvalidContentID)

	stored, err := h.stores.Courses.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, course.Revision, stored.Revision)

	notes, err := h.notifications.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = h.threads.AddQuestion(ctx, student, QuestionInput{CourseID: "nope", ContentID: "missing", Question: "hello?"})
	assert.ErrorIs(t, err, apperr.ErrCourseNotFound)
}

func TestAddAnswerSelfReplyNotifiesWithoutMail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	student := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser)
	contentID := course.Content[0].ID

	withQuestion, err := h.threads.AddQuestion(ctx, student, QuestionInput{CourseID: course.ID, ContentID: contentID, Question: "why?"})
	require.NoError(t, err)
	questionID := withQuestion.ContentItem(contentID).Questions[0].ID

	saved, err := h.threads.AddAnswer(ctx, student, AnswerInput{
		CourseID: course.ID, ContentID: contentID, QuestionID: questionID, Answer: "figured it out",
	})
	require.NoError(t, err)
	require.Len(t, saved.ContentItem(contentID).Question(questionID).Replies, 1)

	assert.Empty(t, h.mailer.messages())
	notes, err := h.notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "New Question Reply Received", notes[0].Title)
}

func TestAddAnswerByOtherUserMailsAsker(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	student := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser)
	admin := h.seedUser(t, "Grace", "grace@example.com", models.UserRoleAdmin)
	contentID := course.Content[1].ID

	withQuestion, err := h.threads.AddQuestion(ctx, student, QuestionInput{CourseID: course.ID, ContentID: contentID, Question: "why?"})
	require.NoError(t, err)
	questionID := withQuestion.ContentItem(contentID).Questions[0].ID

	_, err = h.threads.AddAnswer(ctx, admin, AnswerInput{
		CourseID: course.ID, ContentID: contentID, QuestionID: questionID, Answer: "because",
	})
	require.NoError(t, err)

	sent := h.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, mail.TemplateQuestionReply, sent[0].Template)
	assert.Equal(t, "ada@example.com", sent[0].To)
	assert.Equal(t, "Channels", sent[0].Data["title"])

	notes, err := h.notifications.List(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 1, "only the question notification")
}

func TestAddAnswerMailFailureSurfaces(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	student := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser)
	admin := h.seedUser(t, "Grace", "grace@example.com", models.UserRoleAdmin)
	contentID := course.Content[0].ID

	withQuestion, err := h.threads.AddQuestion(ctx, student, QuestionInput{CourseID: course.ID, ContentID: contentID, Question: "why?"})
	require.NoError(t, err)
	questionID := withQuestion.ContentItem(contentID).Questions[0].ID

	h.mailer.err = errBoom
	_, err = h.threads.AddAnswer(ctx, admin, AnswerInput{
		CourseID: course.ID, ContentID: contentID, QuestionID: questionID, Answer: "because",
	})
	assert.ErrorIs(t, err, apperr.ErrMailDelivery)
}

func TestAddAnswerLookupFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	admin := h.seedUser(t, "Grace", "grace@example.com", models.UserRoleAdmin)

	_, err := h.threads.AddAnswer(ctx, admin, AnswerInput{CourseID: course.ID, ContentID: "missing", QuestionID: "q", Answer: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidContentID)

	_, err = h.threads.AddAnswer(ctx, admin, AnswerInput{CourseID: course.ID, ContentID: course.Content[0].ID, QuestionID: "missing", Answer: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidQuestionID)
}

func TestAddReviewRecomputesMean(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	student := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser, course.ID)

	var saved models.Course
	var err error
	for _, rating := range []float64{4, 5, 3} {
		saved, err = h.threads.AddReview(ctx, student, ReviewInput{CourseID: course.ID, Rating: rating, Comment: "ok"})
		require.NoError(t, err)
	}
	assert.Len(t, saved.Reviews, 3)
	assert.Equal(t, 4.0, saved.Ratings)
}

func TestAddReviewRequiresEnrollment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	outsider := h.seedUser(t, "Eve", "eve@example.com", models.UserRoleUser)

	_, err := h.threads.AddReview(ctx, outsider, ReviewInput{CourseID: course.ID, Rating: 5})
	assert.ErrorIs(t, err, apperr.ErrNotPurchased)

	stored, err := h.stores.Courses.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Reviews)

	enrolled := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser, course.ID)
	_, err = h.threads.AddReview(ctx, enrolled, ReviewInput{CourseID: course.ID, Rating: 7})
	assert.ErrorIs(t, err, apperr.ErrInvalidRating)
}

func TestAddReplyInitializesThread(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	student := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser, course.ID)
	admin := h.seedUser(t, "Grace", "grace@example.com", models.UserRoleAdmin)

	reviewed, err := h.threads.AddReview(ctx, student, ReviewInput{CourseID: course.ID, Rating: 5, Comment: "great"})
	require.NoError(t, err)
	reviewID := reviewed.Reviews[0].ID
	assert.Nil(t, reviewed.Reviews[0].Replies)

	saved, err := h.threads.AddReply(ctx, admin, ReplyInput{CourseID: course.ID, ReviewID: reviewID, Comment: "thanks"})
	require.NoError(t, err)
	replies := saved.Review(reviewID).Replies
	require.Len(t, replies, 1)
	assert.Equal(t, "thanks", replies[0].Comment)
	assert.Equal(t, admin.ID, replies[0].User.ID)

	_, err = h.threads.AddReply(ctx, admin, ReplyInput{CourseID: "nope", ReviewID: reviewID, Comment: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCourseID)

	_, err = h.threads.AddReply(ctx, admin, ReplyInput{CourseID: course.ID, ReviewID: "nope", Comment: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidReviewID)
}

func TestStaleSaveIsRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	student := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser)

	stale, err := h.stores.Courses.Get(ctx, course.ID)
	require.NoError(t, err)

	_, err = h.threads.AddQuestion(ctx, student, QuestionInput{CourseID: course.ID, ContentID: course.Content[0].ID, Question: "first"})
	require.NoError(t, err)

	_, err = h.threads.save(ctx, stale)
	assert.ErrorIs(t, err, apperr.ErrConcurrentUpdate)
}

func TestThreadMutationInvalidatesCourseCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	student := h.seedUser(t, "Ada", "ada@example.com", models.UserRoleUser, course.ID)

	_, err := h.courses.Get(ctx, course.ID)
	require.NoError(t, err)
	_, cached := h.courseCache.Get(ctx, course.ID)
	require.True(t, cached)

	_, err = h.threads.AddReview(ctx, student, ReviewInput{CourseID: course.ID, Rating: 5})
	require.NoError(t, err)

	_, cached = h.courseCache.Get(ctx, course.ID)
	assert.False(t, cached)

	public, err := h.courses.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, public.Ratings)
}
