package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sertugser/assessai/internal/feedback"
)

func (s *Server) feedbackReady(c *gin.Context) bool {
	if s.deps.Feedback == nil {
		abortError(c, http.StatusServiceUnavailable, codeUnavailable, "feedback is not enabled")
		return false
	}
	return true
}

func feedbackError(c *gin.Context, err error) {
	if errors.Is(err, feedback.ErrEmptyInput) {
		abortError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	_ = c.Error(err)
	abortError(c, http.StatusInternalServerError, codeInternal, "internal error")
}

func (s *Server) writingFeedback(c *gin.Context) {
	if !s.feedbackReady(c) {
		return
	}
	var in feedback.WritingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortError(c, http.StatusBadRequest, codeBadRequest, "invalid body: "+err.Error())
		return
	}
	out, err := s.deps.Feedback.AnalyzeWriting(c.Request.Context(), in)
	if err != nil {
		feedbackError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) speakingFeedback(c *gin.Context) {
	if !s.feedbackReady(c) {
		return
	}
	var in feedback.SpeakingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortError(c, http.StatusBadRequest, codeBadRequest, "invalid body: "+err.Error())
		return
	}
	out, err := s.deps.Feedback.AnalyzeSpeaking(c.Request.Context(), in)
	if err != nil {
		feedbackError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) recommendations(c *gin.Context) {
	if !s.feedbackReady(c) {
		return
	}
	acts, _, ok := s.loadActivities(c)
	if !ok {
		return
	}
	out, err := s.deps.Feedback.Recommendations(c.Request.Context(), currentUser(c), acts)
	if err != nil {
		feedbackError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": out})
}

func (s *Server) difficulty(c *gin.Context) {
	if !s.feedbackReady(c) {
		return
	}
	acts, _, ok := s.loadActivities(c)
	if !ok {
		return
	}
	out, err := s.deps.Feedback.DifficultyAnalysis(c.Request.Context(), currentUser(c), acts)
	if err != nil {
		feedbackError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) mistakes(c *gin.Context) {
	if !s.feedbackReady(c) {
		return
	}
	acts, _, ok := s.loadActivities(c)
	if !ok {
		return
	}
	out, err := s.deps.Feedback.MistakeAnalysis(c.Request.Context(), currentUser(c), acts)
	if err != nil {
		feedbackError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
