package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sertugser/assessai/internal/achievements"
	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/progress"
)

func (s *Server) userStore(c *gin.Context) *activity.Store {
	return s.deps.Activities.For(currentUser(c))
}

// loadActivities writes an error response and returns false on failure.
func (s *Server) loadActivities(c *gin.Context) ([]activity.UserActivity, time.Time, bool) {
	acts, err := s.userStore(c).List(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return nil, time.Time{}, false
	}
	return acts, s.deps.Activities.Now(), true
}

func (s *Server) listActivities(c *gin.Context) {
	acts, _, ok := s.loadActivities(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, acts)
}

func (s *Server) createActivity(c *gin.Context) {
	var in activity.ActivityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortError(c, http.StatusBadRequest, codeBadRequest, "invalid activity body: "+err.Error())
		return
	}
	rec, err := s.userStore(c).Save(c.Request.Context(), in)
	if err != nil {
		storeError(c, err)
		return
	}
	s.deps.Metrics.ActivitySaved(string(rec.Type))
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) resetProgress(c *gin.Context) {
	if err := s.userStore(c).Reset(c.Request.Context()); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) snapshot(c *gin.Context) {
	acts, now, ok := s.loadActivities(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, progress.Compute(acts, now))
}

func (s *Server) stats(c *gin.Context) {
	acts, now, ok := s.loadActivities(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, progress.ComputeStats(acts, now))
}

func (s *Server) streak(c *gin.Context) {
	data, err := s.userStore(c).Streak(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) skills(c *gin.Context) {
	acts, _, ok := s.loadActivities(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, progress.SkillsBreakdown(acts))
}

func (s *Server) weaknesses(c *gin.Context) {
	acts, _, ok := s.loadActivities(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, progress.AnalyzeWeaknesses(acts))
}

func (s *Server) weekly(c *gin.Context) {
	acts, now, ok := s.loadActivities(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, progress.WeeklyProgress(acts, now))
}

func (s *Server) monthly(c *gin.Context) {
	acts, now, ok := s.loadActivities(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, progress.MonthlyProgress(acts, now))
}

func (s *Server) distribution(c *gin.Context) {
	acts, _, ok := s.loadActivities(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, progress.ActivityDistribution(acts))
}

func (s *Server) achievements(c *gin.Context) {
	acts, now, ok := s.loadActivities(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, achievements.Evaluate(progress.ComputeStats(acts, now), acts))
}
