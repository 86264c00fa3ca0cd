package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/http/response"
	"github.com/courseloom/courseloom-backend/internal/platform/ctxutil"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:      log.With("handler", "ProgressHandler"),
		progress: progress,
	}
}

// POST /api/courses/:id/enroll
func (h *ProgressHandler) Enroll(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID := c.Param("id")
	cp, err := h.progress.Enroll(c.Request.Context(), rd.UserID, courseID)
	if err != nil {
		h.log.Error("Enroll failed", "error", err, "user_id", rd.UserID, "course_id", courseID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course_progress": cp})
}

// GET /api/me/learnings
func (h *ProgressHandler) MyLearnings(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	learnings, err := h.progress.GetMyLearnings(c.Request.Context(), rd.UserID)
	if err != nil {
		h.log.Error("My learnings failed", "error", err, "user_id", rd.UserID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"learnings": learnings})
}

// GET /api/courses/:id/progress
func (h *ProgressHandler) CourseProgress(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID := c.Param("id")
	cp, err := h.progress.GetCourseProgress(c.Request.Context(), rd.UserID, courseID)
	if err != nil {
		h.log.Error("Course progress failed", "error", err, "user_id", rd.UserID, "course_id", courseID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course_progress": cp})
}

// GET /api/courses/:id/lectures/:lecture_id/progress
func (h *ProgressHandler) LectureProgress(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID := c.Param("id")
	lectureID := c.Param("lecture_id")
	lp, err := h.progress.GetLectureProgress(c.Request.Context(), rd.UserID, courseID, lectureID)
	if err != nil {
		h.log.Error("Lecture progress failed", "error", err, "user_id", rd.UserID, "lecture_id", lectureID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lecture_progress": lp})
}

type updateProgressReq struct {
	WatchedDurationSeconds float64 `json:"watched_duration_seconds"`
	Completed              bool    `json:"completed"`
}

// PUT /api/courses/:id/lectures/:lecture_id/progress
func (h *ProgressHandler) UpdateLectureProgress(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID := c.Param("id")
	lectureID := c.Param("lecture_id")
	var req updateProgressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cp, err := h.progress.UpdateLectureProgress(c.Request.Context(), services.UpdateProgressInput{
		UserID:         rd.UserID,
		CourseID:       courseID,
		LectureID:      lectureID,
		WatchedSeconds: req.WatchedDurationSeconds,
		Completed:      req.Completed,
	})
	if err != nil {
		h.log.Error("Update lecture progress failed", "error", err, "user_id", rd.UserID, "lecture_id", lectureID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course_progress": cp})
}

// GET /api/courses/:id/lectures/:lecture_id/next
func (h *ProgressHandler) NextLecture(c *gin.Context) {
	courseID := c.Param("id")
	lectureID := c.Param("lecture_id")
	nextID, err := h.progress.NextLectureID(c.Request.Context(), courseID, lectureID)
	if err != nil {
		h.log.Error("Next lecture failed", "error", err, "course_id", courseID, "lecture_id", lectureID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"next_lecture_id": nextID})
}
