package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/http/response"
	"github.com/courseloom/courseloom-backend/internal/platform/ctxutil"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/playback"
	"github.com/courseloom/courseloom-backend/internal/services"
)

type LectureHandler struct {
	log      *logger.Logger
	catalog  services.CatalogService
	playback services.PlaybackService
}

func NewLectureHandler(log *logger.Logger, catalog services.CatalogService, playback services.PlaybackService) *LectureHandler {
	return &LectureHandler{
		log:      log.With("handler", "LectureHandler"),
		catalog:  catalog,
		playback: playback,
	}
}

type addLectureReq struct {
	Title                string  `json:"title"`
	VideoDurationMinutes float64 `json:"video_duration_minutes"`
	OrderIndex           *int    `json:"order_index"`
}

// POST /api/admin/courses/:id/lectures
func (h *LectureHandler) Add(c *gin.Context) {
	courseID := c.Param("id")
	var req addLectureReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lecture, err := h.catalog.AddLecture(c.Request.Context(), courseID, services.LectureInput{
		Title:                req.Title,
		VideoDurationMinutes: req.VideoDurationMinutes,
		OrderIndex:           req.OrderIndex,
	})
	if err != nil {
		h.log.Error("Add lecture failed", "error", err, "course_id", courseID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lecture": lecture})
}

type updateLectureReq struct {
	Title                *string  `json:"title"`
	VideoDurationMinutes *float64 `json:"video_duration_minutes"`
	OrderIndex           *int     `json:"order_index"`
}

// PUT /api/admin/lectures/:id
func (h *LectureHandler) Update(c *gin.Context) {
	lectureID := c.Param("id")
	var req updateLectureReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lecture, err := h.catalog.UpdateLecture(c.Request.Context(), lectureID, services.LectureUpdate{
		Title:                req.Title,
		VideoDurationMinutes: req.VideoDurationMinutes,
		OrderIndex:           req.OrderIndex,
	})
	if err != nil {
		h.log.Error("Update lecture failed", "error", err, "lecture_id", lectureID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lecture": lecture})
}

// DELETE /api/admin/lectures/:id
func (h *LectureHandler) Remove(c *gin.Context) {
	lectureID := c.Param("id")
	if err := h.catalog.RemoveLecture(c.Request.Context(), lectureID); err != nil {
		h.log.Error("Remove lecture failed", "error", err, "lecture_id", lectureID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// GET /api/admin/lectures/:id
func (h *LectureHandler) Get(c *gin.Context) {
	lectureID := c.Param("id")
	lecture, err := h.catalog.GetLecture(c.Request.Context(), lectureID)
	if err != nil {
		h.log.Error("Get lecture failed", "error", err, "lecture_id", lectureID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lecture": lecture})
}

type attachVideoReq struct {
	JobID string `json:"job_id"`
}

// POST /api/admin/lectures/:id/video
func (h *LectureHandler) AttachVideo(c *gin.Context) {
	lectureID := c.Param("id")
	var req attachVideoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lecture, err := h.catalog.AttachLectureVideo(c.Request.Context(), lectureID, req.JobID)
	if err != nil {
		h.log.Error("Attach video failed", "error", err, "lecture_id", lectureID, "job_id", req.JobID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lecture": lecture})
}

// GET /api/admin/lectures/:id/video
func (h *LectureHandler) VideoStatus(c *gin.Context) {
	lectureID := c.Param("id")
	lecture, err := h.catalog.GetLecture(c.Request.Context(), lectureID)
	if err != nil {
		h.log.Error("Video status lookup failed", "error", err, "lecture_id", lectureID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"lecture_id":       lecture.ID,
		"video_status":     lecture.VideoStatus,
		"video_url":        lecture.VideoURL,
		"transcode_job_id": lecture.TranscodeJobID,
		"state":            playback.Resolve(lecture),
	})
}

// GET /api/courses/:id/lectures/:lecture_id/playback
func (h *LectureHandler) Playback(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID := c.Param("id")
	lectureID := c.Param("lecture_id")
	info, err := h.playback.GetLectureForPlayback(c.Request.Context(), rd.UserID, courseID, lectureID)
	if err != nil {
		h.log.Error("Playback lookup failed", "error", err, "course_id", courseID, "lecture_id", lectureID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"playback": info})
}
