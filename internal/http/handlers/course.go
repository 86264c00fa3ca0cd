package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/http/response"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/services"
)

type CourseHandler struct {
	log     *logger.Logger
	catalog services.CatalogService
}

func NewCourseHandler(log *logger.Logger, catalog services.CatalogService) *CourseHandler {
	return &CourseHandler{
		log:     log.With("handler", "CourseHandler"),
		catalog: catalog,
	}
}

// GET /api/courses
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.catalog.ListCourses(c.Request.Context())
	if err != nil {
		h.log.Error("List courses failed", "error", err)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	courseID := c.Param("id")
	course, err := h.catalog.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("Get course failed", "error", err, "course_id", courseID)
		response.FromError(c, err)
		return
	}
	lectures, err := h.catalog.ListLectures(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("List lectures failed", "error", err, "course_id", courseID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course, "lectures": lectures})
}

type createCourseReq struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Instructor   string `json:"instructor"`
	ThumbnailURL string `json:"thumbnail_url"`
	PriceCents   int    `json:"price_cents"`
}

// POST /api/admin/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req createCourseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), services.CourseInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Instructor:   req.Instructor,
		ThumbnailURL: req.ThumbnailURL,
		PriceCents:   req.PriceCents,
	})
	if err != nil {
		h.log.Error("Create course failed", "error", err)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

type updateCourseReq struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Instructor   *string `json:"instructor"`
	ThumbnailURL *string `json:"thumbnail_url"`
	PriceCents   *int    `json:"price_cents"`
}

// PUT /api/admin/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	courseID := c.Param("id")
	var req updateCourseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.catalog.UpdateCourse(c.Request.Context(), courseID, services.CourseUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Instructor:   req.Instructor,
		ThumbnailURL: req.ThumbnailURL,
		PriceCents:   req.PriceCents,
	})
	if err != nil {
		h.log.Error("Update course failed", "error", err, "course_id", courseID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// DELETE /api/admin/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	courseID := c.Param("id")
	if err := h.catalog.DeleteCourse(c.Request.Context(), courseID); err != nil {
		h.log.Error("Delete course failed", "error", err, "course_id", courseID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
