package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/http/response"
	"github.com/courseloom/courseloom-backend/internal/platform/ctxutil"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/services"
)

type ReviewHandler struct {
	log     *logger.Logger
	reviews services.ReviewService
}

func NewReviewHandler(log *logger.Logger, reviews services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		log:     log.With("handler", "ReviewHandler"),
		reviews: reviews,
	}
}

// GET /api/courses/:id/reviews
func (h *ReviewHandler) List(c *gin.Context) {
	courseID := c.Param("id")
	reviews, err := h.reviews.ListReviews(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("List reviews failed", "error", err, "course_id", courseID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reviews": reviews})
}

// GET /api/courses/:id/rating
func (h *ReviewHandler) Rating(c *gin.Context) {
	courseID := c.Param("id")
	summary, err := h.reviews.RatingSummary(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("Rating summary failed", "error", err, "course_id", courseID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rating": summary})
}

type submitReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// POST /api/courses/:id/reviews
func (h *ReviewHandler) Submit(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID := c.Param("id")
	var req submitReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	review, err := h.reviews.SubmitReview(c.Request.Context(), services.SubmitReviewInput{
		UserID:   rd.UserID,
		CourseID: courseID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		h.log.Error("Submit review failed", "error", err, "user_id", rd.UserID, "course_id", courseID)
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"review": review})
}
