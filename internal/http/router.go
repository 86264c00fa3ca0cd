package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/courseloom/courseloom-backend/internal/http/handlers"
	httpMW "github.com/courseloom/courseloom-backend/internal/http/middleware"
	"github.com/courseloom/courseloom-backend/internal/observability"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	CourseHandler   *httpH.CourseHandler
	LectureHandler  *httpH.LectureHandler
	ProgressHandler *httpH.ProgressHandler
	ReviewHandler   *httpH.ReviewHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware("courseloom"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Catalog (public)
		if cfg.CourseHandler != nil {
			api.GET("/courses", cfg.CourseHandler.List)
			api.GET("/courses/:id", cfg.CourseHandler.Get)
		}

		// Reviews (public reads)
		if cfg.ReviewHandler != nil {
			api.GET("/courses/:id/reviews", cfg.ReviewHandler.List)
			api.GET("/courses/:id/rating", cfg.ReviewHandler.Rating)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Learning progress
		if cfg.ProgressHandler != nil {
			protected.GET("/me/learnings", cfg.ProgressHandler.MyLearnings)
			protected.POST("/courses/:id/enroll", cfg.ProgressHandler.Enroll)
			protected.GET("/courses/:id/progress", cfg.ProgressHandler.CourseProgress)
			protected.GET("/courses/:id/lectures/:lecture_id/progress", cfg.ProgressHandler.LectureProgress)
			protected.PUT("/courses/:id/lectures/:lecture_id/progress", cfg.ProgressHandler.UpdateLectureProgress)
			protected.GET("/courses/:id/lectures/:lecture_id/next", cfg.ProgressHandler.NextLecture)
		}

		// Playback
		if cfg.LectureHandler != nil {
			protected.GET("/courses/:id/lectures/:lecture_id/playback", cfg.LectureHandler.Playback)
		}

		// Reviews (submit)
		if cfg.ReviewHandler != nil {
			protected.POST("/courses/:id/reviews", cfg.ReviewHandler.Submit)
		}
	}

	admin := api.Group("/admin")
	{
		if cfg.AuthMiddleware != nil {
			admin.Use(cfg.AuthMiddleware.RequireAuth())
			admin.Use(cfg.AuthMiddleware.RequireAdmin())
		}

		// Course authoring
		if cfg.CourseHandler != nil {
			admin.POST("/courses", cfg.CourseHandler.Create)
			admin.PUT("/courses/:id", cfg.CourseHandler.Update)
			admin.DELETE("/courses/:id", cfg.CourseHandler.Delete)
		}

		// Lecture authoring and transcode state
		if cfg.LectureHandler != nil {
			admin.POST("/courses/:id/lectures", cfg.LectureHandler.Add)
			admin.GET("/lectures/:id", cfg.LectureHandler.Get)
			admin.PUT("/lectures/:id", cfg.LectureHandler.Update)
			admin.DELETE("/lectures/:id", cfg.LectureHandler.Remove)
			admin.POST("/lectures/:id/video", cfg.LectureHandler.AttachVideo)
			admin.GET("/lectures/:id/video", cfg.LectureHandler.VideoStatus)
		}
	}

	return r
}
