package app

import (
	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/http"
	httpH "github.com/courseloom/courseloom-backend/internal/http/handlers"
	httpMW "github.com/courseloom/courseloom-backend/internal/http/middleware"
	"github.com/courseloom/courseloom-backend/internal/observability"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Course   *httpH.CourseHandler
	Lecture  *httpH.LectureHandler
	Progress *httpH.ProgressHandler
	Review   *httpH.ReviewHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(cfg.Version),
		Course:   httpH.NewCourseHandler(log, services.Catalog),
		Lecture:  httpH.NewLectureHandler(log, services.Catalog, services.Playback),
		Progress: httpH.NewProgressHandler(log, services.Progress),
		Review:   httpH.NewReviewHandler(log, services.Review),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Token),
	}
}

func wireRouter(log *logger.Logger, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		CourseHandler:   handlers.Course,
		LectureHandler:  handlers.Lecture,
		ProgressHandler: handlers.Progress,
		ReviewHandler:   handlers.Review,
	})
}
