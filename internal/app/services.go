package app

import (
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/services"
)

type Services struct {
	Token     services.TokenService
	Transcode services.TranscodeService
	Catalog   services.CatalogService
	Progress  services.ProgressService
	Playback  services.PlaybackService
	Review    services.ReviewService
}

func wireServices(log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	token := services.NewTokenService(cfg.JWTSecretKey, log)

	transcode := services.NewTranscodeService(repos.Lecture, clients.VideoJobs, services.TranscodeConfig{
		PublicBase:   cfg.CDNPublicBase,
		PollInterval: cfg.TranscodePollInterval,
		MaxAttempts:  cfg.TranscodeMaxAttempts,
	}, log)

	catalog := services.NewCatalogService(repos.Course, repos.Lecture, transcode, log)

	progress := services.NewProgressService(
		repos.LectureProgress,
		repos.CourseProgress,
		catalog,
		services.ProgressConfig{CompletionThreshold: cfg.CompletionThreshold},
		log,
	)

	playback := services.NewPlaybackService(repos.Lecture, progress, transcode, log)

	review := services.NewReviewService(repos.Review, catalog, clients.RatingCache, log)

	return Services{
		Token:     token,
		Transcode: transcode,
		Catalog:   catalog,
		Progress:  progress,
		Playback:  playback,
		Review:    review,
	}
}
