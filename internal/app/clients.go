package app

import (
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/clients/redis"
	"github.com/courseloom/courseloom-backend/internal/clients/videojobs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

type Clients struct {
	VideoJobs   videojobs.Client
	RatingCache redis.RatingCache
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	videoJobs, err := videojobs.NewClient(cfg.TranscodeStatusBase, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init video jobs client: %w", err)
	}

	ratingCache, err := redis.NewRatingCache(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init rating cache: %w", err)
	}

	return Clients{
		VideoJobs:   videoJobs,
		RatingCache: ratingCache,
	}, nil
}

func (c *Clients) Close() {
	if c == nil { return }
	if c.RatingCache != nil { _ = c.RatingCache.Close() }
}
