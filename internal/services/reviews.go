package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/courseloom/courseloom-backend/internal/clients/redis"
	"github.com/courseloom/courseloom-backend/internal/observability"
	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/types"
)

const ratingCacheTTL = 10 * time.Minute

type SubmitReviewInput struct {
	UserID   string
	CourseID string
	Rating   int
	Comment  string
}

type ReviewService interface {
	// SubmitReview upserts the caller's review for a course. Resubmitting
	// replaces the previous rating and comment.
	SubmitReview(ctx context.Context, in SubmitReviewInput) (*types.Review, error)
	ListReviews(ctx context.Context, courseID string) ([]*types.Review, error)
	RatingSummary(ctx context.Context, courseID string) (*types.RatingSummary, error)
}

type reviewService struct {
	reviews repos.ReviewRepo
	catalog CatalogService
	cache   redis.RatingCache
	log     *logger.Logger
}

func NewReviewService(reviews repos.ReviewRepo, catalog CatalogService, cache redis.RatingCache, baseLog *logger.Logger) ReviewService {
	return &reviewService{
		reviews: reviews,
		catalog: catalog,
		cache:   cache,
		log:     baseLog.With("service", "ReviewService"),
	}
}

func (s *reviewService) SubmitReview(ctx context.Context, in SubmitReviewInput) (*types.Review, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fmt.Errorf("missing user_id: %w", errs.ErrInvalidArgument)
	}
	if strings.TrimSpace(in.CourseID) == "" {
		return nil, fmt.Errorf("missing course_id: %w", errs.ErrInvalidArgument)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("rating %d out of range 1..5: %w", in.Rating, errs.ErrInvalidArgument)
	}
	if _, err := s.catalog.GetCourse(ctx, in.CourseID); err != nil {
		return nil, err
	}

	review := &types.Review{
		UserID:   in.UserID,
		CourseID: in.CourseID,
		Rating:   in.Rating,
		Comment:  in.Comment,
	}
	if err := s.reviews.Upsert(ctx, review); err != nil {
		return nil, err
	}

	// The write path owns invalidation. The next summary read recomputes.
	if err := s.cache.Invalidate(ctx, in.CourseID); err != nil {
		s.log.Warn("Rating cache invalidation failed", "course_id", in.CourseID, "error", err)
	}

	return s.reviews.Get(ctx, in.UserID, in.CourseID)
}

func (s *reviewService) ListReviews(ctx context.Context, courseID string) ([]*types.Review, error) {
	if _, err := s.catalog.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.reviews.ListByCourse(ctx, courseID)
}

func (s *reviewService) RatingSummary(ctx context.Context, courseID string) (*types.RatingSummary, error) {
	if _, err := s.catalog.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}

	cached, ok, err := s.cache.Get(ctx, courseID)
	if err != nil {
		if metrics := observability.Current(); metrics != nil {
			metrics.IncRatingCache("error")
		}
		s.log.Warn("Rating cache read failed", "course_id", courseID, "error", err)
	} else if ok {
		if metrics := observability.Current(); metrics != nil {
			metrics.IncRatingCache("hit")
		}
		return cached, nil
	} else {
		if metrics := observability.Current(); metrics != nil {
			metrics.IncRatingCache("miss")
		}
	}

	reviews, err := s.reviews.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	summary := &types.RatingSummary{CourseID: courseID, Count: len(reviews)}
	if len(reviews) > 0 {
		total := 0
		for _, r := range reviews {
			total += r.Rating
		}
		// One decimal, same shape the course cards render.
		summary.Average = math.Round(float64(total)/float64(len(reviews))*10) / 10
	}

	if err := s.cache.Set(ctx, *summary, ratingCacheTTL); err != nil {
		s.log.Warn("Rating cache write failed", "course_id", courseID, "error", err)
	}
	return summary, nil
}
