package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/courseloom/courseloom-backend/internal/observability"
	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/keylock"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// CourseCatalog is the narrow catalog surface the progress engine needs.
// It is injected at construction; CatalogService satisfies it, tests use
// fakes.
type CourseCatalog interface {
	GetCourse(ctx context.Context, courseID string) (*types.Course, error)
	LectureDescriptors(ctx context.Context, courseID string) ([]types.LectureDescriptor, error)
}

// ProgressService owns both sides of learning progress: the raw per-lecture
// watch state and the derived per-course aggregate. CourseProgress is a
// materialized view; every write path ends in a full recompute from the
// lecture rows plus the catalog, never in incremental counter math.
type ProgressService interface {
	GetLectureProgress(ctx context.Context, userID, courseID, lectureID string) (*types.LectureProgress, error)
	UpdateLectureProgress(ctx context.Context, in UpdateProgressInput) (*types.CourseProgress, error)
	RecomputeCourseProgress(ctx context.Context, userID, courseID string) (*types.CourseProgress, error)
	GetCourseProgress(ctx context.Context, userID, courseID string) (*types.CourseProgress, error)
	Enroll(ctx context.Context, userID, courseID string) (*types.CourseProgress, error)
	GetMyLearnings(ctx context.Context, userID string) ([]*types.LearningSummary, error)
	NextLectureID(ctx context.Context, courseID, currentLectureID string) (string, error)
}

type UpdateProgressInput struct {
	UserID         string
	CourseID       string
	LectureID      string
	WatchedSeconds float64
	// Completed is the player's explicit end-of-video signal. The ≥90%
	// watch threshold marks completion independently of it.
	Completed bool
}

type ProgressConfig struct {
	// CompletionThreshold is the watched fraction at which a lecture counts
	// as completed even without an explicit completion signal.
	CompletionThreshold float64
}

type progressService struct {
	lectureProgress repos.LectureProgressRepo
	courseProgress  repos.CourseProgressRepo
	catalog         CourseCatalog
	locks           *keylock.KeyLock
	log             *logger.Logger
	threshold       float64
}

func NewProgressService(
	lectureProgress repos.LectureProgressRepo,
	courseProgress repos.CourseProgressRepo,
	catalog CourseCatalog,
	cfg ProgressConfig,
	baseLog *logger.Logger,
) ProgressService {
	threshold := cfg.CompletionThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.9
	}
	return &progressService{
		lectureProgress: lectureProgress,
		courseProgress:  courseProgress,
		catalog:         catalog,
		locks:           keylock.New(),
		log:             baseLog.With("service", "ProgressService"),
		threshold:       threshold,
	}
}

// GetLectureProgress never errors on a missing row; a lecture the user has
// not touched reads as zero watch state.
func (s *progressService) GetLectureProgress(ctx context.Context, userID, courseID, lectureID string) (*types.LectureProgress, error) {
	row, err := s.lectureProgress.Get(ctx, userID, courseID, lectureID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	return &types.LectureProgress{
		UserID:        userID,
		CourseID:      courseID,
		LectureID:     lectureID,
		UserCourseKey: repos.UserCourseKey(userID, courseID),
	}, nil
}

// UpdateLectureProgress records one watch event and synchronously recomputes
// the course aggregate so the caller never observes a stale read after its
// own write. Watched time is clamped to the catalog's authoritative duration
// before the completion rule runs.
func (s *progressService) UpdateLectureProgress(ctx context.Context, in UpdateProgressInput) (*types.CourseProgress, error) {
	if in.UserID == "" || in.CourseID == "" || in.LectureID == "" {
		return nil, fmt.Errorf("missing user_id, course_id or lecture_id: %w", errs.ErrInvalidArgument)
	}

	descriptors, err := s.catalog.LectureDescriptors(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}
	var lecture *types.LectureDescriptor
	for i := range descriptors {
		if descriptors[i].ID == in.LectureID {
			lecture = &descriptors[i]
			break
		}
	}
	if lecture == nil {
		return nil, fmt.Errorf("lecture %s in course %s: %w", in.LectureID, in.CourseID, errs.ErrNotFound)
	}

	durationSeconds := lecture.VideoDurationMinutes * 60
	watched := in.WatchedSeconds
	if watched < 0 {
		watched = 0
	}
	if watched > durationSeconds {
		watched = durationSeconds
	}
	completed := in.Completed || watched >= s.threshold*durationSeconds

	key := repos.UserCourseKey(in.UserID, in.CourseID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	now := time.Now().UTC()
	row := &types.LectureProgress{
		UserID:                 in.UserID,
		CourseID:               in.CourseID,
		LectureID:              in.LectureID,
		WatchedDurationSeconds: watched,
		IsCompleted:            completed,
		LastWatchedAt:          &now,
	}
	if err := s.lectureProgress.Upsert(ctx, row); err != nil {
		return nil, err
	}
	if metrics := observability.Current(); metrics != nil {
		result := "in_progress"
		if completed {
			result = "completed"
		}
		metrics.IncProgressWrite(result)
	}

	// Resume state rides the same logical operation, written before the
	// recompute so the derived-field write-back cannot clobber it.
	err = s.courseProgress.Merge(ctx, in.UserID, in.CourseID, map[string]any{
		"last_accessed_lecture_id":      in.LectureID,
		"last_played_timestamp_seconds": watched,
	})
	if err != nil {
		return nil, err
	}

	return s.recomputeLocked(ctx, in.UserID, in.CourseID)
}

// RecomputeCourseProgress re-derives the aggregate from scratch. Concurrent
// recomputes for the same (user, course) are serialized per key; the
// computation is idempotent given the same lecture rows, so retries and
// duplicates converge.
func (s *progressService) RecomputeCourseProgress(ctx context.Context, userID, courseID string) (*types.CourseProgress, error) {
	if userID == "" || courseID == "" {
		return nil, fmt.Errorf("missing user_id or course_id: %w", errs.ErrInvalidArgument)
	}
	key := repos.UserCourseKey(userID, courseID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	return s.recomputeLocked(ctx, userID, courseID)
}

func (s *progressService) recomputeLocked(ctx context.Context, userID, courseID string) (*types.CourseProgress, error) {
	start := time.Now()
	out, err := s.recompute(ctx, userID, courseID)
	if metrics := observability.Current(); metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ObserveRecompute(status, time.Since(start))
	}
	return out, err
}

func (s *progressService) recompute(ctx context.Context, userID, courseID string) (*types.CourseProgress, error) {
	descriptors, err := s.catalog.LectureDescriptors(ctx, courseID)
	if err != nil {
		// A recompute against a vanished course must not fabricate a
		// zero-lecture aggregate.
		return nil, err
	}
	rows, err := s.lectureProgress.ListByUserCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	completedCount := 0
	for _, row := range rows {
		if row.IsCompleted {
			completedCount++
		}
	}
	totalLectures := len(descriptors)
	percentage := 0
	if totalLectures > 0 {
		percentage = int(math.Round(float64(100*completedCount) / float64(totalLectures)))
	}
	status := deriveStatus(completedCount, percentage)

	existing, err := s.courseProgress.Get(ctx, userID, courseID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	fields := map[string]any{
		"completed_lectures_count": completedCount,
		"total_lectures":           totalLectures,
		"completion_percentage":    percentage,
		"status":                   status,
	}
	now := time.Now().UTC()
	if (existing == nil || existing.StartedAt == nil) && completedCount > 0 {
		fields["started_at"] = now.Format(time.RFC3339Nano)
	}
	if (existing == nil || existing.CompletedAt == nil) && status == types.ProgressStatusCompleted {
		fields["completed_at"] = now.Format(time.RFC3339Nano)
	}

	if err := s.courseProgress.Merge(ctx, userID, courseID, fields); err != nil {
		return nil, err
	}
	return s.courseProgress.Get(ctx, userID, courseID)
}

func deriveStatus(completedCount, percentage int) string {
	switch {
	case percentage == 100:
		return types.ProgressStatusCompleted
	case completedCount > 0 || percentage > 0:
		return types.ProgressStatusInProgress
	default:
		return types.ProgressStatusNotStarted
	}
}

// GetCourseProgress lazy-creates the aggregate on first read when the course
// exists; reading progress for an unknown course is NotFound.
func (s *progressService) GetCourseProgress(ctx context.Context, userID, courseID string) (*types.CourseProgress, error) {
	row, err := s.courseProgress.Get(ctx, userID, courseID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	return s.RecomputeCourseProgress(ctx, userID, courseID)
}

// Enroll is the explicit form of the lazy-create path. Re-enrolling is
// idempotent: the composite key lands on the same row and recompute
// re-derives the same state.
func (s *progressService) Enroll(ctx context.Context, userID, courseID string) (*types.CourseProgress, error) {
	if userID == "" || courseID == "" {
		return nil, fmt.Errorf("missing user_id or course_id: %w", errs.ErrInvalidArgument)
	}
	return s.RecomputeCourseProgress(ctx, userID, courseID)
}

// GetMyLearnings joins the user's aggregates with catalog display fields.
// Lookups fan out concurrently; rows whose course has since been deleted
// are dropped, not errored.
func (s *progressService) GetMyLearnings(ctx context.Context, userID string) ([]*types.LearningSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user_id: %w", errs.ErrInvalidArgument)
	}
	rows, err := s.courseProgress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*types.LearningSummary, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, row := range rows {
		g.Go(func() error {
			course, err := s.catalog.GetCourse(gctx, row.CourseID)
			if err != nil {
				if errors.Is(err, errs.ErrNotFound) {
					return nil
				}
				return err
			}
			summaries[i] = &types.LearningSummary{
				CourseID:               row.CourseID,
				Title:                  course.Title,
				Instructor:             course.Instructor,
				ThumbnailURL:           course.ThumbnailURL,
				CompletionPercentage:   row.CompletionPercentage,
				Status:                 row.Status,
				CompletedLecturesCount: row.CompletedLecturesCount,
				TotalLectures:          row.TotalLectures,
				LastAccessedLectureID:  row.LastAccessedLectureID,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*types.LearningSummary, 0, len(summaries))
	for _, summary := range summaries {
		if summary != nil {
			out = append(out, summary)
		}
	}
	return out, nil
}

// NextLectureID walks the order-index sequence. No successor (current
// lecture missing from the list, or already last) comes back as an empty
// id; an unknown course is NotFound.
func (s *progressService) NextLectureID(ctx context.Context, courseID, currentLectureID string) (string, error) {
	descriptors, err := s.catalog.LectureDescriptors(ctx, courseID)
	if err != nil {
		return "", err
	}
	for i, d := range descriptors {
		if d.ID == currentLectureID {
			if i+1 < len(descriptors) {
				return descriptors[i+1].ID, nil
			}
			return "", nil
		}
	}
	return "", nil
}
