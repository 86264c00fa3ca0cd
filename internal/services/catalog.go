package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// CatalogService is the authoring/browsing surface over courses and
// lectures. It also satisfies CourseCatalog for the progress engine.
type CatalogService interface {
	CreateCourse(ctx context.Context, in CourseInput) (*types.Course, error)
	UpdateCourse(ctx context.Context, courseID string, in CourseUpdate) (*types.Course, error)
	DeleteCourse(ctx context.Context, courseID string) error
	GetCourse(ctx context.Context, courseID string) (*types.Course, error)
	ListCourses(ctx context.Context) ([]*types.Course, error)

	AddLecture(ctx context.Context, courseID string, in LectureInput) (*types.Lecture, error)
	UpdateLecture(ctx context.Context, lectureID string, in LectureUpdate) (*types.Lecture, error)
	RemoveLecture(ctx context.Context, lectureID string) error
	GetLecture(ctx context.Context, lectureID string) (*types.Lecture, error)
	ListLectures(ctx context.Context, courseID string) ([]*types.Lecture, error)
	LectureDescriptors(ctx context.Context, courseID string) ([]types.LectureDescriptor, error)

	AttachLectureVideo(ctx context.Context, lectureID, jobID string) (*types.Lecture, error)
}

type CourseInput struct {
	Title        string
	Description  string
	Category     string
	Instructor   string
	ThumbnailURL string
	PriceCents   int
}

type CourseUpdate struct {
	Title        *string
	Description  *string
	Category     *string
	Instructor   *string
	ThumbnailURL *string
	PriceCents   *int
}

type LectureInput struct {
	Title                string
	VideoDurationMinutes float64
	// OrderIndex nil appends after the course's current last lecture.
	OrderIndex *int
}

type LectureUpdate struct {
	Title                *string
	VideoDurationMinutes *float64
	OrderIndex           *int
}

type catalogService struct {
	courses   repos.CourseRepo
	lectures  repos.LectureRepo
	transcode TranscodeService
	log       *logger.Logger
}

func NewCatalogService(courses repos.CourseRepo, lectures repos.LectureRepo, transcode TranscodeService, baseLog *logger.Logger) CatalogService {
	return &catalogService{
		courses:   courses,
		lectures:  lectures,
		transcode: transcode,
		log:       baseLog.With("service", "CatalogService"),
	}
}

func (s *catalogService) CreateCourse(ctx context.Context, in CourseInput) (*types.Course, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("missing title: %w", errs.ErrInvalidArgument)
	}
	if in.PriceCents < 0 {
		return nil, fmt.Errorf("negative price_cents: %w", errs.ErrInvalidArgument)
	}
	course := &types.Course{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Category:     in.Category,
		Instructor:   in.Instructor,
		ThumbnailURL: in.ThumbnailURL,
		PriceCents:   in.PriceCents,
	}
	if err := s.courses.Save(ctx, course); err != nil {
		return nil, err
	}
	s.log.Info("Course created", "course_id", course.ID, "title", course.Title)
	return course, nil
}

func (s *catalogService) UpdateCourse(ctx context.Context, courseID string, in CourseUpdate) (*types.Course, error) {
	fields := map[string]any{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, fmt.Errorf("empty title: %w", errs.ErrInvalidArgument)
		}
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.Instructor != nil {
		fields["instructor"] = *in.Instructor
	}
	if in.ThumbnailURL != nil {
		fields["thumbnail_url"] = *in.ThumbnailURL
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return nil, fmt.Errorf("negative price_cents: %w", errs.ErrInvalidArgument)
		}
		fields["price_cents"] = *in.PriceCents
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", errs.ErrInvalidArgument)
	}
	if err := s.courses.Patch(ctx, courseID, fields); err != nil {
		return nil, err
	}
	return s.courses.GetByID(ctx, courseID)
}

// DeleteCourse removes the course and its lectures. Progress rows are kept:
// they are historical fact, and my-learnings drops orphans at read time.
func (s *catalogService) DeleteCourse(ctx context.Context, courseID string) error {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return err
	}
	lectures, err := s.lectures.ListByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	for _, lecture := range lectures {
		if err := s.lectures.Delete(ctx, lecture.ID); err != nil {
			return err
		}
	}
	if err := s.courses.Delete(ctx, courseID); err != nil {
		return err
	}
	s.log.Info("Course deleted", "course_id", courseID, "lectures_removed", len(lectures))
	return nil
}

func (s *catalogService) GetCourse(ctx context.Context, courseID string) (*types.Course, error) {
	return s.courses.GetByID(ctx, courseID)
}

func (s *catalogService) ListCourses(ctx context.Context) ([]*types.Course, error) {
	return s.courses.List(ctx)
}

func (s *catalogService) AddLecture(ctx context.Context, courseID string, in LectureInput) (*types.Lecture, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("missing title: %w", errs.ErrInvalidArgument)
	}
	if in.VideoDurationMinutes < 0 {
		return nil, fmt.Errorf("negative video_duration_minutes: %w", errs.ErrInvalidArgument)
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	orderIndex := 0
	if in.OrderIndex != nil {
		orderIndex = *in.OrderIndex
	} else {
		existing, err := s.lectures.ListByCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}
		for _, l := range existing {
			if l.OrderIndex >= orderIndex {
				orderIndex = l.OrderIndex + 1
			}
		}
	}

	lecture := &types.Lecture{
		ID:                   uuid.NewString(),
		CourseID:             courseID,
		Title:                strings.TrimSpace(in.Title),
		OrderIndex:           orderIndex,
		VideoDurationMinutes: in.VideoDurationMinutes,
	}
	if err := s.lectures.Save(ctx, lecture); err != nil {
		return nil, err
	}
	s.log.Info("Lecture added", "course_id", courseID, "lecture_id", lecture.ID, "order_index", orderIndex)
	return lecture, nil
}

func (s *catalogService) UpdateLecture(ctx context.Context, lectureID string, in LectureUpdate) (*types.Lecture, error) {
	fields := map[string]any{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, fmt.Errorf("empty title: %w", errs.ErrInvalidArgument)
		}
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.VideoDurationMinutes != nil {
		if *in.VideoDurationMinutes < 0 {
			return nil, fmt.Errorf("negative video_duration_minutes: %w", errs.ErrInvalidArgument)
		}
		fields["video_duration_minutes"] = *in.VideoDurationMinutes
	}
	if in.OrderIndex != nil {
		fields["order_index"] = *in.OrderIndex
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", errs.ErrInvalidArgument)
	}
	if err := s.lectures.Patch(ctx, lectureID, fields); err != nil {
		return nil, err
	}
	return s.lectures.GetByID(ctx, lectureID)
}

func (s *catalogService) RemoveLecture(ctx context.Context, lectureID string) error {
	if _, err := s.lectures.GetByID(ctx, lectureID); err != nil {
		return err
	}
	return s.lectures.Delete(ctx, lectureID)
}

func (s *catalogService) GetLecture(ctx context.Context, lectureID string) (*types.Lecture, error) {
	return s.lectures.GetByID(ctx, lectureID)
}

func (s *catalogService) ListLectures(ctx context.Context, courseID string) ([]*types.Lecture, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.lectures.ListByCourse(ctx, courseID)
}

func (s *catalogService) LectureDescriptors(ctx context.Context, courseID string) ([]types.LectureDescriptor, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	lectures, err := s.lectures.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	descriptors := make([]types.LectureDescriptor, 0, len(lectures))
	for _, l := range lectures {
		descriptors = append(descriptors, types.LectureDescriptor{
			ID:                   l.ID,
			VideoDurationMinutes: l.VideoDurationMinutes,
			OrderIndex:           l.OrderIndex,
		})
	}
	return descriptors, nil
}

// AttachLectureVideo records the upload hand-off and spawns the status
// tracker. Attaching a different job resets the video state first so a
// terminal status from the previous upload cannot leak through the playback
// gate while the new job is still in flight. Re-attaching the same job is
// idempotent.
func (s *catalogService) AttachLectureVideo(ctx context.Context, lectureID, jobID string) (*types.Lecture, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("missing job_id: %w", errs.ErrInvalidArgument)
	}
	lecture, err := s.lectures.GetByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}

	if lecture.TranscodeJobID != jobID {
		err := s.lectures.Patch(ctx, lectureID, map[string]any{
			"transcode_job_id": jobID,
			"video_status":     "",
			"video_url":        "",
		})
		if err != nil {
			return nil, err
		}
	}

	s.transcode.TrackJobAsync(lecture.CourseID, lectureID, jobID)
	s.log.Info("Transcode job attached", "lecture_id", lectureID, "job_id", jobID)

	return s.lectures.GetByID(ctx, lectureID)
}
