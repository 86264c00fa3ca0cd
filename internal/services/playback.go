package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/playback"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// PlaybackInfo is everything the player screen needs to start: the lecture,
// whether its video is ready, and where the learner left off.
type PlaybackInfo struct {
	Lecture *types.Lecture         `json:"lecture"`
	State   playback.State         `json:"state"`
	Resume  *types.LectureProgress `json:"resume"`
}

type PlaybackService interface {
	GetLectureForPlayback(ctx context.Context, userID, courseID, lectureID string) (*PlaybackInfo, error)
}

type playbackService struct {
	lectures  repos.LectureRepo
	progress  ProgressService
	transcode TranscodeService
	log       *logger.Logger
}

func NewPlaybackService(lectures repos.LectureRepo, progress ProgressService, transcode TranscodeService, baseLog *logger.Logger) PlaybackService {
	return &playbackService{
		lectures:  lectures,
		progress:  progress,
		transcode: transcode,
		log:       baseLog.With("service", "PlaybackService"),
	}
}

func (s *playbackService) GetLectureForPlayback(ctx context.Context, userID, courseID, lectureID string) (*PlaybackInfo, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("missing user_id: %w", errs.ErrInvalidArgument)
	}
	lecture, err := s.lectures.GetByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if courseID != "" && lecture.CourseID != courseID {
		return nil, fmt.Errorf("lecture %s not in course %s: %w", lectureID, courseID, errs.ErrNotFound)
	}

	state := playback.Resolve(lecture)
	if state == playback.StateWaiting && lecture.TranscodeJobID != "" {
		// Direct navigation may land here long after the upload. Re-arming
		// the tracker is idempotent and converges the stuck PROCESSING case.
		s.transcode.TrackJobAsync(lecture.CourseID, lecture.ID, lecture.TranscodeJobID)
	}

	resume, err := s.progress.GetLectureProgress(ctx, userID, lecture.CourseID, lectureID)
	if err != nil {
		return nil, err
	}

	return &PlaybackInfo{Lecture: lecture, State: state, Resume: resume}, nil
}
