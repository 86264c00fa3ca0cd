package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/courseloom/courseloom-backend/internal/clients/videojobs"
	"github.com/courseloom/courseloom-backend/internal/observability"
	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// TranscodeService drives the status poll loop for uploaded lecture videos
// and mirrors what it observes into the lecture's video fields.
//
// Per job: SUBMITTED → PROCESSING → {COMPLETE, FAILED}; an exhausted poll
// budget lands on FAILED. The playback URL is derivable from the job id
// alone, so it is written up front and only the status transitions.
type TranscodeService interface {
	Start(ctx context.Context)
	TrackJob(ctx context.Context, courseID, lectureID, jobID string) (string, error)
	TrackJobAsync(courseID, lectureID, jobID string)
}

type TranscodeConfig struct {
	PublicBase   string
	PollInterval time.Duration
	MaxAttempts  int
}

type transcodeService struct {
	lectures repos.LectureRepo
	jobs     videojobs.Client
	log      *logger.Logger

	publicBase   string
	pollInterval time.Duration
	maxAttempts  int

	mu       sync.Mutex
	rootCtx  context.Context
	inflight map[string]struct{}
}

func NewTranscodeService(lectures repos.LectureRepo, jobs videojobs.Client, cfg TranscodeConfig, baseLog *logger.Logger) TranscodeService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 60
	}
	return &transcodeService{
		lectures:     lectures,
		jobs:         jobs,
		log:          baseLog.With("service", "TranscodeService"),
		publicBase:   strings.TrimRight(cfg.PublicBase, "/"),
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxAttempts,
		rootCtx:      context.Background(),
		inflight:     make(map[string]struct{}),
	}
}

// Start pins the context detached trackers run under, so app teardown
// cancels their sleeps.
func (s *transcodeService) Start(ctx context.Context) {
	s.mu.Lock()
	s.rootCtx = ctx
	s.mu.Unlock()
}

func (s *transcodeService) derivedURL(jobID string) string {
	return fmt.Sprintf("%s/hls/%s/master.m3u8", s.publicBase, jobID)
}

// TrackJob blocks until the job reaches a terminal state or the poll budget
// runs out, and returns the playback URL on success. Re-invoking it for the
// same job id is always safe: a recorded terminal state returns immediately
// and in-flight duplicates converge on the same writes.
func (s *transcodeService) TrackJob(ctx context.Context, courseID, lectureID, jobID string) (string, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return "", fmt.Errorf("missing job_id: %w", errs.ErrInvalidArgument)
	}

	lecture, err := s.lectures.GetByID(ctx, lectureID)
	if err != nil {
		return "", err
	}
	if courseID != "" && lecture.CourseID != courseID {
		return "", fmt.Errorf("lecture %s is not part of course %s: %w", lectureID, courseID, errs.ErrNotFound)
	}

	finalURL := s.derivedURL(jobID)

	// A terminal state already recorded for this job is final. This check
	// doubles as the clobber guard: a late tracker never downgrades
	// COMPLETE/FAILED back to PROCESSING.
	if lecture.TranscodeJobID == jobID && types.TerminalVideoStatus(lecture.VideoStatus) {
		if lecture.VideoStatus == types.VideoStatusComplete {
			return finalURL, nil
		}
		return "", errs.ErrTranscodeFailed
	}

	// Optimistic hand-off: the URL is stable from the moment the job is
	// accepted, so the catalog carries it while status gates playback.
	err = s.lectures.Patch(ctx, lectureID, map[string]any{
		"transcode_job_id": jobID,
		"video_status":     types.VideoStatusProcessing,
		"video_url":        finalURL,
	})
	if err != nil {
		return "", err
	}

	s.log.Info("Tracking transcode job",
		"job_id", jobID, "lecture_id", lectureID,
		"interval", s.pollInterval, "max_attempts", s.maxAttempts)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(s.pollInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
		}

		status, err := s.jobs.Status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			// Transport and parse failures burn an attempt but never
			// abort the loop; transient network trouble looks the same
			// as "still processing".
			if metrics := observability.Current(); metrics != nil {
				metrics.IncTranscodePoll("error")
			}
			s.log.Warn("Transcode status check failed", "job_id", jobID, "attempt", attempt, "error", err)
			continue
		}
		if metrics := observability.Current(); metrics != nil {
			metrics.IncTranscodePoll(status.Status)
		}

		switch status.Status {
		case types.VideoStatusComplete:
			if err := s.writeTerminal(ctx, lectureID, jobID, types.VideoStatusComplete, finalURL); err != nil {
				return "", err
			}
			if metrics := observability.Current(); metrics != nil {
				metrics.IncTranscodeOutcome("complete")
			}
			s.log.Info("Transcode complete", "job_id", jobID, "lecture_id", lectureID, "attempts", attempt)
			return finalURL, nil
		case types.VideoStatusFailed:
			if err := s.writeTerminal(ctx, lectureID, jobID, types.VideoStatusFailed, finalURL); err != nil {
				return "", err
			}
			if metrics := observability.Current(); metrics != nil {
				metrics.IncTranscodeOutcome("failed")
			}
			s.log.Warn("Transcode failed", "job_id", jobID, "lecture_id", lectureID, "message", status.Message)
			return "", errs.ErrTranscodeFailed
		}
	}

	// URL retained on failure so a manual re-check stays possible.
	if err := s.writeTerminal(ctx, lectureID, jobID, types.VideoStatusFailed, finalURL); err != nil {
		return "", err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncTranscodeOutcome("timeout")
	}
	s.log.Warn("Transcode polling budget exhausted", "job_id", jobID, "lecture_id", lectureID, "attempts", s.maxAttempts)
	return "", errs.ErrTranscodeTimeout
}

func (s *transcodeService) writeTerminal(ctx context.Context, lectureID, jobID, status, url string) error {
	return s.lectures.Patch(ctx, lectureID, map[string]any{
		"transcode_job_id": jobID,
		"video_status":     status,
		"video_url":        url,
	})
}

// TrackJobAsync runs TrackJob as a detached background task. Trackers are
// deduplicated per job id; duplicates would still converge, they would just
// poll twice for nothing.
func (s *transcodeService) TrackJobAsync(courseID, lectureID, jobID string) {
	s.mu.Lock()
	if _, busy := s.inflight[jobID]; busy {
		s.mu.Unlock()
		s.log.Debug("Transcode tracker already running", "job_id", jobID)
		return
	}
	s.inflight[jobID] = struct{}{}
	ctx := s.rootCtx
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inflight, jobID)
			s.mu.Unlock()
			if r := recover(); r != nil {
				s.log.Error("Transcode tracker panicked", "job_id", jobID, "panic", r)
			}
		}()
		if _, err := s.TrackJob(ctx, courseID, lectureID, jobID); err != nil {
			s.log.Warn("Transcode tracking finished with error", "job_id", jobID, "error", err)
		}
	}()
}
