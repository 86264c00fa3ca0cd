package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/courseloom/courseloom-backend/internal/clients/videojobs"
	"github.com/courseloom/courseloom-backend/internal/docstore"
	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// scriptedJobsClient replays a fixed status sequence; the last entry repeats
// once the script runs out. A nil Status in the script is a transport error.
type scriptedJobsClient struct {
	mu     sync.Mutex
	script []*videojobs.JobStatus
	calls  int
	gate   chan struct{} // when set, Status blocks until the gate closes
}

func (c *scriptedJobsClient) Status(_ context.Context, jobID string) (videojobs.JobStatus, error) {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.calls
	c.calls++
	if idx >= len(c.script) {
		idx = len(c.script) - 1
	}
	entry := c.script[idx]
	if entry == nil {
		return videojobs.JobStatus{}, errors.New("connection refused")
	}
	out := *entry
	out.JobID = jobID
	return out, nil
}

func (c *scriptedJobsClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func status(s string) *videojobs.JobStatus {
	return &videojobs.JobStatus{Status: s}
}

type transcodeFixture struct {
	lectures  repos.LectureRepo
	client    *scriptedJobsClient
	transcode TranscodeService
	lectureID string
	courseID  string
}

func newTranscodeFixture(t *testing.T, maxAttempts int, script ...*videojobs.JobStatus) *transcodeFixture {
	t.Helper()
	log := logger.NewNop()
	store := docstore.NewMemoryStore()
	lectures := repos.NewLectureRepo(store, log)

	lecture := &types.Lecture{
		ID:                   "lec-1",
		CourseID:             "course-1",
		Title:                "Intro",
		VideoDurationMinutes: 10,
	}
	if err := lectures.Save(context.Background(), lecture); err != nil {
		t.Fatalf("seed lecture got err=%v want nil", err)
	}

	client := &scriptedJobsClient{script: script}
	transcode := NewTranscodeService(lectures, client, TranscodeConfig{
		PublicBase:   "https://cdn.example.com",
		PollInterval: time.Millisecond,
		MaxAttempts:  maxAttempts,
	}, log)
	return &transcodeFixture{
		lectures:  lectures,
		client:    client,
		transcode: transcode,
		lectureID: lecture.ID,
		courseID:  lecture.CourseID,
	}
}

func (f *transcodeFixture) lecture(t *testing.T) *types.Lecture {
	t.Helper()
	lecture, err := f.lectures.GetByID(context.Background(), f.lectureID)
	if err != nil {
		t.Fatalf("GetByID got err=%v want nil", err)
	}
	return lecture
}

func TestTrackJobConvergesToComplete(t *testing.T) {
	t.Parallel()

	f := newTranscodeFixture(t, 10,
		status(types.VideoStatusProcessing),
		status(types.VideoStatusProcessing),
		status(types.VideoStatusProcessing),
		status(types.VideoStatusComplete),
	)

	url, err := f.transcode.TrackJob(context.Background(), f.courseID, f.lectureID, "job-1")
	if err != nil {
		t.Fatalf("TrackJob got err=%v want nil", err)
	}
	want := "https://cdn.example.com/hls/job-1/master.m3u8"
	if url != want {
		t.Fatalf("url got=%s want=%s", url, want)
	}
	if got := f.client.callCount(); got != 4 {
		t.Fatalf("status calls got=%d want=4", got)
	}

	lecture := f.lecture(t)
	if lecture.VideoStatus != types.VideoStatusComplete || lecture.VideoURL != want || lecture.TranscodeJobID != "job-1" {
		t.Fatalf("lecture after convergence got=%+v", lecture)
	}
}

func TestTrackJobTimeoutAfterBudget(t *testing.T) {
	t.Parallel()

	f := newTranscodeFixture(t, 3, status(types.VideoStatusProcessing))

	_, err := f.transcode.TrackJob(context.Background(), f.courseID, f.lectureID, "job-1")
	if !errors.Is(err, errs.ErrTranscodeTimeout) {
		t.Fatalf("TrackJob got err=%v want ErrTranscodeTimeout", err)
	}
	if got := f.client.callCount(); got != 3 {
		t.Fatalf("status calls got=%d want=3 (one per attempt)", got)
	}

	lecture := f.lecture(t)
	if lecture.VideoStatus != types.VideoStatusFailed {
		t.Fatalf("status after timeout got=%s want=FAILED", lecture.VideoStatus)
	}
	if lecture.VideoURL == "" {
		t.Fatalf("url cleared on timeout, want retained")
	}
}

func TestTrackJobFailedStatus(t *testing.T) {
	t.Parallel()

	f := newTranscodeFixture(t, 10,
		status(types.VideoStatusProcessing),
		status(types.VideoStatusFailed),
	)

	_, err := f.transcode.TrackJob(context.Background(), f.courseID, f.lectureID, "job-1")
	if !errors.Is(err, errs.ErrTranscodeFailed) {
		t.Fatalf("TrackJob got err=%v want ErrTranscodeFailed", err)
	}
	if lecture := f.lecture(t); lecture.VideoStatus != types.VideoStatusFailed {
		t.Fatalf("status got=%s want=FAILED", lecture.VideoStatus)
	}
}

func TestTrackJobTransportErrorsBurnAttemptsOnly(t *testing.T) {
	t.Parallel()

	// nil entries are transport errors; they must not abort the loop.
	f := newTranscodeFixture(t, 10, nil, nil, status(types.VideoStatusComplete))

	url, err := f.transcode.TrackJob(context.Background(), f.courseID, f.lectureID, "job-1")
	if err != nil {
		t.Fatalf("TrackJob got err=%v want nil", err)
	}
	if url == "" {
		t.Fatalf("url empty after recovery")
	}
	if got := f.client.callCount(); got != 3 {
		t.Fatalf("status calls got=%d want=3", got)
	}
}

func TestTrackJobDoesNotClobberTerminalState(t *testing.T) {
	t.Parallel()

	f := newTranscodeFixture(t, 10, status(types.VideoStatusProcessing))
	ctx := context.Background()

	url := "https://cdn.example.com/hls/job-1/master.m3u8"
	err := f.lectures.Patch(ctx, f.lectureID, map[string]any{
		"transcode_job_id": "job-1",
		"video_status":     types.VideoStatusComplete,
		"video_url":        url,
	})
	if err != nil {
		t.Fatalf("seed terminal state got err=%v want nil", err)
	}

	// A late duplicate tracker for the same job must return the recorded
	// outcome without polling or downgrading the status.
	got, err := f.transcode.TrackJob(ctx, f.courseID, f.lectureID, "job-1")
	if err != nil {
		t.Fatalf("duplicate TrackJob got err=%v want nil", err)
	}
	if got != url {
		t.Fatalf("url got=%s want=%s", got, url)
	}
	if calls := f.client.callCount(); calls != 0 {
		t.Fatalf("status calls got=%d want=0", calls)
	}
	if lecture := f.lecture(t); lecture.VideoStatus != types.VideoStatusComplete {
		t.Fatalf("terminal status downgraded to %s", lecture.VideoStatus)
	}
}

func TestTrackJobRecordedFailureIsFinal(t *testing.T) {
	t.Parallel()

	f := newTranscodeFixture(t, 10, status(types.VideoStatusComplete))
	ctx := context.Background()

	err := f.lectures.Patch(ctx, f.lectureID, map[string]any{
		"transcode_job_id": "job-1",
		"video_status":     types.VideoStatusFailed,
		"video_url":        "https://cdn.example.com/hls/job-1/master.m3u8",
	})
	if err != nil {
		t.Fatalf("seed failed state got err=%v want nil", err)
	}

	if _, err := f.transcode.TrackJob(ctx, f.courseID, f.lectureID, "job-1"); !errors.Is(err, errs.ErrTranscodeFailed) {
		t.Fatalf("re-track of failed job got err=%v want ErrTranscodeFailed", err)
	}
	if calls := f.client.callCount(); calls != 0 {
		t.Fatalf("status calls got=%d want=0", calls)
	}
}

func TestTrackJobNewJobSupersedesTerminal(t *testing.T) {
	t.Parallel()

	f := newTranscodeFixture(t, 10, status(types.VideoStatusComplete))
	ctx := context.Background()

	err := f.lectures.Patch(ctx, f.lectureID, map[string]any{
		"transcode_job_id": "job-1",
		"video_status":     types.VideoStatusFailed,
		"video_url":        "https://cdn.example.com/hls/job-1/master.m3u8",
	})
	if err != nil {
		t.Fatalf("seed old job got err=%v want nil", err)
	}

	// A re-upload gets a fresh job id; the old terminal state does not block it.
	url, err := f.transcode.TrackJob(ctx, f.courseID, f.lectureID, "job-2")
	if err != nil {
		t.Fatalf("TrackJob for new job got err=%v want nil", err)
	}
	want := "https://cdn.example.com/hls/job-2/master.m3u8"
	if url != want {
		t.Fatalf("url got=%s want=%s", url, want)
	}
	lecture := f.lecture(t)
	if lecture.TranscodeJobID != "job-2" || lecture.VideoStatus != types.VideoStatusComplete {
		t.Fatalf("lecture after re-upload got=%+v", lecture)
	}
}

func TestTrackJobValidation(t *testing.T) {
	t.Parallel()

	f := newTranscodeFixture(t, 10, status(types.VideoStatusComplete))
	ctx := context.Background()

	if _, err := f.transcode.TrackJob(ctx, f.courseID, f.lectureID, "  "); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("blank job id got err=%v want ErrInvalidArgument", err)
	}
	if _, err := f.transcode.TrackJob(ctx, f.courseID, "missing-lecture", "job-1"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown lecture got err=%v want ErrNotFound", err)
	}
	if _, err := f.transcode.TrackJob(ctx, "other-course", f.lectureID, "job-1"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("course mismatch got err=%v want ErrNotFound", err)
	}
}

func TestTrackJobAsyncDeduplicatesInflight(t *testing.T) {
	t.Parallel()

	f := newTranscodeFixture(t, 10, status(types.VideoStatusComplete))
	f.client.gate = make(chan struct{})
	f.transcode.Start(context.Background())

	f.transcode.TrackJobAsync(f.courseID, f.lectureID, "job-1")
	f.transcode.TrackJobAsync(f.courseID, f.lectureID, "job-1") // duplicate while first is blocked
	close(f.client.gate)

	deadline := time.After(2 * time.Second)
	for {
		if lecture := f.lecture(t); lecture.VideoStatus == types.VideoStatusComplete {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("tracker did not converge: lecture=%+v", f.lecture(t))
		case <-time.After(5 * time.Millisecond):
		}
	}

	if calls := f.client.callCount(); calls != 1 {
		t.Fatalf("status calls got=%d want=1 (duplicate tracker must not poll)", calls)
	}
}
