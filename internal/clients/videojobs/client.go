package videojobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

// JobStatus is the transcoder's status payload. The pipeline reports
// camelCase JSON and mixed-case status strings; Status is normalized to
// upper case before anything else sees it.
type JobStatus struct {
	Status  string `json:"status"`
	JobID   string `json:"jobId"`
	Message string `json:"message,omitempty"`
}

type Client interface {
	Status(ctx context.Context, jobID string) (JobStatus, error)
}

type client struct {
	base string
	http *http.Client
	log  *logger.Logger
}

func NewClient(base string, log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, fmt.Errorf("missing transcoder base url")
	}
	return &client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log.With("service", "VideoJobsClient"),
	}, nil
}

func (c *client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	url := fmt.Sprintf("%s/status/%s", c.base, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("videojobs: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return JobStatus{}, fmt.Errorf("videojobs: status %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JobStatus{}, fmt.Errorf("videojobs: status %s: unexpected http %d", jobID, resp.StatusCode)
	}

	var out JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return JobStatus{}, fmt.Errorf("videojobs: decode status %s: %w", jobID, err)
	}
	out.Status = strings.ToUpper(strings.TrimSpace(out.Status))
	return out, nil
}
