package videojobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

func TestStatusNormalizesCase(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status/job-42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"complete","jobId":"job-42"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := c.Status(context.Background(), "job-42")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.Status != "COMPLETE" {
		t.Fatalf("Status = %q, want COMPLETE", got.Status)
	}
	if got.JobID != "job-42" {
		t.Fatalf("JobID = %q", got.JobID)
	}
}

func TestStatusNon200IsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Status(context.Background(), "job-42"); err == nil {
		t.Fatal("Status on 502 returned nil error")
	}
}

func TestStatusBadPayloadIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Status(context.Background(), "job-42"); err == nil {
		t.Fatal("Status on junk payload returned nil error")
	}
}

func TestNewClientRequiresBase(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("   ", logger.NewNop()); err == nil {
		t.Fatal("NewClient with blank base returned nil error")
	}
}
