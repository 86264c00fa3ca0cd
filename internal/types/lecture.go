package types

import (
	"time"
)

// Video transcode states recorded on a lecture. The empty string means no
// video has been attached yet.
const (
	VideoStatusProcessing = "PROCESSING"
	VideoStatusComplete   = "COMPLETE"
	VideoStatusFailed     = "FAILED"
)

type Lecture struct {
	ID                   string    `json:"id"`
	CourseID             string    `json:"course_id"`
	Title                string    `json:"title"`
	OrderIndex           int       `json:"order_index"`
	VideoDurationMinutes float64   `json:"video_duration_minutes"`
	VideoURL             string    `json:"video_url"`
	VideoStatus          string    `json:"video_status"`
	TranscodeJobID       string    `json:"transcode_job_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (Lecture) Collection() string { return "lectures" }

// TerminalVideoStatus reports whether s is a final transcode state.
func TerminalVideoStatus(s string) bool {
	return s == VideoStatusComplete || s == VideoStatusFailed
}

// LectureDescriptor is the narrow read shape the progress engine consumes:
// identity, authoritative duration and ordering, nothing else.
type LectureDescriptor struct {
	ID                   string  `json:"id"`
	VideoDurationMinutes float64 `json:"video_duration_minutes"`
	OrderIndex           int     `json:"order_index"`
}


