package types

import (
	"time"
)

const (
	ProgressStatusNotStarted = "not_started"
	ProgressStatusInProgress = "in_progress"
	ProgressStatusCompleted  = "completed"
)

// CourseProgress is the derived per-(user, course) aggregate. The counting
// fields are fully reconstructible from lecture_progress plus the catalog;
// only StartedAt/CompletedAt (set once, never cleared) and the last-accessed
// pair carry state of their own.
type CourseProgress struct {
	UserID                     string     `json:"user_id"`
	CourseID                   string     `json:"course_id"`
	CompletedLecturesCount     int        `json:"completed_lectures_count"`
	TotalLectures              int        `json:"total_lectures"`
	CompletionPercentage       int        `json:"completion_percentage"`
	Status                     string     `json:"status"`
	LastAccessedLectureID      string     `json:"last_accessed_lecture_id"`
	LastPlayedTimestampSeconds float64    `json:"last_played_timestamp_seconds"`
	StartedAt                  *time.Time `json:"started_at,omitempty"`
	CompletedAt                *time.Time `json:"completed_at,omitempty"`
	CreatedAt                  time.Time  `json:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at"`
}

func (CourseProgress) Collection() string { return "course_progress" }


