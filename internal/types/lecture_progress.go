package types

import (
	"time"
)

// LectureProgress is one user's raw watch state for one lecture. Rows are
// written by merge-upsert only and never deleted; regressions (rewinds,
// un-completion) are allowed and simply overwrite.
type LectureProgress struct {
	UserID                 string     `json:"user_id"`
	CourseID               string     `json:"course_id"`
	LectureID              string     `json:"lecture_id"`
	UserCourseKey          string     `json:"user_course_key"`
	WatchedDurationSeconds float64    `json:"watched_duration_seconds"`
	IsCompleted            bool       `json:"is_completed"`
	LastWatchedAt          *time.Time `json:"last_watched_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func (LectureProgress) Collection() string { return "lecture_progress" }


