package types

import (
	"time"
)

// Review is one user's rating of a course. One row per (user, course);
// resubmitting replaces rating and comment in place.
type Review struct {
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Review) Collection() string { return "reviews" }

// RatingSummary is the cached aggregate served on course pages.
type RatingSummary struct {
	CourseID string  `json:"course_id"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}


