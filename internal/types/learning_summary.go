package types

// LearningSummary is the "my learnings" list row: the course progress
// aggregate joined with the catalog fields a dashboard card shows. It is
// assembled per request and never stored.
type LearningSummary struct {
	CourseID               string `json:"course_id"`
	Title                  string `json:"title"`
	Instructor             string `json:"instructor"`
	ThumbnailURL           string `json:"thumbnail_url"`
	CompletionPercentage   int    `json:"completion_percentage"`
	Status                 string `json:"status"`
	CompletedLecturesCount int    `json:"completed_lectures_count"`
	TotalLectures          int    `json:"total_lectures"`
	LastAccessedLectureID  string `json:"last_accessed_lecture_id,omitempty"`
}
