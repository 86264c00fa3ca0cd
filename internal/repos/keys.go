package repos

// Composite document ids. Progress and review rows key on the user+course
// pair (lecture id appended for per-lecture rows), which makes first writes
// race-safe: concurrent writers for the same pair land on the same document.

func UserCourseKey(userID, courseID string) string {
	return userID + "_" + courseID
}

func LectureProgressID(userID, courseID, lectureID string) string {
	return UserCourseKey(userID, courseID) + "_" + lectureID
}
