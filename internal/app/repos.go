package app

import (
	"github.com/courseloom/courseloom-backend/internal/docstore"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
)

type Repos struct {
	Course          repos.CourseRepo
	Lecture         repos.LectureRepo
	LectureProgress repos.LectureProgressRepo
	CourseProgress  repos.CourseProgressRepo
	Review          repos.ReviewRepo
}

func wireRepos(store docstore.Store, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Course:          repos.NewCourseRepo(store, log),
		Lecture:         repos.NewLectureRepo(store, log),
		LectureProgress: repos.NewLectureProgressRepo(store, log),
		CourseProgress:  repos.NewCourseProgressRepo(store, log),
		Review:          repos.NewReviewRepo(store, log),
	}
}
