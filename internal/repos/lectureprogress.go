package repos

import (
	"context"
	"errors"
	"time"

	"github.com/courseloom/courseloom-backend/internal/docstore"
	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/types"
)

type LectureProgressRepo interface {
	Get(ctx context.Context, userID, courseID, lectureID string) (*types.LectureProgress, error)
	Upsert(ctx context.Context, row *types.LectureProgress) error
	ListByUserCourse(ctx context.Context, userID, courseID string) ([]*types.LectureProgress, error)
}

type lectureProgressRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewLectureProgressRepo(store docstore.Store, baseLog *logger.Logger) LectureProgressRepo {
	repoLog := baseLog.With("repo", "LectureProgressRepo")
	return &lectureProgressRepo{store: store, log: repoLog}
}

func (r *lectureProgressRepo) Get(ctx context.Context, userID, courseID, lectureID string) (*types.LectureProgress, error) {
	id := LectureProgressID(userID, courseID, lectureID)
	doc, err := r.store.Get(ctx, types.LectureProgress{}.Collection(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, errs.ErrNotFound
		}
		return nil, storeErr("get lecture progress", err)
	}
	var row types.LectureProgress
	if err := doc.Decode(&row); err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert merge-writes the row under its composite id. created_at is written
// only on first create so later writes never clobber it.
func (r *lectureProgressRepo) Upsert(ctx context.Context, row *types.LectureProgress) error {
	id := LectureProgressID(row.UserID, row.CourseID, row.LectureID)
	row.UserCourseKey = UserCourseKey(row.UserID, row.CourseID)

	now := time.Now().UTC()
	row.UpdatedAt = now

	created := false
	if _, err := r.store.Get(ctx, types.LectureProgress{}.Collection(), id); err != nil {
		if !errors.Is(err, docstore.ErrNoDocument) {
			return storeErr("probe lecture progress", err)
		}
		created = true
	}
	if created {
		row.CreatedAt = now
	}

	fields, err := docstore.Fields(row)
	if err != nil {
		return err
	}
	if !created {
		delete(fields, "created_at")
	}
	if err := r.store.Upsert(ctx, types.LectureProgress{}.Collection(), id, fields, true); err != nil {
		return storeErr("upsert lecture progress", err)
	}
	return nil
}

func (r *lectureProgressRepo) ListByUserCourse(ctx context.Context, userID, courseID string) ([]*types.LectureProgress, error) {
	docs, err := r.store.Query(ctx, types.LectureProgress{}.Collection(), "user_course_key", UserCourseKey(userID, courseID))
	if err != nil {
		return nil, storeErr("list lecture progress", err)
	}
	return decodeDocs[types.LectureProgress](docs)
}
