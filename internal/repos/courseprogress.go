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

type CourseProgressRepo interface {
	Get(ctx context.Context, userID, courseID string) (*types.CourseProgress, error)
	Merge(ctx context.Context, userID, courseID string, fields map[string]any) error
	ListByUser(ctx context.Context, userID string) ([]*types.CourseProgress, error)
}

type courseProgressRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewCourseProgressRepo(store docstore.Store, baseLog *logger.Logger) CourseProgressRepo {
	repoLog := baseLog.With("repo", "CourseProgressRepo")
	return &courseProgressRepo{store: store, log: repoLog}
}

func (r *courseProgressRepo) Get(ctx context.Context, userID, courseID string) (*types.CourseProgress, error) {
	doc, err := r.store.Get(ctx, types.CourseProgress{}.Collection(), UserCourseKey(userID, courseID))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, errs.ErrNotFound
		}
		return nil, storeErr("get course progress", err)
	}
	var row types.CourseProgress
	if err := doc.Decode(&row); err != nil {
		return nil, err
	}
	return &row, nil
}

// Merge folds fields into the row, lazily creating it with identity fields
// and created_at on first touch. Callers pass only the fields they own, so
// a recompute write-back can never clobber last-accessed state and vice
// versa.
func (r *courseProgressRepo) Merge(ctx context.Context, userID, courseID string, fields map[string]any) error {
	id := UserCourseKey(userID, courseID)
	now := time.Now().UTC()

	if _, err := r.store.Get(ctx, types.CourseProgress{}.Collection(), id); err != nil {
		if !errors.Is(err, docstore.ErrNoDocument) {
			return storeErr("probe course progress", err)
		}
		fields["user_id"] = userID
		fields["course_id"] = courseID
		fields["created_at"] = now.Format(time.RFC3339Nano)
	}
	fields["updated_at"] = now.Format(time.RFC3339Nano)

	if err := r.store.Upsert(ctx, types.CourseProgress{}.Collection(), id, fields, true); err != nil {
		return storeErr("merge course progress", err)
	}
	return nil
}

func (r *courseProgressRepo) ListByUser(ctx context.Context, userID string) ([]*types.CourseProgress, error) {
	docs, err := r.store.Query(ctx, types.CourseProgress{}.Collection(), "user_id", userID)
	if err != nil {
		return nil, storeErr("list course progress", err)
	}
	return decodeDocs[types.CourseProgress](docs)
}
