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

type ReviewRepo interface {
	Upsert(ctx context.Context, row *types.Review) error
	Get(ctx context.Context, userID, courseID string) (*types.Review, error)
	ListByCourse(ctx context.Context, courseID string) ([]*types.Review, error)
}

type reviewRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewReviewRepo(store docstore.Store, baseLog *logger.Logger) ReviewRepo {
	repoLog := baseLog.With("repo", "ReviewRepo")
	return &reviewRepo{store: store, log: repoLog}
}

// Upsert keeps one review per (user, course): resubmission replaces rating
// and comment, created_at stays from the first submission.
func (r *reviewRepo) Upsert(ctx context.Context, row *types.Review) error {
	id := UserCourseKey(row.UserID, row.CourseID)
	now := time.Now().UTC()
	row.UpdatedAt = now

	created := false
	if _, err := r.store.Get(ctx, types.Review{}.Collection(), id); err != nil {
		if !errors.Is(err, docstore.ErrNoDocument) {
			return storeErr("probe review", err)
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
	if err := r.store.Upsert(ctx, types.Review{}.Collection(), id, fields, true); err != nil {
		return storeErr("upsert review", err)
	}
	return nil
}

func (r *reviewRepo) Get(ctx context.Context, userID, courseID string) (*types.Review, error) {
	doc, err := r.store.Get(ctx, types.Review{}.Collection(), UserCourseKey(userID, courseID))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, errs.ErrNotFound
		}
		return nil, storeErr("get review", err)
	}
	var row types.Review
	if err := doc.Decode(&row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *reviewRepo) ListByCourse(ctx context.Context, courseID string) ([]*types.Review, error) {
	docs, err := r.store.Query(ctx, types.Review{}.Collection(), "course_id", courseID)
	if err != nil {
		return nil, storeErr("list reviews", err)
	}
	return decodeDocs[types.Review](docs)
}
