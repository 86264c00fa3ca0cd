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

type CourseRepo interface {
	Save(ctx context.Context, course *types.Course) error
	Patch(ctx context.Context, id string, fields map[string]any) error
	GetByID(ctx context.Context, id string) (*types.Course, error)
	List(ctx context.Context) ([]*types.Course, error)
	Delete(ctx context.Context, id string) error
}

type courseRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewCourseRepo(store docstore.Store, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{store: store, log: repoLog}
}

func (r *courseRepo) Save(ctx context.Context, course *types.Course) error {
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	fields, err := docstore.Fields(course)
	if err != nil {
		return err
	}
	if err := r.store.Upsert(ctx, types.Course{}.Collection(), course.ID, fields, false); err != nil {
		return storeErr("save course", err)
	}
	return nil
}

func (r *courseRepo) Patch(ctx context.Context, id string, fields map[string]any) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	if err := r.store.Upsert(ctx, types.Course{}.Collection(), id, fields, true); err != nil {
		return storeErr("patch course", err)
	}
	return nil
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*types.Course, error) {
	doc, err := r.store.Get(ctx, types.Course{}.Collection(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, errs.ErrNotFound
		}
		return nil, storeErr("get course", err)
	}
	var course types.Course
	if err := doc.Decode(&course); err != nil {
		return nil, err
	}
	course.ID = doc.ID
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context) ([]*types.Course, error) {
	docs, err := r.store.All(ctx, types.Course{}.Collection())
	if err != nil {
		return nil, storeErr("list courses", err)
	}
	return decodeDocs[types.Course](docs)
}

func (r *courseRepo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, types.Course{}.Collection(), id); err != nil {
		return storeErr("delete course", err)
	}
	return nil
}
