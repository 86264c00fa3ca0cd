package repos

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/courseloom/courseloom-backend/internal/docstore"
	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/types"
)

type LectureRepo interface {
	Save(ctx context.Context, lecture *types.Lecture) error
	Patch(ctx context.Context, id string, fields map[string]any) error
	GetByID(ctx context.Context, id string) (*types.Lecture, error)
	ListByCourse(ctx context.Context, courseID string) ([]*types.Lecture, error)
	Delete(ctx context.Context, id string) error
}

type lectureRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewLectureRepo(store docstore.Store, baseLog *logger.Logger) LectureRepo {
	repoLog := baseLog.With("repo", "LectureRepo")
	return &lectureRepo{store: store, log: repoLog}
}

func (r *lectureRepo) Save(ctx context.Context, lecture *types.Lecture) error {
	now := time.Now().UTC()
	if lecture.CreatedAt.IsZero() {
		lecture.CreatedAt = now
	}
	lecture.UpdatedAt = now

	fields, err := docstore.Fields(lecture)
	if err != nil {
		return err
	}
	if err := r.store.Upsert(ctx, types.Lecture{}.Collection(), lecture.ID, fields, false); err != nil {
		return storeErr("save lecture", err)
	}
	return nil
}

func (r *lectureRepo) Patch(ctx context.Context, id string, fields map[string]any) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	if err := r.store.Upsert(ctx, types.Lecture{}.Collection(), id, fields, true); err != nil {
		return storeErr("patch lecture", err)
	}
	return nil
}

func (r *lectureRepo) GetByID(ctx context.Context, id string) (*types.Lecture, error) {
	doc, err := r.store.Get(ctx, types.Lecture{}.Collection(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, errs.ErrNotFound
		}
		return nil, storeErr("get lecture", err)
	}
	var lecture types.Lecture
	if err := doc.Decode(&lecture); err != nil {
		return nil, err
	}
	lecture.ID = doc.ID
	return &lecture, nil
}

func (r *lectureRepo) ListByCourse(ctx context.Context, courseID string) ([]*types.Lecture, error) {
	docs, err := r.store.Query(ctx, types.Lecture{}.Collection(), "course_id", courseID)
	if err != nil {
		return nil, storeErr("list lectures", err)
	}
	lectures, err := decodeDocs[types.Lecture](docs)
	if err != nil {
		return nil, err
	}
	sort.Slice(lectures, func(i, j int) bool {
		if lectures[i].OrderIndex != lectures[j].OrderIndex {
			return lectures[i].OrderIndex < lectures[j].OrderIndex
		}
		return lectures[i].ID < lectures[j].ID
	})
	return lectures, nil
}

func (r *lectureRepo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, types.Lecture{}.Collection(), id); err != nil {
		return storeErr("delete lecture", err)
	}
	return nil
}
