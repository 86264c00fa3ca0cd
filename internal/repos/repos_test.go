package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courseloom/courseloom-backend/internal/docstore"
	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/types"
)

func TestCourseRepoRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewCourseRepo(docstore.NewMemoryStore(), logger.NewNop())

	course := &types.Course{ID: "c1", Title: "Go from scratch", Category: "dev", PriceCents: 4999}
	if err := repo.Save(ctx, course); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Go from scratch" || got.PriceCents != 4999 {
		t.Fatalf("GetByID = %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("Save did not stamp timestamps")
	}

	if err := repo.Patch(ctx, "c1", map[string]any{"title": "Go, 2nd edition"}); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	got, err = repo.GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByID after patch: %v", err)
	}
	if got.Title != "Go, 2nd edition" {
		t.Fatalf("patched title = %q", got.Title)
	}
	if got.Category != "dev" {
		t.Fatalf("patch clobbered category: %q", got.Category)
	}

	if err := repo.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "c1"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("GetByID after delete = %v, want ErrNotFound", err)
	}
}

func TestCourseRepoPatchMissing(t *testing.T) {
	t.Parallel()

	repo := NewCourseRepo(docstore.NewMemoryStore(), logger.NewNop())
	err := repo.Patch(context.Background(), "ghost", map[string]any{"title": "x"})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Patch missing = %v, want ErrNotFound", err)
	}
}

func TestLectureRepoOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewLectureRepo(docstore.NewMemoryStore(), logger.NewNop())

	for _, l := range []*types.Lecture{
		{ID: "l3", CourseID: "c1", Title: "Closing", OrderIndex: 3},
		{ID: "l1", CourseID: "c1", Title: "Intro", OrderIndex: 1},
		{ID: "l2", CourseID: "c1", Title: "Middle", OrderIndex: 2},
		{ID: "other", CourseID: "c2", Title: "Unrelated", OrderIndex: 1},
	} {
		if err := repo.Save(ctx, l); err != nil {
			t.Fatalf("Save %s: %v", l.ID, err)
		}
	}

	lectures, err := repo.ListByCourse(ctx, "c1")
	if err != nil {
		t.Fatalf("ListByCourse: %v", err)
	}
	if len(lectures) != 3 {
		t.Fatalf("ListByCourse returned %d lectures, want 3", len(lectures))
	}
	for i, want := range []string{"l1", "l2", "l3"} {
		if lectures[i].ID != want {
			t.Fatalf("lectures[%d] = %s, want %s", i, lectures[i].ID, want)
		}
	}
}

func TestLectureProgressUpsertKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewLectureProgressRepo(docstore.NewMemoryStore(), logger.NewNop())

	first := &types.LectureProgress{UserID: "u1", CourseID: "c1", LectureID: "l1", WatchedDurationSeconds: 30}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	stored, err := repo.Get(ctx, "u1", "c1", "l1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	second := &types.LectureProgress{UserID: "u1", CourseID: "c1", LectureID: "l1", WatchedDurationSeconds: 90, IsCompleted: true}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := repo.Get(ctx, "u1", "c1", "l1")
	if err != nil {
		t.Fatalf("Get after second upsert: %v", err)
	}
	if got.WatchedDurationSeconds != 90 || !got.IsCompleted {
		t.Fatalf("second upsert not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(stored.CreatedAt) {
		t.Fatalf("created_at moved: %v → %v", stored.CreatedAt, got.CreatedAt)
	}
	if !got.UpdatedAt.After(stored.UpdatedAt) {
		t.Fatalf("updated_at did not advance: %v → %v", stored.UpdatedAt, got.UpdatedAt)
	}
	if got.UserCourseKey != "u1_c1" {
		t.Fatalf("user_course_key = %q", got.UserCourseKey)
	}
}

func TestLectureProgressListScopedToUserAndCourse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewLectureProgressRepo(docstore.NewMemoryStore(), logger.NewNop())

	rows := []*types.LectureProgress{
		{UserID: "u1", CourseID: "c1", LectureID: "l1"},
		{UserID: "u1", CourseID: "c1", LectureID: "l2"},
		{UserID: "u1", CourseID: "c2", LectureID: "l1"},
		{UserID: "u2", CourseID: "c1", LectureID: "l1"},
	}
	for _, row := range rows {
		if err := repo.Upsert(ctx, row); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	got, err := repo.ListByUserCourse(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("ListByUserCourse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByUserCourse returned %d rows, want 2", len(got))
	}
	for _, row := range got {
		if row.UserID != "u1" || row.CourseID != "c1" {
			t.Fatalf("row outside scope: %+v", row)
		}
	}
}

func TestCourseProgressMergeLazyCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewCourseProgressRepo(docstore.NewMemoryStore(), logger.NewNop())

	if _, err := repo.Get(ctx, "u1", "c1"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Get before create = %v, want ErrNotFound", err)
	}

	err := repo.Merge(ctx, "u1", "c1", map[string]any{
		"last_accessed_lecture_id":      "l1",
		"last_played_timestamp_seconds": float64(12),
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	got, err := repo.Get(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != "u1" || got.CourseID != "c1" {
		t.Fatalf("lazy create missed identity fields: %+v", got)
	}
	if got.LastAccessedLectureID != "l1" || got.LastPlayedTimestampSeconds != 12 {
		t.Fatalf("merge fields not applied: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("lazy create missed created_at")
	}

	// A later merge of derived fields must not erase the last-accessed pair.
	err = repo.Merge(ctx, "u1", "c1", map[string]any{
		"completed_lectures_count": float64(1),
		"completion_percentage":    float64(50),
		"status":                   types.ProgressStatusInProgress,
	})
	if err != nil {
		t.Fatalf("second Merge: %v", err)
	}
	got, err = repo.Get(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("Get after second merge: %v", err)
	}
	if got.LastAccessedLectureID != "l1" {
		t.Fatalf("derived-field merge clobbered last_accessed_lecture_id: %+v", got)
	}
	if got.CompletionPercentage != 50 || got.Status != types.ProgressStatusInProgress {
		t.Fatalf("derived fields not applied: %+v", got)
	}
}

func TestReviewUpsertReplacesInPlace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewReviewRepo(docstore.NewMemoryStore(), logger.NewNop())

	if err := repo.Upsert(ctx, &types.Review{UserID: "u1", CourseID: "c1", Rating: 3, Comment: "ok"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	first, err := repo.Get(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := repo.Upsert(ctx, &types.Review{UserID: "u1", CourseID: "c1", Rating: 5, Comment: "better on rewatch"}); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	all, err := repo.ListByCourse(ctx, "c1")
	if err != nil {
		t.Fatalf("ListByCourse: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("resubmission duplicated the review: %d rows", len(all))
	}
	if all[0].Rating != 5 {
		t.Fatalf("rating = %d, want 5", all[0].Rating)
	}
	if !all[0].CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("resubmission moved created_at: %v → %v", first.CreatedAt, all[0].CreatedAt)
	}
}
