package enrollment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heartwood-edu/heartwood/internal/enrollment"
	"github.com/heartwood-edu/heartwood/internal/progress"
)

func TestMemoryStore_EnrollIsIdempotent(t *testing.T) {
	store := enrollment.NewMemoryStore()
	ctx := context.Background()

	if err := store.Enroll(ctx, "child-1", "kindness-101", "Kindness 101"); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	rec := progress.NewRecord(time.Now())
	rec.Completions["l1"] = progress.LessonCompletion{Completed: true, PointsEarned: 10}
	if err := store.SaveProgress(ctx, "child-1", "kindness-101", rec); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	// A second enrollment keeps the existing record.
	if err := store.Enroll(ctx, "child-1", "kindness-101", "Kindness 101"); err != nil {
		t.Fatalf("re-Enroll() error = %v", err)
	}
	loaded, ok, err := store.LoadProgress(ctx, "child-1", "kindness-101")
	if err != nil || !ok {
		t.Fatalf("LoadProgress() = %v, %v", ok, err)
	}
	if !loaded.Completions["l1"].Completed {
		t.Error("re-enrollment wiped the existing progress record")
	}
}

func TestMemoryStore_EnrollRequiresIDs(t *testing.T) {
	store := enrollment.NewMemoryStore()
	ctx := context.Background()

	if err := store.Enroll(ctx, "", "kindness-101", "t"); err == nil {
		t.Error("expected error for empty child id")
	}
	if err := store.Enroll(ctx, "child-1", "", "t"); err == nil {
		t.Error("expected error for empty course id")
	}
}

func TestMemoryStore_LoadProgressMissing(t *testing.T) {
	store := enrollment.NewMemoryStore()

	_, ok, err := store.LoadProgress(context.Background(), "child-1", "nope")
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if ok {
		t.Error("ok = true for a missing enrollment")
	}
}

func TestMemoryStore_SaveProgressRequiresEnrollment(t *testing.T) {
	store := enrollment.NewMemoryStore()

	err := store.SaveProgress(context.Background(), "child-1", "nope", progress.NewRecord(time.Now()))
	if !errors.Is(err, enrollment.ErrNotEnrolled) {
		t.Errorf("error = %v, want ErrNotEnrolled", err)
	}
}

func TestMemoryStore_SaveProgressIsolatesCaller(t *testing.T) {
	store := enrollment.NewMemoryStore()
	ctx := context.Background()
	if err := store.Enroll(ctx, "child-1", "kindness-101", "Kindness 101"); err != nil {
		t.Fatal(err)
	}

	rec := progress.NewRecord(time.Now())
	if err := store.SaveProgress(ctx, "child-1", "kindness-101", rec); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's record after saving must not leak into the store.
	rec.Completions["l1"] = progress.LessonCompletion{Completed: true}

	loaded, _, err := store.LoadProgress(ctx, "child-1", "kindness-101")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Completions) != 0 {
		t.Error("stored record shares state with the caller's copy")
	}
}

func TestMemoryStore_ListEnrollmentsKeepsOrder(t *testing.T) {
	store := enrollment.NewMemoryStore()
	ctx := context.Background()

	for _, c := range []struct{ id, title string }{
		{"kindness-101", "Kindness 101"},
		{"honesty-101", "Honesty 101"},
		{"sharing-101", "Sharing 101"},
	} {
		if err := store.Enroll(ctx, "child-1", c.id, c.title); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListEnrollments(ctx, "child-1")
	if err != nil {
		t.Fatalf("ListEnrollments() error = %v", err)
	}
	want := []string{"kindness-101", "honesty-101", "sharing-101"}
	if len(list) != len(want) {
		t.Fatalf("len = %d, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].CourseID != id {
			t.Errorf("position %d = %s, want %s", i, list[i].CourseID, id)
		}
		if list[i].Record == nil {
			t.Errorf("row %s has nil record, enrollment seeds an empty one", id)
		}
	}
}

func TestMemoryStore_AddPointsFloorsAtZero(t *testing.T) {
	store := enrollment.NewMemoryStore()
	ctx := context.Background()

	totals, err := store.AddPoints(ctx, "child-1", 30)
	if err != nil {
		t.Fatalf("AddPoints() error = %v", err)
	}
	if totals.TotalPoints != 30 {
		t.Errorf("TotalPoints = %d, want 30", totals.TotalPoints)
	}

	// A retry-overwrite can produce a negative delta larger than the total.
	totals, err = store.AddPoints(ctx, "child-1", -50)
	if err != nil {
		t.Fatalf("AddPoints() error = %v", err)
	}
	if totals.TotalPoints != 0 {
		t.Errorf("TotalPoints = %d, want clamped to 0", totals.TotalPoints)
	}
}

func TestMemoryStore_Streak(t *testing.T) {
	store := enrollment.NewMemoryStore()
	ctx := context.Background()

	day := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return day }

	totals, err := store.AddPoints(ctx, "child-1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if totals.Streak != 1 {
		t.Fatalf("first activity streak = %d, want 1", totals.Streak)
	}

	// Same day: streak holds.
	day = day.Add(4 * time.Hour)
	totals, _ = store.AddPoints(ctx, "child-1", 10)
	if totals.Streak != 1 {
		t.Errorf("same-day streak = %d, want 1", totals.Streak)
	}

	// Next day: streak extends.
	day = day.Add(24 * time.Hour)
	totals, _ = store.AddPoints(ctx, "child-1", 10)
	if totals.Streak != 2 {
		t.Errorf("next-day streak = %d, want 2", totals.Streak)
	}

	// Two-day gap: streak resets.
	day = day.Add(72 * time.Hour)
	totals, _ = store.AddPoints(ctx, "child-1", 10)
	if totals.Streak != 1 {
		t.Errorf("post-gap streak = %d, want 1", totals.Streak)
	}
}

func TestMemoryStore_TotalsForUnknownChild(t *testing.T) {
	store := enrollment.NewMemoryStore()

	totals, err := store.Totals(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if totals.TotalPoints != 0 || totals.Streak != 0 {
		t.Errorf("totals = %+v, want zero value", totals)
	}
}
