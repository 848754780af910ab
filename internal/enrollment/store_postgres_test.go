package enrollment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/heartwood-edu/heartwood/internal/enrollment"
	"github.com/heartwood-edu/heartwood/internal/progress"
)

// startPostgres spins up a throwaway database and returns a store with the
// schema applied.
func startPostgres(t *testing.T) *enrollment.PostgresStore {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("heartwood_test"),
		tcpostgres.WithUsername("heartwood"),
		tcpostgres.WithPassword("heartwood"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	t.Cleanup(pool.Close)

	store, err := enrollment.NewPostgresStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return store
}

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	store := startPostgres(t)
	ctx := context.Background()

	t.Run("enroll and load", func(t *testing.T) {
		if err := store.Enroll(ctx, "child-1", "kindness-101", "Kindness 101"); err != nil {
			t.Fatalf("Enroll() error = %v", err)
		}
		// Idempotent re-enroll.
		if err := store.Enroll(ctx, "child-1", "kindness-101", "Kindness 101"); err != nil {
			t.Fatalf("re-Enroll() error = %v", err)
		}

		rec, ok, err := store.LoadProgress(ctx, "child-1", "kindness-101")
		if err != nil || !ok {
			t.Fatalf("LoadProgress() = %v, %v", ok, err)
		}
		if rec.Completions == nil || len(rec.Completions) != 0 {
			t.Errorf("fresh record completions = %v, want empty map", rec.Completions)
		}
	})

	t.Run("save overwrites whole record", func(t *testing.T) {
		rec := progress.NewRecord(time.Now())
		rec.Completions["l1"] = progress.LessonCompletion{Completed: true, PointsEarned: 10, TimeSpentSeconds: 90}
		rec.CompletionPercentage = 50
		rec.CurrentModuleID = "m1"
		rec.CurrentLessonID = "l1"

		if err := store.SaveProgress(ctx, "child-1", "kindness-101", rec); err != nil {
			t.Fatalf("SaveProgress() error = %v", err)
		}

		loaded, ok, err := store.LoadProgress(ctx, "child-1", "kindness-101")
		if err != nil || !ok {
			t.Fatalf("LoadProgress() = %v, %v", ok, err)
		}
		if loaded.Completions["l1"].PointsEarned != 10 {
			t.Errorf("PointsEarned = %d, want 10", loaded.Completions["l1"].PointsEarned)
		}
		if loaded.CompletionPercentage != 50 {
			t.Errorf("CompletionPercentage = %v, want 50", loaded.CompletionPercentage)
		}
		if loaded.CurrentLessonID != "l1" {
			t.Errorf("CurrentLessonID = %s, want l1", loaded.CurrentLessonID)
		}
	})

	t.Run("save without enrollment", func(t *testing.T) {
		err := store.SaveProgress(ctx, "child-1", "never-enrolled", progress.NewRecord(time.Now()))
		if !errors.Is(err, enrollment.ErrNotEnrolled) {
			t.Errorf("error = %v, want ErrNotEnrolled", err)
		}
	})

	t.Run("load missing", func(t *testing.T) {
		_, ok, err := store.LoadProgress(ctx, "child-1", "never-enrolled")
		if err != nil {
			t.Fatalf("LoadProgress() error = %v", err)
		}
		if ok {
			t.Error("ok = true for a missing enrollment")
		}
	})

	t.Run("list keeps enrollment order", func(t *testing.T) {
		if err := store.Enroll(ctx, "child-2", "honesty-101", "Honesty 101"); err != nil {
			t.Fatal(err)
		}
		if err := store.Enroll(ctx, "child-2", "sharing-101", "Sharing 101"); err != nil {
			t.Fatal(err)
		}

		list, err := store.ListEnrollments(ctx, "child-2")
		if err != nil {
			t.Fatalf("ListEnrollments() error = %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("len = %d, want 2", len(list))
		}
		if list[0].CourseID != "honesty-101" || list[1].CourseID != "sharing-101" {
			t.Errorf("order = %s, %s; want honesty-101, sharing-101", list[0].CourseID, list[1].CourseID)
		}
	})

	t.Run("points and streak", func(t *testing.T) {
		totals, err := store.AddPoints(ctx, "child-3", 25)
		if err != nil {
			t.Fatalf("AddPoints() error = %v", err)
		}
		if totals.TotalPoints != 25 || totals.Streak != 1 {
			t.Errorf("totals = %+v, want 25 points streak 1", totals)
		}

		// Same day: total grows, streak holds.
		totals, err = store.AddPoints(ctx, "child-3", 15)
		if err != nil {
			t.Fatalf("AddPoints() error = %v", err)
		}
		if totals.TotalPoints != 40 || totals.Streak != 1 {
			t.Errorf("totals = %+v, want 40 points streak 1", totals)
		}

		// A negative delta larger than the total clamps at zero.
		totals, err = store.AddPoints(ctx, "child-3", -100)
		if err != nil {
			t.Fatalf("AddPoints() error = %v", err)
		}
		if totals.TotalPoints != 0 {
			t.Errorf("TotalPoints = %d, want 0", totals.TotalPoints)
		}

		got, err := store.Totals(ctx, "child-3")
		if err != nil {
			t.Fatalf("Totals() error = %v", err)
		}
		if got.Streak != totals.Streak || got.TotalPoints != totals.TotalPoints {
			t.Errorf("Totals() = %+v, want %+v", got, totals)
		}
	})

	t.Run("totals for unknown child", func(t *testing.T) {
		totals, err := store.Totals(ctx, "nobody")
		if err != nil {
			t.Fatalf("Totals() error = %v", err)
		}
		if totals.TotalPoints != 0 || totals.Streak != 0 {
			t.Errorf("totals = %+v, want zero value", totals)
		}
	})
}
