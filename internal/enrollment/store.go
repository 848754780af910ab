// Package enrollment persists per-child progress and the running
// points/streak totals dashboards read. The engine treats this store as an
// external collaborator: saves are at-least-once and last-write-wins on the
// whole progress document.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/heartwood-edu/heartwood/internal/progress"
)

// ErrNotEnrolled is returned for operations on a missing enrollment.
var ErrNotEnrolled = errors.New("enrollment: child is not enrolled in course")

// Totals is the externally-owned running aggregate for one child.
type Totals struct {
	TotalPoints int       `json:"total_points"`
	Streak      int       `json:"streak"` // consecutive active days
	LastActive  time.Time `json:"last_active"`
}

// Store persists enrollments, progress records and child totals.
type Store interface {
	// Enroll creates an enrollment with an empty progress record. Enrolling
	// twice is a no-op; the existing record is kept.
	Enroll(ctx context.Context, childID, courseID, courseTitle string) error
	LoadProgress(ctx context.Context, childID, courseID string) (progress.Record, bool, error)
	// SaveProgress overwrites the stored record as a whole document.
	SaveProgress(ctx context.Context, childID, courseID string, rec progress.Record) error
	// ListEnrollments returns course summary + progress rows for a child,
	// in enrollment order.
	ListEnrollments(ctx context.Context, childID string) ([]progress.Overview, error)
	// AddPoints applies a points delta to the child's running total and
	// refreshes the activity streak.
	AddPoints(ctx context.Context, childID string, delta int) (Totals, error)
	Totals(ctx context.Context, childID string) (Totals, error)
}

type memoryEnrollment struct {
	courseID    string
	courseTitle string
	enrolledAt  time.Time
	record      progress.Record
}

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	enrollments map[string][]*memoryEnrollment // childID -> enrollment order
	totals      map[string]Totals
	mu          sync.RWMutex

	// Now is the clock used for enrollment stamps and streak day math.
	// Overridable in tests.
	Now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		enrollments: make(map[string][]*memoryEnrollment),
		totals:      make(map[string]Totals),
		Now:         time.Now,
	}
}

func (s *MemoryStore) Enroll(_ context.Context, childID, courseID, courseTitle string) error {
	if childID == "" || courseID == "" {
		return fmt.Errorf("child id and course id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(childID, courseID) != nil {
		return nil
	}
	s.enrollments[childID] = append(s.enrollments[childID], &memoryEnrollment{
		courseID:    courseID,
		courseTitle: courseTitle,
		enrolledAt:  s.Now(),
		record:      progress.NewRecord(s.Now()),
	})
	return nil
}

func (s *MemoryStore) LoadProgress(_ context.Context, childID, courseID string) (progress.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.find(childID, courseID)
	if e == nil {
		return progress.Record{}, false, nil
	}
	return e.record.Clone(), true, nil
}

func (s *MemoryStore) SaveProgress(_ context.Context, childID, courseID string, rec progress.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.find(childID, courseID)
	if e == nil {
		return fmt.Errorf("%w: child %s course %s", ErrNotEnrolled, childID, courseID)
	}
	e.record = rec.Clone()
	return nil
}

func (s *MemoryStore) ListEnrollments(_ context.Context, childID string) ([]progress.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.enrollments[childID]
	out := make([]progress.Overview, 0, len(list))
	for _, e := range list {
		rec := e.record.Clone()
		out = append(out, progress.Overview{
			CourseID:   e.courseID,
			Title:      e.courseTitle,
			EnrolledAt: e.enrolledAt,
			Record:     &rec,
		})
	}
	return out, nil
}

func (s *MemoryStore) AddPoints(_ context.Context, childID string, delta int) (Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.totals[childID]
	t.TotalPoints += delta
	if t.TotalPoints < 0 {
		t.TotalPoints = 0
	}

	now := s.Now()
	t.Streak = nextStreak(t.Streak, t.LastActive, now)
	t.LastActive = now

	s.totals[childID] = t
	return t, nil
}

func (s *MemoryStore) Totals(_ context.Context, childID string) (Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[childID], nil
}

func (s *MemoryStore) find(childID, courseID string) *memoryEnrollment {
	for _, e := range s.enrollments[childID] {
		if e.courseID == courseID {
			return e
		}
	}
	return nil
}

// nextStreak advances a consecutive-active-days counter: same day keeps it,
// the day after extends it, any gap resets to 1.
func nextStreak(streak int, lastActive, now time.Time) int {
	if streak == 0 || lastActive.IsZero() {
		return 1
	}
	last := lastActive.Truncate(24 * time.Hour)
	today := now.Truncate(24 * time.Hour)
	switch {
	case today.Equal(last):
		return streak
	case today.Equal(last.Add(24 * time.Hour)):
		return streak + 1
	default:
		return 1
	}
}
