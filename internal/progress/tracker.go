package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/heartwood-edu/heartwood/internal/content"
)

// ErrLessonNotFound is returned when a lesson id does not exist in the
// course tree. The operation is rejected with the record unchanged.
var ErrLessonNotFound = errors.New("progress: lesson not found in course")

// Tracker applies completion mutations to a record against its course tree.
type Tracker struct {
	course content.Course
	record *Record
	now    func() time.Time
}

// NewTracker creates a tracker for one record. The record is mutated in
// place; callers own its persistence.
func NewTracker(course content.Course, record *Record) *Tracker {
	return &Tracker{
		course: course,
		record: record,
		now:    time.Now,
	}
}

// CompleteLesson marks a lesson completed, overwriting any prior entry.
// Points are clamped to [0, PointsReward]. Re-doing a lesson replaces the
// earlier completion — it never sums, so repeat runs cannot double-award.
// The returned delta (new minus old points) is what the caller feeds into
// the child's externally-owned running total.
func (t *Tracker) CompleteLesson(lessonID string, pointsEarned, timeSpentSeconds int) (delta int, err error) {
	module, lesson, ok := t.course.FindLesson(lessonID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}

	if pointsEarned < 0 {
		pointsEarned = 0
	}
	if pointsEarned > lesson.PointsReward {
		pointsEarned = lesson.PointsReward
	}
	if timeSpentSeconds < 0 {
		timeSpentSeconds = 0
	}

	prev := t.record.Completions[lessonID]
	t.record.Completions[lessonID] = LessonCompletion{
		Completed:        true,
		TimeSpentSeconds: timeSpentSeconds,
		PointsEarned:     pointsEarned,
	}

	t.record.Recompute(t.course)
	t.record.CurrentModuleID = module.ID
	t.record.CurrentLessonID = lessonID
	t.record.LastAccessedAt = t.now()

	return pointsEarned - prev.PointsEarned, nil
}

// Touch updates the resume pointer and access time without completing
// anything, used when the learner navigates.
func (t *Tracker) Touch(moduleID, lessonID string) {
	t.record.CurrentModuleID = moduleID
	t.record.CurrentLessonID = lessonID
	t.record.LastAccessedAt = t.now()
}

// Record exposes the tracked record.
func (t *Tracker) Record() *Record {
	return t.record
}
