// Package progress tracks per-child, per-course completion and derives the
// aggregates list views sort on.
package progress

import (
	"time"

	"github.com/heartwood-edu/heartwood/internal/content"
)

// LessonCompletion is the ledger entry for one lesson.
type LessonCompletion struct {
	Completed        bool `json:"completed"`
	TimeSpentSeconds int  `json:"time_spent_seconds"`
	PointsEarned     int  `json:"points_earned"`
}

// Record is the mutable per-(child, course) progress document. The
// percentage and IsCompleted fields are derived from Completions and the
// course tree; they are recomputed on every mutation, never stored
// independently of their inputs.
type Record struct {
	Completions          map[string]LessonCompletion `json:"completions"`
	CompletionPercentage float64                     `json:"completion_percentage"`
	IsCompleted          bool                        `json:"is_completed"`
	CurrentModuleID      string                      `json:"current_module_id,omitempty"`
	CurrentLessonID      string                      `json:"current_lesson_id,omitempty"`
	EnrolledAt           time.Time                   `json:"enrolled_at"`
	LastAccessedAt       time.Time                   `json:"last_accessed_at"`
}

// NewRecord creates an empty record at enrollment time.
func NewRecord(now time.Time) Record {
	return Record{
		Completions:    make(map[string]LessonCompletion),
		EnrolledAt:     now,
		LastAccessedAt: now,
	}
}

// Recompute refreshes the derived aggregates against the course tree. Only
// completions for lessons that still exist in the course count.
func (r *Record) Recompute(course content.Course) {
	total := course.TotalLessons()
	if total == 0 {
		r.CompletionPercentage = 0
		r.IsCompleted = false
		return
	}

	done := 0
	for _, m := range course.Modules {
		for _, l := range m.Lessons {
			if c, ok := r.Completions[l.ID]; ok && c.Completed {
				done++
			}
		}
	}

	r.CompletionPercentage = 100 * float64(done) / float64(total)
	r.IsCompleted = done == total
}

// TotalPoints sums the points earned across completed lessons.
func (r *Record) TotalPoints() int {
	total := 0
	for _, c := range r.Completions {
		total += c.PointsEarned
	}
	return total
}

// TotalTimeSeconds sums time spent across lessons.
func (r *Record) TotalTimeSeconds() int {
	total := 0
	for _, c := range r.Completions {
		total += c.TimeSpentSeconds
	}
	return total
}

// Clone returns a deep copy, used for save snapshots so asynchronous
// persistence never races a live mutation.
func (r Record) Clone() Record {
	out := r
	out.Completions = make(map[string]LessonCompletion, len(r.Completions))
	for id, c := range r.Completions {
		out.Completions[id] = c
	}
	return out
}
