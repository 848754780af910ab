package progress

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Status is the 3-state classification of a course for one learner.
type Status int

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Priority is the sort key for course lists: not-started courses sort first
// to nudge engagement.
func (s Status) Priority() int {
	return int(s)
}

// Classify derives a status from a record. A nil record means the learner
// never opened the course.
func Classify(r *Record) Status {
	switch {
	case r == nil || r.CompletionPercentage == 0:
		return StatusNotStarted
	case r.CompletionPercentage >= 100:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// Overview is one row of a learner's course list: the course summary plus
// whatever progress exists for it.
type Overview struct {
	CourseID   string
	Title      string
	EnrolledAt time.Time
	Record     *Record // nil when no progress exists yet
}

// Status classifies the row.
func (o Overview) Status() Status {
	return Classify(o.Record)
}

// Percentage returns the completion percentage, 0 for an absent record.
func (o Overview) Percentage() float64 {
	if o.Record == nil {
		return 0
	}
	return o.Record.CompletionPercentage
}

// lastActivity is LastAccessedAt falling back to enrollment time.
func (o Overview) lastActivity() time.Time {
	if o.Record != nil && !o.Record.LastAccessedAt.IsZero() {
		return o.Record.LastAccessedAt
	}
	return o.EnrolledAt
}

// SortOrder selects a course-list comparator.
type SortOrder int

const (
	// SortByPriority is the default: not-started first, then in-progress,
	// then completed, ties kept in input order.
	SortByPriority SortOrder = iota
	SortByTitle
	SortByPercentageDesc
	SortByRecentAccess
)

// titleCollator compares titles language-aware rather than by raw bytes.
var titleCollator = collate.New(language.Und, collate.IgnoreCase)

// Sort orders a course list in place. All comparators are stable: rows that
// compare equal keep their input order.
func Sort(list []Overview, order SortOrder) {
	var less func(i, j int) bool
	switch order {
	case SortByTitle:
		less = func(i, j int) bool {
			return titleCollator.CompareString(list[i].Title, list[j].Title) < 0
		}
	case SortByPercentageDesc:
		less = func(i, j int) bool {
			return list[i].Percentage() > list[j].Percentage()
		}
	case SortByRecentAccess:
		less = func(i, j int) bool {
			return list[i].lastActivity().After(list[j].lastActivity())
		}
	default:
		less = func(i, j int) bool {
			return list[i].Status().Priority() < list[j].Status().Priority()
		}
	}
	sort.SliceStable(list, less)
}

// Filter returns the rows matching a status, preserving order.
func Filter(list []Overview, status Status) []Overview {
	out := make([]Overview, 0, len(list))
	for _, o := range list {
		if o.Status() == status {
			out = append(out, o)
		}
	}
	return out
}
