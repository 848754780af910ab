// Package session drives a single learner through one course: position in
// the module/lesson sequence, the per-visit timer, pending quiz answers and
// the hand-off of completions to the progress tracker and enrollment store.
// One Session per active lesson-viewing session; no concurrent mutation of
// the same progress record is expected beyond it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/heartwood-edu/heartwood/internal/content"
	"github.com/heartwood-edu/heartwood/internal/enrollment"
	"github.com/heartwood-edu/heartwood/internal/progress"
	"github.com/heartwood-edu/heartwood/internal/realtime"
)

const (
	defaultTickInterval = time.Second
	defaultSaveTimeout  = 10 * time.Second
)

// ErrInvalidNavigation is returned for navigation targets outside the
// allowed range, e.g. jumping to a lesson of another module. The session
// position is left unchanged.
var ErrInvalidNavigation = errors.New("session: invalid navigation target")

// Trigger selects when a lesson of a given type counts as completed.
type Trigger int

const (
	// TriggerOnFinish completes on the natural end of the lesson: video
	// playback finished, reading acknowledged.
	TriggerOnFinish Trigger = iota
	// TriggerOnOpen completes as soon as the lesson is opened or played.
	TriggerOnOpen
)

// TriggerPolicy maps lesson types to their completion trigger. Quizzes
// always complete through SubmitQuiz regardless of policy.
type TriggerPolicy map[content.LessonType]Trigger

// DefaultTriggers awards completion on finished playback and acknowledged
// reading.
func DefaultTriggers() TriggerPolicy {
	return TriggerPolicy{
		content.LessonVideo:   TriggerOnFinish,
		content.LessonReading: TriggerOnFinish,
	}
}

// Config holds the collaborators of a session.
type Config struct {
	ChildID string
	Course  content.Course
	// Record is the loaded progress record; nil starts a fresh one.
	Record *progress.Record
	// Store receives asynchronous progress saves; nil disables persistence.
	Store enrollment.Store
	// Events receives celebration/progress events; nil disables them.
	Events   realtime.Sink
	Triggers TriggerPolicy
	// OnSaveFailure is invoked when an asynchronous save fails. Local state
	// is retained either way; the caller owns the retry affordance.
	OnSaveFailure func(error)
	TickInterval  time.Duration
	SaveTimeout   time.Duration
}

// Session is the navigation state machine for one (child, course) pair.
type Session struct {
	childID  string
	course   content.Course
	record   *progress.Record
	tracker  *progress.Tracker
	store    enrollment.Store
	events   realtime.Sink
	triggers TriggerPolicy

	onSaveFailure func(error)
	tickInterval  time.Duration
	saveTimeout   time.Duration

	mu         sync.Mutex
	moduleIdx  int
	lessonIdx  int
	elapsed    int // seconds accumulated for the current lesson visit
	ticking    bool
	stopTick   chan struct{}
	answers    map[string]string // pending quiz answers, questionID -> optionID
	saves      sync.WaitGroup
	closed     bool
}

// New creates a session positioned at the record's resume pointer, or at the
// first lesson when none is set. A resume pointer that no longer references
// a lesson in the course tree is a data error, not silently repaired.
func New(cfg Config) (*Session, error) {
	if cfg.Course.TotalLessons() == 0 {
		return nil, fmt.Errorf("course %s has no lessons", cfg.Course.ID)
	}

	rec := cfg.Record
	if rec == nil {
		r := progress.NewRecord(time.Now())
		rec = &r
	}
	if rec.Completions == nil {
		rec.Completions = make(map[string]progress.LessonCompletion)
	}

	triggers := cfg.Triggers
	if triggers == nil {
		triggers = DefaultTriggers()
	}
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}
	saveTimeout := cfg.SaveTimeout
	if saveTimeout <= 0 {
		saveTimeout = defaultSaveTimeout
	}

	s := &Session{
		childID:       cfg.ChildID,
		course:        cfg.Course,
		record:        rec,
		tracker:       progress.NewTracker(cfg.Course, rec),
		store:         cfg.Store,
		events:        cfg.Events,
		triggers:      triggers,
		onSaveFailure: cfg.OnSaveFailure,
		tickInterval:  tick,
		saveTimeout:   saveTimeout,
		answers:       make(map[string]string),
	}

	if rec.CurrentLessonID != "" {
		mi, li, ok := s.locate(rec.CurrentLessonID)
		if !ok {
			return nil, fmt.Errorf("resume pointer %s not in course %s", rec.CurrentLessonID, cfg.Course.ID)
		}
		s.moduleIdx, s.lessonIdx = mi, li
	}

	return s, nil
}

// Current returns the module and lesson the session is positioned at.
func (s *Session) Current() (content.Module, content.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.course.Modules[s.moduleIdx]
	return m, m.Lessons[s.lessonIdx]
}

// Position returns the (moduleIdx, lessonIdx) pair.
func (s *Session) Position() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moduleIdx, s.lessonIdx
}

// Advance moves to the next lesson, crossing into the next module when the
// current one is exhausted. At the terminal lesson it is a no-op: course
// completion is a fixed point, not an error.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.course.Modules[s.moduleIdx]
	switch {
	case s.lessonIdx < len(m.Lessons)-1:
		s.lessonIdx++
	case s.moduleIdx < len(s.course.Modules)-1:
		s.moduleIdx++
		s.lessonIdx = 0
	default:
		return
	}
	s.enterLessonLocked()
}

// Retreat moves to the previous lesson, crossing back to the previous
// module's last lesson at a module boundary. At (0,0) it is a no-op.
func (s *Session) Retreat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.lessonIdx > 0:
		s.lessonIdx--
	case s.moduleIdx > 0:
		s.moduleIdx--
		s.lessonIdx = len(s.course.Modules[s.moduleIdx].Lessons) - 1
	default:
		return
	}
	s.enterLessonLocked()
}

// JumpTo selects a lesson directly. Only lessons of the current module are
// valid targets; anything else is rejected without moving.
func (s *Session) JumpTo(lessonID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.course.Modules[s.moduleIdx]
	for i, l := range m.Lessons {
		if l.ID == lessonID {
			if i != s.lessonIdx {
				s.lessonIdx = i
				s.enterLessonLocked()
			}
			return nil
		}
	}
	return fmt.Errorf("%w: lesson %s is not in module %s", ErrInvalidNavigation, lessonID, m.ID)
}

// enterLessonLocked resets per-lesson state after any successful move:
// the timer stops, the elapsed accumulator zeroes and pending quiz answers
// for the previous lesson are discarded with no persisted effect.
func (s *Session) enterLessonLocked() {
	s.stopTimerLocked()
	s.elapsed = 0
	s.answers = make(map[string]string)
	m := s.course.Modules[s.moduleIdx]
	s.tracker.Touch(m.ID, m.Lessons[s.lessonIdx].ID)
}

// CourseComplete reports whether the session sits at the terminal lesson
// with that lesson completed.
func (s *Session) CourseComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.moduleIdx != len(s.course.Modules)-1 {
		return false
	}
	m := s.course.Modules[s.moduleIdx]
	if s.lessonIdx != len(m.Lessons)-1 {
		return false
	}
	c, ok := s.record.Completions[m.Lessons[s.lessonIdx].ID]
	return ok && c.Completed
}

// Record exposes the in-memory progress record.
func (s *Session) Record() *progress.Record {
	return s.record
}

func (s *Session) locate(lessonID string) (int, int, bool) {
	for mi, m := range s.course.Modules {
		for li, l := range m.Lessons {
			if l.ID == lessonID {
				return mi, li, true
			}
		}
	}
	return 0, 0, false
}

// StartTimer begins the cooperative per-lesson tick. Starting an already
// running timer is a no-op.
func (s *Session) StartTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTimerLocked()
}

// PauseTimer stops the tick without resetting the accumulator.
func (s *Session) PauseTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// Elapsed returns the seconds accumulated for the current lesson visit.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

func (s *Session) startTimerLocked() {
	if s.ticking || s.closed {
		return
	}
	s.ticking = true
	stop := make(chan struct{})
	s.stopTick = stop

	go func() {
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.ticking {
					s.elapsed++
				}
				s.mu.Unlock()
			}
		}
	}()
}

func (s *Session) stopTimerLocked() {
	if !s.ticking {
		return
	}
	s.ticking = false
	close(s.stopTick)
	s.stopTick = nil
}

// Close tears the session down: the timer is stopped, pending saves are
// awaited, and the record (with its resume pointer) is written through one
// last time synchronously.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.stopTimerLocked()
	var rec progress.Record
	if s.store != nil {
		rec = s.record.Clone()
	}
	s.mu.Unlock()

	s.saves.Wait()

	if s.store == nil {
		return nil
	}
	if err := s.store.SaveProgress(ctx, s.childID, s.course.ID, rec); err != nil {
		return fmt.Errorf("final progress save: %w", err)
	}
	return nil
}
