package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartwood-edu/heartwood/internal/content"
	"github.com/heartwood-edu/heartwood/internal/quiz"
	"github.com/heartwood-edu/heartwood/internal/realtime"
)

// Answer records a pending answer for the current quiz lesson. Answers are
// held in memory only; navigating away discards them.
func (s *Session) Answer(questionID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lesson := s.currentLessonLocked()
	if lesson.Type != content.LessonQuiz {
		return fmt.Errorf("lesson %s is not a quiz", lesson.ID)
	}
	for _, q := range lesson.Quiz.Questions {
		if q.ID == questionID {
			s.answers[questionID] = optionID
			return nil
		}
	}
	return fmt.Errorf("question %s is not part of lesson %s", questionID, lesson.ID)
}

// Answered returns how many questions of the current quiz have pending
// answers, letting callers gate the submit affordance.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// SubmitQuiz scores the pending answers for the current quiz lesson and, on
// a full submission, completes the lesson with the awarded points. A partial
// submission is rejected with quiz.ErrIncompleteSubmission and nothing
// changes.
func (s *Session) SubmitQuiz(ctx context.Context) (quiz.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lesson := s.currentLessonLocked()
	if lesson.Type != content.LessonQuiz {
		return quiz.Result{}, fmt.Errorf("lesson %s is not a quiz", lesson.ID)
	}

	result, err := quiz.Score(*lesson.Quiz, s.answers, lesson.PointsReward)
	if err != nil {
		return quiz.Result{}, err
	}

	if err := s.completeLocked(lesson, result.PointsAwarded); err != nil {
		return quiz.Result{}, err
	}
	s.answers = make(map[string]string)
	return result, nil
}

// CompleteCurrent marks the current video or reading lesson completed with
// its full reward. Quizzes must go through SubmitQuiz.
func (s *Session) CompleteCurrent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lesson := s.currentLessonLocked()
	if lesson.Type == content.LessonQuiz {
		return fmt.Errorf("quiz lesson %s completes through SubmitQuiz", lesson.ID)
	}
	return s.completeLocked(lesson, lesson.PointsReward)
}

// PlaybackStarted reports that video playback began: the timer starts, and
// under the on-open trigger policy the lesson completes immediately.
func (s *Session) PlaybackStarted(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lesson := s.currentLessonLocked()
	if lesson.Type != content.LessonVideo {
		return fmt.Errorf("lesson %s is not a video", lesson.ID)
	}
	s.startTimerLocked()
	if s.triggers[content.LessonVideo] == TriggerOnOpen {
		return s.completeLocked(lesson, lesson.PointsReward)
	}
	return nil
}

// PlaybackEnded reports that video playback finished: the timer stops, and
// under the on-finish trigger policy the lesson completes.
func (s *Session) PlaybackEnded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lesson := s.currentLessonLocked()
	if lesson.Type != content.LessonVideo {
		return fmt.Errorf("lesson %s is not a video", lesson.ID)
	}
	s.stopTimerLocked()
	if s.triggers[content.LessonVideo] == TriggerOnFinish {
		return s.completeLocked(lesson, lesson.PointsReward)
	}
	return nil
}

func (s *Session) currentLessonLocked() content.Lesson {
	return s.course.Modules[s.moduleIdx].Lessons[s.lessonIdx]
}

// completeLocked runs the shared completion path: mutate the record through
// the tracker, emit the celebration event, then persist optimistically in
// the background. A failed save never rolls the local record back — losing
// a child's on-screen progress is worse than a transient save lag.
func (s *Session) completeLocked(lesson content.Lesson, points int) error {
	delta, err := s.tracker.CompleteLesson(lesson.ID, points, s.elapsed)
	if err != nil {
		return err
	}

	if s.events != nil {
		s.events.Publish(realtime.Event{
			Type:     realtime.EventCelebration,
			ChildID:  s.childID,
			CourseID: s.course.ID,
			LessonID: lesson.ID,
			Points:   s.record.Completions[lesson.ID].PointsEarned,
		})
		if s.record.IsCompleted {
			s.events.Publish(realtime.Event{
				Type:     realtime.EventCourseCompleted,
				ChildID:  s.childID,
				CourseID: s.course.ID,
			})
		}
	}

	s.scheduleSaveLocked(delta)
	return nil
}

// scheduleSaveLocked snapshots the record and saves it without holding the
// lock or blocking navigation. Failures are surfaced through OnSaveFailure.
func (s *Session) scheduleSaveLocked(pointsDelta int) {
	if s.store == nil {
		return
	}

	rec := s.record.Clone()
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		defer cancel()

		if err := s.store.SaveProgress(ctx, s.childID, s.course.ID, rec); err != nil {
			slog.Warn("progress save failed",
				"child_id", s.childID,
				"course_id", s.course.ID,
				"error", err,
			)
			if s.onSaveFailure != nil {
				s.onSaveFailure(err)
			}
			return
		}
		if pointsDelta != 0 {
			if _, err := s.store.AddPoints(ctx, s.childID, pointsDelta); err != nil {
				slog.Warn("points total update failed",
					"child_id", s.childID,
					"delta", pointsDelta,
					"error", err,
				)
				if s.onSaveFailure != nil {
					s.onSaveFailure(err)
				}
			}
		}
	}()
}
