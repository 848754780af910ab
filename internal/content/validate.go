package content

import (
	"fmt"
	"sort"
)

// IntegrityError reports authored course data that violates the ordering or
// uniqueness invariants. It is fatal for the affected course: the engine
// refuses to guess a fallback order.
type IntegrityError struct {
	CourseID string
	Detail   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("course %s: integrity violation: %s", e.CourseID, e.Detail)
}

// Validate checks the structural invariants of a course tree. Module orders
// must be unique and dense within the course, lesson orders unique and dense
// within each module, every quiz question must have exactly one correct
// option, and counts/durations must be non-negative.
func Validate(c Course) error {
	fail := func(format string, args ...any) error {
		return &IntegrityError{CourseID: c.ID, Detail: fmt.Sprintf(format, args...)}
	}

	if c.ID == "" {
		return fail("missing course id")
	}

	moduleOrders := make([]int, 0, len(c.Modules))
	seenModules := make(map[string]bool, len(c.Modules))
	for _, m := range c.Modules {
		if m.ID == "" {
			return fail("module with empty id")
		}
		if seenModules[m.ID] {
			return fail("duplicate module id %s", m.ID)
		}
		seenModules[m.ID] = true
		moduleOrders = append(moduleOrders, m.Order)

		if err := validateModule(c, m, fail); err != nil {
			return err
		}
	}
	if err := checkDense(moduleOrders, fmt.Sprintf("module orders in course %s", c.ID)); err != nil {
		return fail("%v", err)
	}

	return nil
}

func validateModule(c Course, m Module, fail func(string, ...any) error) error {
	lessonOrders := make([]int, 0, len(m.Lessons))
	seenLessons := make(map[string]bool, len(m.Lessons))
	for _, l := range m.Lessons {
		if l.ID == "" {
			return fail("module %s: lesson with empty id", m.ID)
		}
		if seenLessons[l.ID] {
			return fail("module %s: duplicate lesson id %s", m.ID, l.ID)
		}
		seenLessons[l.ID] = true
		lessonOrders = append(lessonOrders, l.Order)

		if err := validateLesson(m, l, fail); err != nil {
			return err
		}
	}
	if err := checkDense(lessonOrders, fmt.Sprintf("lesson orders in module %s", m.ID)); err != nil {
		return fail("%v", err)
	}
	return nil
}

func validateLesson(m Module, l Lesson, fail func(string, ...any) error) error {
	if l.DurationMinutes < 0 {
		return fail("lesson %s: negative duration", l.ID)
	}
	if l.PointsReward < 0 {
		return fail("lesson %s: negative points reward", l.ID)
	}

	payloads := 0
	if l.Video != nil {
		payloads++
	}
	if l.Quiz != nil {
		payloads++
	}
	if l.Reading != nil {
		payloads++
	}

	switch l.Type {
	case LessonVideo:
		if l.Video == nil || payloads != 1 {
			return fail("lesson %s: video lesson requires exactly a video payload", l.ID)
		}
	case LessonQuiz:
		if l.Quiz == nil || payloads != 1 {
			return fail("lesson %s: quiz lesson requires exactly a quiz payload", l.ID)
		}
		if err := validateQuiz(l, fail); err != nil {
			return err
		}
	case LessonReading:
		if l.Reading == nil || payloads != 1 {
			return fail("lesson %s: reading lesson requires exactly a reading payload", l.ID)
		}
	default:
		return fail("lesson %s: unknown lesson type %q", l.ID, l.Type)
	}
	return nil
}

func validateQuiz(l Lesson, fail func(string, ...any) error) error {
	q := l.Quiz
	if len(q.Questions) == 0 {
		return fail("lesson %s: quiz has no questions", l.ID)
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		return fail("lesson %s: passing score %d out of range", l.ID, q.PassingScore)
	}
	for _, question := range q.Questions {
		correct := 0
		for _, o := range question.Options {
			if o.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fail("lesson %s: question %s has %d correct options, want 1", l.ID, question.ID, correct)
		}
	}
	return nil
}

// checkDense verifies a set of order values is unique with no gaps. Both
// zero-based and one-based numbering are accepted.
func checkDense(orders []int, what string) error {
	if len(orders) == 0 {
		return nil
	}
	sorted := make([]int, len(orders))
	copy(sorted, orders)
	sort.Ints(sorted)

	if sorted[0] != 0 && sorted[0] != 1 {
		return fmt.Errorf("%s: must start at 0 or 1, got %d", what, sorted[0])
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return fmt.Errorf("%s: duplicate order %d", what, sorted[i])
		}
		if sorted[i] != sorted[i-1]+1 {
			return fmt.Errorf("%s: gap between %d and %d", what, sorted[i-1], sorted[i])
		}
	}
	return nil
}
