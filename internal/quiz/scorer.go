// Package quiz scores quiz submissions. Scoring is a pure function: same
// questions and answers always produce the same result, and nothing here
// mutates progress — callers feed the result into lesson completion.
package quiz

import (
	"errors"
	"fmt"

	"github.com/heartwood-edu/heartwood/internal/content"
)

// ErrIncompleteSubmission is returned when the answer set does not cover
// every question. Partial submissions are rejected, state unchanged.
var ErrIncompleteSubmission = errors.New("quiz: incomplete submission")

// Result is the outcome of scoring one submission.
type Result struct {
	Correct       int
	Total         int
	Score         float64 // 0-100, unrounded
	Passed        bool
	PointsAwarded int
}

// Score grades answers (questionID -> selected optionID) against the quiz.
// The pass boundary is inclusive: score >= PassingScore passes. A failed
// attempt still earns half the lesson reward, rounded down — partial credit
// keeps young learners motivated to retry.
func Score(q content.Quiz, answers map[string]string, pointsReward int) (Result, error) {
	total := len(q.Questions)
	if total == 0 {
		return Result{}, fmt.Errorf("quiz has no questions")
	}

	correct := 0
	for _, question := range q.Questions {
		selected, ok := answers[question.ID]
		if !ok || selected == "" {
			return Result{}, fmt.Errorf("%w: question %s unanswered", ErrIncompleteSubmission, question.ID)
		}
		if want, ok := question.CorrectOption(); ok && selected == want {
			correct++
		}
	}

	score := 100 * float64(correct) / float64(total)
	passed := score >= float64(q.PassingScore)

	points := pointsReward / 2
	if passed {
		points = pointsReward
	}

	return Result{
		Correct:       correct,
		Total:         total,
		Score:         score,
		Passed:        passed,
		PointsAwarded: points,
	}, nil
}
