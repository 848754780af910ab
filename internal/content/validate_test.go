package content_test

import (
	"errors"
	"testing"

	"github.com/heartwood-edu/heartwood/internal/content"
)

func validCourse() content.Course {
	return content.Course{
		ID:       "kindness-101",
		Title:    "Kindness 101",
		AgeGroup: "6-8",
		Modules: []content.Module{
			{
				ID:    "m1",
				Title: "What is kindness?",
				Order: 1,
				Lessons: []content.Lesson{
					{
						ID: "l1", Title: "Watch: sharing", Order: 1, Type: content.LessonVideo,
						DurationMinutes: 5, PointsReward: 100,
						Video: &content.Video{URL: "https://cdn.example.com/sharing.mp4"},
					},
					{
						ID: "l2", Title: "Quick check", Order: 2, Type: content.LessonQuiz,
						PointsReward: 100,
						Quiz: &content.Quiz{
							PassingScore: 70,
							Questions: []content.Question{
								{
									ID: "q1", Text: "Sharing is...",
									Options: []content.Option{
										{ID: "a", Text: "caring", IsCorrect: true},
										{ID: "b", Text: "boring"},
									},
								},
							},
						},
					},
				},
			},
			{
				ID:    "m2",
				Title: "Practicing kindness",
				Order: 2,
				Lessons: []content.Lesson{
					{
						ID: "l3", Title: "Read: helping out", Order: 1, Type: content.LessonReading,
						PointsReward: 50,
						Reading:      &content.Reading{Content: "Helping others feels good..."},
					},
				},
			},
		},
	}
}

func TestValidate_ValidCourse(t *testing.T) {
	if err := content.Validate(validCourse()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*content.Course)
	}{
		{
			name:   "duplicate module order",
			mutate: func(c *content.Course) { c.Modules[1].Order = 1 },
		},
		{
			name:   "gapped module order",
			mutate: func(c *content.Course) { c.Modules[1].Order = 5 },
		},
		{
			name:   "duplicate lesson order",
			mutate: func(c *content.Course) { c.Modules[0].Lessons[1].Order = 1 },
		},
		{
			name:   "duplicate lesson id",
			mutate: func(c *content.Course) { c.Modules[0].Lessons[1].ID = "l1" },
		},
		{
			name:   "negative points reward",
			mutate: func(c *content.Course) { c.Modules[0].Lessons[0].PointsReward = -1 },
		},
		{
			name:   "video lesson without payload",
			mutate: func(c *content.Course) { c.Modules[0].Lessons[0].Video = nil },
		},
		{
			name: "two payloads on one lesson",
			mutate: func(c *content.Course) {
				c.Modules[0].Lessons[0].Reading = &content.Reading{Content: "x"}
			},
		},
		{
			name: "question with no correct option",
			mutate: func(c *content.Course) {
				c.Modules[0].Lessons[1].Quiz.Questions[0].Options[0].IsCorrect = false
			},
		},
		{
			name: "question with two correct options",
			mutate: func(c *content.Course) {
				c.Modules[0].Lessons[1].Quiz.Questions[0].Options[1].IsCorrect = true
			},
		},
		{
			name:   "passing score out of range",
			mutate: func(c *content.Course) { c.Modules[0].Lessons[1].Quiz.PassingScore = 101 },
		},
		{
			name:   "empty quiz",
			mutate: func(c *content.Course) { c.Modules[0].Lessons[1].Quiz.Questions = nil },
		},
		{
			name:   "unknown lesson type",
			mutate: func(c *content.Course) { c.Modules[0].Lessons[0].Type = "game" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course := validCourse()
			tt.mutate(&course)

			err := content.Validate(course)
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			var integrity *content.IntegrityError
			if !errors.As(err, &integrity) {
				t.Errorf("error = %v, want *IntegrityError", err)
			}
		})
	}
}

func TestCourse_TotalLessons(t *testing.T) {
	course := validCourse()
	if got := course.TotalLessons(); got != 3 {
		t.Errorf("TotalLessons() = %d, want 3", got)
	}
}

func TestCourse_FindLesson(t *testing.T) {
	course := validCourse()

	m, l, ok := course.FindLesson("l3")
	if !ok {
		t.Fatal("FindLesson(l3) not found")
	}
	if m.ID != "m2" || l.ID != "l3" {
		t.Errorf("FindLesson(l3) = (%s, %s), want (m2, l3)", m.ID, l.ID)
	}

	if _, _, ok := course.FindLesson("nope"); ok {
		t.Error("FindLesson(nope) should not be found")
	}
}
