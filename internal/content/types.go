// Package content holds the read-only course tree (Course -> Module ->
// Lesson) and the sources that load it. Courses are authored externally;
// the engine never reorders or mutates them.
package content

// LessonType discriminates the lesson payload.
type LessonType string

const (
	LessonVideo   LessonType = "video"
	LessonQuiz    LessonType = "quiz"
	LessonReading LessonType = "reading"
)

// Course is the top of the content hierarchy. Module slice order is the
// pedagogical order and must match the Order fields.
type Course struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	AgeGroup    string   `yaml:"age_group" json:"ageGroup"`
	Modules     []Module `yaml:"modules" json:"modules"`
}

// Module groups an ordered run of lessons.
type Module struct {
	ID      string   `yaml:"id" json:"id"`
	Title   string   `yaml:"title" json:"title"`
	Order   int      `yaml:"order" json:"order"`
	Lessons []Lesson `yaml:"lessons" json:"lessons"`
}

// Lesson carries exactly one type-specific payload.
type Lesson struct {
	ID              string     `yaml:"id" json:"id"`
	Title           string     `yaml:"title" json:"title"`
	Order           int        `yaml:"order" json:"order"`
	Type            LessonType `yaml:"type" json:"type"`
	DurationMinutes int        `yaml:"duration_minutes" json:"durationMinutes"`
	PointsReward    int        `yaml:"points_reward" json:"pointsReward"`

	Video   *Video   `yaml:"video,omitempty" json:"video,omitempty"`
	Quiz    *Quiz    `yaml:"quiz,omitempty" json:"quiz,omitempty"`
	Reading *Reading `yaml:"reading,omitempty" json:"reading,omitempty"`
}

// Video is the payload of a video lesson.
type Video struct {
	URL string `yaml:"url" json:"videoUrl"`
}

// Reading is the payload of a reading lesson.
type Reading struct {
	Content string `yaml:"content" json:"readingContent"`
}

// Quiz is the payload of a quiz lesson. PassingScore is a percentage (0-100).
type Quiz struct {
	Questions    []Question `yaml:"questions" json:"questions"`
	PassingScore int        `yaml:"passing_score" json:"passingScore"`
}

// Question has exactly one correct option.
type Question struct {
	ID      string   `yaml:"id" json:"id"`
	Text    string   `yaml:"text" json:"text"`
	Options []Option `yaml:"options" json:"options"`
}

// Option is a selectable answer.
type Option struct {
	ID        string `yaml:"id" json:"id"`
	Text      string `yaml:"text" json:"text"`
	IsCorrect bool   `yaml:"is_correct" json:"isCorrect"`
}

// TotalLessons counts lessons across all modules.
func (c Course) TotalLessons() int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.Lessons)
	}
	return n
}

// FindLesson locates a lesson anywhere in the course tree. It returns the
// owning module and the lesson, or false when the id is unknown.
func (c Course) FindLesson(lessonID string) (Module, Lesson, bool) {
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			if l.ID == lessonID {
				return m, l, true
			}
		}
	}
	return Module{}, Lesson{}, false
}

// LessonAt returns the lesson at (moduleIdx, lessonIdx).
func (c Course) LessonAt(moduleIdx, lessonIdx int) (Lesson, bool) {
	if moduleIdx < 0 || moduleIdx >= len(c.Modules) {
		return Lesson{}, false
	}
	m := c.Modules[moduleIdx]
	if lessonIdx < 0 || lessonIdx >= len(m.Lessons) {
		return Lesson{}, false
	}
	return m.Lessons[lessonIdx], true
}

// CorrectOption returns the id of the question's correct option.
func (q Question) CorrectOption() (string, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.ID, true
		}
	}
	return "", false
}
