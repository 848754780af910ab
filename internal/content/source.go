package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrCourseNotFound is returned when a course id is unknown to a source.
var ErrCourseNotFound = fmt.Errorf("course not found")

// Source supplies read-only course trees to the engine.
type Source interface {
	LoadCourse(ctx context.Context, courseID string) (Course, error)
	ListCourses(ctx context.Context) ([]Course, error)
}

// FileSource loads and caches course trees from YAML files on disk.
type FileSource struct {
	rootDir string
	courses map[string]Course
	mu      sync.RWMutex
}

// NewFileSource walks rootDir, loading every .yaml/.yml course file. A file
// that fails the integrity checks aborts loading: shipping a course with a
// broken lesson order is worse than failing startup.
func NewFileSource(rootDir string) (*FileSource, error) {
	s := &FileSource{
		rootDir: rootDir,
		courses: make(map[string]Course),
	}
	if err := s.loadAll(); err != nil {
		return nil, fmt.Errorf("loading courses: %w", err)
	}
	slog.Info("course content loaded", "courses", len(s.courses), "dir", rootDir)
	return s, nil
}

// LoadCourse returns a course by id.
func (s *FileSource) LoadCourse(_ context.Context, courseID string) (Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[courseID]
	if !ok {
		return Course{}, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	return c, nil
}

// ListCourses returns all loaded courses sorted by id.
func (s *FileSource) ListCourses(_ context.Context) ([]Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *FileSource) loadAll() error {
	return filepath.Walk(s.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		return s.loadCourseFile(path)
	})
}

func (s *FileSource) loadCourseFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var course Course
	if err := yaml.Unmarshal(data, &course); err != nil {
		slog.Warn("skipping invalid course YAML", "path", path, "error", err)
		return nil
	}
	if course.ID == "" {
		return nil // Not a course file
	}

	if err := Validate(course); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	s.mu.Lock()
	s.courses[course.ID] = course
	s.mu.Unlock()
	return nil
}
