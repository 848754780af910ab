package content

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCourseTTL = 15 * time.Minute

// CachedSource wraps a Source with a cache-aside Redis layer. Cache failures
// are logged and fall through to the inner source; a down cache never makes
// content unavailable.
type CachedSource struct {
	inner  Source
	client *redis.Client
	ttl    time.Duration
}

// NewCachedSource creates a caching decorator around inner.
func NewCachedSource(inner Source, client *redis.Client, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = defaultCourseTTL
	}
	return &CachedSource{inner: inner, client: client, ttl: ttl}
}

// LoadCourse returns the cached course when present, loading and caching it
// otherwise.
func (s *CachedSource) LoadCourse(ctx context.Context, courseID string) (Course, error) {
	key := courseKey(courseID)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var course Course
		if err := json.Unmarshal(data, &course); err == nil {
			return course, nil
		}
		slog.Warn("corrupt cached course, reloading", "course_id", courseID)
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("course cache read failed", "course_id", courseID, "error", err)
	}

	course, err := s.inner.LoadCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}

	if data, err := json.Marshal(course); err == nil {
		if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
			slog.Warn("course cache write failed", "course_id", courseID, "error", err)
		}
	}
	return course, nil
}

// ListCourses always hits the inner source; listings are cheap and rarely hot.
func (s *CachedSource) ListCourses(ctx context.Context) ([]Course, error) {
	return s.inner.ListCourses(ctx)
}

// Invalidate drops a cached course after re-authoring.
func (s *CachedSource) Invalidate(ctx context.Context, courseID string) error {
	return s.client.Del(ctx, courseKey(courseID)).Err()
}

func courseKey(courseID string) string {
	return "content:course:" + courseID
}
