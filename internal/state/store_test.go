package state

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperschedule/scrapers/internal/course"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestCourseRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	courses, err := s.Courses(ctx, "cuboulder")
	require.NoError(t, err)
	require.Empty(t, courses)

	require.NoError(t, s.PutCourse(ctx, "cuboulder", "10001", []byte(`{"courseCode":"CSCI 1300 100"}`)))
	require.NoError(t, s.PutCourse(ctx, "cuboulder", "10002", []byte(`{"courseCode":"CSCI 2270 100"}`)))
	// Replacing an existing key keeps the latest payload.
	require.NoError(t, s.PutCourse(ctx, "cuboulder", "10001", []byte(`{"courseCode":"CSCI 1300 200"}`)))

	courses, err = s.Courses(ctx, "cuboulder")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.JSONEq(t, `{"courseCode":"CSCI 1300 200"}`, string(courses["10001"]))

	// Courses are namespaced by school.
	other, err := s.Courses(ctx, "other")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestPruneCourses(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"1", "2", "3"} {
		require.NoError(t, s.PutCourse(ctx, "cuboulder", key, []byte(`{}`)))
		require.NoError(t, s.MarkCompleted(ctx, "cuboulder", key))
	}
	require.NoError(t, s.PutCourse(ctx, "other", "1", []byte(`{}`)))

	require.NoError(t, s.PruneCourses(ctx, "cuboulder", map[string]string{"1": "", "3": ""}))

	courses, err := s.Courses(ctx, "cuboulder")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.NotContains(t, courses, "2")

	completed, err := s.Completed(ctx, "cuboulder")
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"1": true, "3": true}, completed)

	// Other schools are untouched.
	other, err := s.Courses(ctx, "other")
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestCompletedLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.MarkCompleted(ctx, "cuboulder", "1"))
	require.NoError(t, s.MarkCompleted(ctx, "cuboulder", "1"))
	require.NoError(t, s.MarkCompleted(ctx, "cuboulder", "2"))

	completed, err := s.Completed(ctx, "cuboulder")
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"1": true, "2": true}, completed)

	require.NoError(t, s.ResetCompleted(ctx, "cuboulder"))
	completed, err = s.Completed(ctx, "cuboulder")
	require.NoError(t, err)
	require.Empty(t, completed)
}

func TestTermRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	term, err := s.Term(ctx, "cuboulder")
	require.NoError(t, err)
	require.Nil(t, term)

	want := &course.Term{Code: "Fall 2026", Name: "Fall 2026", SortKey: []int{2026, 1}}
	require.NoError(t, s.SetTerm(ctx, "cuboulder", want))

	term, err = s.Term(ctx, "cuboulder")
	require.NoError(t, err)
	require.Equal(t, want, term)

	// Setting again replaces.
	want2 := &course.Term{Code: "Spring 2027", Name: "Spring 2027", SortKey: []int{2027, 0}}
	require.NoError(t, s.SetTerm(ctx, "cuboulder", want2))
	term, err = s.Term(ctx, "cuboulder")
	require.NoError(t, err)
	require.Equal(t, want2, term)
}

func TestBuildSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetTerm(ctx, "cuboulder", &course.Term{Code: "Fall 2026", Name: "Fall 2026", SortKey: []int{2026, 1}}))
	put := func(key, code string) {
		require.NoError(t, s.PutCourse(ctx, "cuboulder", key, []byte(`{"courseCode":"`+code+`"}`)))
		require.NoError(t, s.MarkCompleted(ctx, "cuboulder", key))
	}
	put("b", "CSCI 2270 100")
	put("a", "CSCI 300 100")
	put("c", "ASEN 1022 010")
	// Completed key with no stored course sorts by the key itself.
	require.NoError(t, s.MarkCompleted(ctx, "cuboulder", "AAAA"))

	snap, err := BuildSnapshot(ctx, s, "cuboulder")
	require.NoError(t, err)
	require.Contains(t, snap.Terms, "Fall 2026")
	require.Len(t, snap.Courses, 3)
	// Numeric collation: 300 before 2270 within CSCI.
	require.Equal(t, []string{"AAAA", "c", "a", "b"}, snap.Completed)

	data, err := snap.Encode()
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, snap.Completed, decoded.Completed)
}

func TestBuildSnapshotEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap, err := BuildSnapshot(ctx, s, "cuboulder")
	require.NoError(t, err)
	require.NotNil(t, snap.Completed)

	// An empty completed set must serialize as [], not null.
	data, err := snap.Encode()
	require.NoError(t, err)
	require.Contains(t, string(data), `"completed": []`)
}
