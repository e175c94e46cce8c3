package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hyperschedule/scrapers/internal/course"
)

// Snapshot is the JSON document served to the frontend and written by the
// scrape command: the known terms, every course keyed by its course key
// and the completed keys of the current refine pass.
type Snapshot struct {
	Terms     map[string]*course.Term    `json:"terms"`
	Courses   map[string]json.RawMessage `json:"courses"`
	Completed []string                   `json:"completed"`
}

// BuildSnapshot assembles the snapshot for school from the store. The
// completed list is ordered by course code using numeric-aware collation,
// so "CSCI 2270" sorts after "CSCI 300".
func BuildSnapshot(ctx context.Context, s *Store, school string) (*Snapshot, error) {
	term, err := s.Term(ctx, school)
	if err != nil {
		return nil, err
	}
	courses, err := s.Courses(ctx, school)
	if err != nil {
		return nil, err
	}
	completed, err := s.Completed(ctx, school)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Terms:     map[string]*course.Term{},
		Courses:   courses,
		Completed: []string{},
	}
	if term != nil {
		snap.Terms[term.Code] = term
	}

	// Sort completed keys by the code of the course they refer to; keys
	// without a stored course fall back to the key itself.
	codes := make(map[string]string, len(completed))
	for key := range completed {
		codes[key] = key
		if payload, ok := courses[key]; ok {
			var c struct {
				Code string `json:"courseCode"`
			}
			if err := json.Unmarshal(payload, &c); err == nil && c.Code != "" {
				codes[key] = c.Code
			}
		}
		snap.Completed = append(snap.Completed, key)
	}
	coll := collate.New(language.English, collate.Numeric)
	sort.Slice(snap.Completed, func(i, j int) bool {
		a, b := snap.Completed[i], snap.Completed[j]
		if cmp := coll.CompareString(codes[a], codes[b]); cmp != 0 {
			return cmp < 0
		}
		return a < b
	})
	return snap, nil
}

// Encode renders the snapshot as indented JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}
