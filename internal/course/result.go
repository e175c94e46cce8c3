package course

import (
	"fmt"
	"log/slog"
)

// Result is what one scraper pass hands back to the runtime: the term the
// data belongs to plus every course discovered so far, keyed by the
// school's stable course key (CRN, section id or similar).
type Result struct {
	Term    *Term
	Courses map[string]*Course
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{Courses: make(map[string]*Course)}
}

// SetTerm records the term the result describes.
func (r *Result) SetTerm(t *Term) error {
	if t == nil {
		return fmt.Errorf("%w: SetTerm got nil term", ErrInvalid)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	r.Term = t
	return nil
}

// AddCourse records a course under the given key. A duplicate key is
// logged and the later course wins; an invalid course is rejected.
func (r *Result) AddCourse(key string, c *Course) error {
	if key == "" {
		return fmt.Errorf("%w: AddCourse got empty key", ErrInvalid)
	}
	if c == nil {
		return fmt.Errorf("%w: AddCourse got nil course", ErrInvalid)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if _, dup := r.Courses[key]; dup {
		slog.Warn("multiple courses with same key", "key", key, "code", c.Code)
	}
	r.Courses[key] = c
	return nil
}
