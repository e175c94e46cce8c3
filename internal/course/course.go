// Package course defines the data model shared by all scrapers: courses,
// meetings, terms and the result envelope a scraper hands back to the
// runtime. The JSON field names follow the frontend API schema.
package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid marks maintainer misuse of the scraper API (malformed model
// values handed to the library). Callers can branch with errors.Is.
var ErrInvalid = errors.New("invalid course data")

// EnrollmentStatus is the registration state of a course section.
type EnrollmentStatus string

const (
	StatusOpen       EnrollmentStatus = "open"
	StatusClosed     EnrollmentStatus = "closed"
	StatusWaitlisted EnrollmentStatus = "waitlisted"
)

// Term identifies a semester. SortKey orders terms chronologically; later
// entries take precedence over earlier ones when comparing.
type Term struct {
	Code    string `json:"termCode"`
	Name    string `json:"termName"`
	SortKey []int  `json:"termSortKey"`
}

// Validate checks that the term is usable as a snapshot key.
func (t *Term) Validate() error {
	if t.Code == "" {
		return fmt.Errorf("%w: term has empty code", ErrInvalid)
	}
	return nil
}

// Before reports whether t sorts before other.
func (t *Term) Before(other *Term) bool {
	a, b := t.SortKey, other.SortKey
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Meeting is a single scheduled meeting time for a course, recurring over
// the days in Days between StartDate and EndDate. Subterm narrows the
// meeting to a fraction of the term (half-term courses and the like).
type Meeting struct {
	Days      Weekdays
	Start     TimeOfDay
	End       TimeOfDay
	StartDate Date
	EndDate   Date
	Location  string
	Subterm   Subterm
}

// Schedule is the set of all scheduled meeting times for a course.
type Schedule []Meeting

// Course is the core abstraction: one section of one university course.
// Multiple sections are represented by multiple Course values.
type Course struct {
	Code        string   `json:"courseCode"`
	Name        string   `json:"courseName"`
	Description string   `json:"courseDescription,omitempty"`
	Instructors []string `json:"courseInstructors"`
	TermCode    string   `json:"courseTerm,omitempty"`
	Schedule    Schedule `json:"courseSchedule"`
	Credits     string   `json:"courseCredits,omitempty"`
	SeatsTotal  int      `json:"courseSeatsTotal"`
	SeatsFilled int      `json:"courseSeatsFilled"`
	// WaitlistLength is nil when the school does not report a waitlist.
	WaitlistLength   *int             `json:"courseWaitlistLength"`
	EnrollmentStatus EnrollmentStatus `json:"courseEnrollmentStatus,omitempty"`
	// SortKey orders courses in the frontend listing. MutualExclusionKey
	// groups sections of the same course; the frontend allows at most one
	// of each group on a schedule.
	SortKey            string `json:"courseSortKey,omitempty"`
	MutualExclusionKey string `json:"courseMutualExclusionKey,omitempty"`
}

// Validate checks the invariants the frontend relies on.
func (c *Course) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: course has empty code", ErrInvalid)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: course %s has empty name", ErrInvalid, c.Code)
	}
	if c.SeatsFilled < 0 || c.SeatsTotal < 0 {
		return fmt.Errorf("%w: course %s has negative seat counts", ErrInvalid, c.Code)
	}
	for i := range c.Schedule {
		if err := c.Schedule[i].Validate(); err != nil {
			return fmt.Errorf("course %s: %w", c.Code, err)
		}
	}
	return nil
}

// Validate checks a single meeting for internal consistency.
func (m *Meeting) Validate() error {
	if m.Days.Empty() {
		return fmt.Errorf("%w: meeting has no days", ErrInvalid)
	}
	if !m.Start.Before(m.End) {
		return fmt.Errorf("%w: meeting ends (%s) before it starts (%s)", ErrInvalid, m.End, m.Start)
	}
	if err := m.Subterm.Validate(); err != nil {
		return err
	}
	return nil
}

// meetingJSON is the wire shape of a meeting in the frontend API.
type meetingJSON struct {
	Days      Weekdays  `json:"scheduleDays"`
	Start     TimeOfDay `json:"scheduleStartTime"`
	End       TimeOfDay `json:"scheduleEndTime"`
	StartDate Date      `json:"scheduleStartDate"`
	EndDate   Date      `json:"scheduleEndDate"`
	TermCount int       `json:"scheduleTermCount"`
	Terms     []int     `json:"scheduleTerms"`
	Location  *string   `json:"scheduleLocation"`
}

// MarshalJSON flattens the subterm into the scheduleTermCount and
// scheduleTerms fields the frontend expects.
func (m Meeting) MarshalJSON() ([]byte, error) {
	st := m.Subterm
	if st.Empty() {
		st = FullTerm
	}
	var loc *string
	if m.Location != "" {
		loc = &m.Location
	}
	return json.Marshal(meetingJSON{
		Days:      m.Days,
		Start:     m.Start,
		End:       m.End,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		TermCount: st.Parts(),
		Terms:     st.Indices(),
		Location:  loc,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *Meeting) UnmarshalJSON(data []byte) error {
	var mj meetingJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}
	st, err := NewSubtermFromIndices(mj.TermCount, mj.Terms)
	if err != nil {
		return err
	}
	m.Days = mj.Days
	m.Start = mj.Start
	m.End = mj.End
	m.StartDate = mj.StartDate
	m.EndDate = mj.EndDate
	m.Subterm = st
	if mj.Location != nil {
		m.Location = *mj.Location
	} else {
		m.Location = ""
	}
	return nil
}
