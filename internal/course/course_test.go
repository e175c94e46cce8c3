package course

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testMeeting(t *testing.T) Meeting {
	t.Helper()
	days, err := ParseWeekdays("MWF")
	require.NoError(t, err)
	return Meeting{
		Days:      days,
		Start:     TimeOfDay{Hour: 9, Minute: 0},
		End:       TimeOfDay{Hour: 9, Minute: 50},
		StartDate: Date{Year: 2026, Month: time.January, Day: 20},
		EndDate:   Date{Year: 2026, Month: time.May, Day: 8},
		Location:  "ECCR 200",
	}
}

func testCourse(t *testing.T) *Course {
	t.Helper()
	return &Course{
		Code:               "CSCI 2270 100",
		Name:               "Data Structures",
		Instructors:        []string{"Knuth, Donald"},
		Schedule:           Schedule{testMeeting(t)},
		Credits:            "4",
		SeatsTotal:         120,
		SeatsFilled:        95,
		EnrollmentStatus:   StatusOpen,
		SortKey:            "CSCI 2270 100",
		MutualExclusionKey: "CSCI 2270",
	}
}

func TestCourseValidate(t *testing.T) {
	require.NoError(t, testCourse(t).Validate())

	c := testCourse(t)
	c.Code = "  "
	require.ErrorIs(t, c.Validate(), ErrInvalid)

	c = testCourse(t)
	c.Name = ""
	require.ErrorIs(t, c.Validate(), ErrInvalid)

	c = testCourse(t)
	c.SeatsTotal = -1
	require.ErrorIs(t, c.Validate(), ErrInvalid)
}

func TestMeetingValidate(t *testing.T) {
	m := testMeeting(t)
	require.NoError(t, m.Validate())

	m = testMeeting(t)
	m.Days = Weekdays{}
	require.ErrorIs(t, m.Validate(), ErrInvalid)

	m = testMeeting(t)
	m.Start, m.End = m.End, m.Start
	require.ErrorIs(t, m.Validate(), ErrInvalid)
}

func TestMeetingJSON_FlattensSubterm(t *testing.T) {
	m := testMeeting(t)
	m.Subterm = FirstHalfTerm
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "MWF", raw["scheduleDays"])
	require.Equal(t, "09:00", raw["scheduleStartTime"])
	require.Equal(t, "2026-01-20", raw["scheduleStartDate"])
	require.Equal(t, float64(2), raw["scheduleTermCount"])
	require.Equal(t, []any{float64(0)}, raw["scheduleTerms"])
	require.Equal(t, "ECCR 200", raw["scheduleLocation"])

	var back Meeting
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, m, back)
}

func TestMeetingJSON_ZeroSubtermMeansFullTerm(t *testing.T) {
	data, err := json.Marshal(testMeeting(t))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, float64(1), raw["scheduleTermCount"])
	require.Equal(t, []any{float64(0)}, raw["scheduleTerms"])
}

func TestMeetingJSON_NullLocation(t *testing.T) {
	m := testMeeting(t)
	m.Location = ""
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "scheduleLocation")
	require.Nil(t, raw["scheduleLocation"])
}

func TestTermBefore(t *testing.T) {
	spring := &Term{Code: "Spring 2026", SortKey: []int{2026, 0}}
	fall := &Term{Code: "Fall 2026", SortKey: []int{2026, 1}}
	require.True(t, spring.Before(fall))
	require.False(t, fall.Before(spring))
}

func TestResult(t *testing.T) {
	r := NewResult()
	require.Error(t, r.SetTerm(nil))
	require.NoError(t, r.SetTerm(&Term{Code: "Fall 2026", Name: "Fall 2026", SortKey: []int{2026, 1}}))

	require.Error(t, r.AddCourse("", testCourse(t)))
	require.Error(t, r.AddCourse("12345", nil))
	require.NoError(t, r.AddCourse("12345", testCourse(t)))

	// Later course under the same key wins.
	other := testCourse(t)
	other.Name = "Data Structures (Honors)"
	require.NoError(t, r.AddCourse("12345", other))
	require.Equal(t, "Data Structures (Honors)", r.Courses["12345"].Name)
}
