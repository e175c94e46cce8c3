package cuboulder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperschedule/scrapers/internal/course"
)

// detailFixture mirrors the shape of a details API response: HTML strings
// inside the JSON and a stringified meetingTimes blob.
const detailFixture = `{
  "crn": "10001",
  "code": "CSCI 2270",
  "section": "100",
  "title": "Computer Science 2: Data Structures",
  "description": "Studies data abstractions and structures.",
  "hours": "4.0",
  "dates_html": "2026-08-24 through 2026-12-10",
  "meeting_html": "<div>MWF 9:05a-9:55a in ECCR 265</div>",
  "instructordetail_html": "<div class=\"instructor\">Gauss, Carl</div>",
  "seats": "Maximum Enrollment: 120 Seats Avail: 25 Waitlist Total: 3",
  "all_sections": "<div>Class Nbr: 10001 Status: Open</div><div>Class Nbr: 10002 Status: Waitlisted</div>",
  "allInGroup": [
    {"crn": "10001", "meetingTimes": "[{\"meet_day\":\"0\",\"start_time\":\"905\",\"end_time\":\"955\"},{\"meet_day\":\"2\",\"start_time\":\"905\",\"end_time\":\"955\"},{\"meet_day\":\"4\",\"start_time\":\"905\",\"end_time\":\"955\"}]"},
    {"crn": "10002", "meetingTimes": "[]"}
  ]
}`

func loadDetail(t *testing.T, raw string) *courseDetail {
	t.Helper()
	var detail courseDetail
	require.NoError(t, json.Unmarshal([]byte(raw), &detail))
	return &detail
}

func TestConvert(t *testing.T) {
	c, err := convert(loadDetail(t, detailFixture))
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	require.Equal(t, "CSCI 2270 100", c.Code)
	require.Equal(t, "Computer Science 2: Data Structures", c.Name)
	require.Equal(t, []string{"Gauss, Carl"}, c.Instructors)
	require.Equal(t, "4.0", c.Credits)
	require.Equal(t, 120, c.SeatsTotal)
	require.Equal(t, 95, c.SeatsFilled)
	require.NotNil(t, c.WaitlistLength)
	require.Equal(t, 3, *c.WaitlistLength)
	require.Equal(t, course.StatusOpen, c.EnrollmentStatus)
	require.Equal(t, "CSCI 2270 100", c.SortKey)
	require.Equal(t, "CSCI 2270", c.MutualExclusionKey)

	require.Len(t, c.Schedule, 3)
	m := c.Schedule[0]
	require.Equal(t, "M", m.Days.String())
	require.Equal(t, "09:05", m.Start.String())
	require.Equal(t, "09:55", m.End.String())
	require.Equal(t, "2026-08-24", m.StartDate.String())
	require.Equal(t, "2026-12-10", m.EndDate.String())
	require.Equal(t, "ECCR 265", m.Location)
	require.Equal(t, "W", c.Schedule[1].Days.String())
	require.Equal(t, "F", c.Schedule[2].Days.String())
}

func TestConvertDefaults(t *testing.T) {
	detail := loadDetail(t, detailFixture)
	detail.MeetingHTML = ""
	detail.InstructorHTML = ""
	detail.Hours = "not a number"

	c, err := convert(detail)
	require.NoError(t, err)
	require.Equal(t, []string{"TBD"}, c.Instructors)
	require.Equal(t, "0.0", c.Credits)
	require.Empty(t, c.Schedule[0].Location)
}

func TestCredits(t *testing.T) {
	for in, want := range map[string]string{
		"3":    "3.0",
		"4.0":  "4.0",
		"1.5":  "1.5",
		"0.25": "0.25",
		"":     "0.0",
		"TBD":  "0.0",
	} {
		require.Equal(t, want, credits(in), "hours %q", in)
	}
}

func TestConvertErrors(t *testing.T) {
	detail := loadDetail(t, detailFixture)
	detail.CRN = "99999"
	_, err := convert(detail)
	require.ErrorContains(t, err, "missing from its own group")

	detail = loadDetail(t, detailFixture)
	detail.DatesHTML = "sometime soon"
	_, err = convert(detail)
	require.Error(t, err)

	detail = loadDetail(t, detailFixture)
	detail.AllInGroup[0].MeetingTimes = "not json"
	_, err = convert(detail)
	require.ErrorContains(t, err, "decode meeting times")

	detail = loadDetail(t, detailFixture)
	detail.Seats = "unknown"
	_, err = convert(detail)
	require.Error(t, err)
}
