package cuboulder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperschedule/scrapers/internal/course"
)

// meetingTime is one entry of the stringified meetingTimes blob. meet_day
// indexes the Monday-first week.
type meetingTime struct {
	MeetDay   string `json:"meet_day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// convert maps a details API response onto the shared course model.
func convert(detail *courseDetail) (*course.Course, error) {
	var section *groupEntry
	for i := range detail.AllInGroup {
		if detail.AllInGroup[i].CRN == detail.CRN {
			section = &detail.AllInGroup[i]
			break
		}
	}
	if section == nil {
		return nil, fmt.Errorf("crn %s missing from its own group", detail.CRN)
	}

	startDate, endDate, err := parseDates(detail.DatesHTML)
	if err != nil {
		return nil, err
	}

	location := ""
	if detail.MeetingHTML != "" {
		if location, err = parseLocation(detail.MeetingHTML); err != nil {
			return nil, err
		}
	}

	var times []meetingTime
	if err := json.Unmarshal([]byte(section.MeetingTimes), &times); err != nil {
		return nil, fmt.Errorf("decode meeting times: %w", err)
	}
	schedule := make(course.Schedule, 0, len(times))
	for _, mt := range times {
		dayIndex, err := strconv.Atoi(mt.MeetDay)
		if err != nil {
			return nil, fmt.Errorf("unrecognized meeting day %q", mt.MeetDay)
		}
		days, err := course.WeekdayAt(dayIndex)
		if err != nil {
			return nil, err
		}
		start, err := parseClockTime(mt.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := parseClockTime(mt.EndTime)
		if err != nil {
			return nil, err
		}
		schedule = append(schedule, course.Meeting{
			Days:      days,
			Start:     start,
			End:       end,
			StartDate: startDate,
			EndDate:   endDate,
			Location:  location,
			Subterm:   course.FullTerm,
		})
	}

	instructors := []string{"TBD"}
	if detail.InstructorHTML != "" {
		if instructors, err = parseInstructors(detail.InstructorHTML); err != nil {
			return nil, err
		}
	}

	seatsTotal, seatsFilled, waitlist, err := parseSeats(detail.Seats)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(detail.AllSections, detail.CRN)
	if err != nil {
		return nil, err
	}

	code := detail.Code + " " + detail.Section
	return &course.Course{
		Code:               code,
		Name:               detail.Title,
		Description:        detail.Description,
		Instructors:        instructors,
		Schedule:           schedule,
		Credits:            credits(detail.Hours),
		SeatsTotal:         seatsTotal,
		SeatsFilled:        seatsFilled,
		WaitlistLength:     waitlist,
		EnrollmentStatus:   status,
		SortKey:            code,
		MutualExclusionKey: detail.Code,
	}, nil
}

// credits normalizes the hours field to a decimal string with at least
// one fractional digit, "3" and "3.0" both becoming "3.0". Missing or
// malformed hours become "0.0".
func credits(hours string) string {
	f, err := strconv.ParseFloat(hours, 64)
	if err != nil {
		return "0.0"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
