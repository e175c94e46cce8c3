package cuboulder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperschedule/scrapers/internal/course"
)

var (
	locationInRe   = regexp.MustCompile(`.+? in (.+)`)
	locationSemiRe = regexp.MustCompile(`.+?; (.+)`)
	dateRangeRe    = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) through (\d{4}-\d{2}-\d{2})$`)
	sectionStatRe  = regexp.MustCompile(`(?s)Nbr:\s*([0-9]+).*?Status:\s*([A-Z][a-z]*)`)
	digitsRe       = regexp.MustCompile(`\d+`)
	termNameRe     = regexp.MustCompile(`^(Fall|Spring) (\d{4})$`)
)

// blockTags end a line when flattening HTML to text, so per-line fields
// (instructor lists, section tables) survive the conversion.
var blockTags = map[string]bool{
	"br": true, "div": true, "p": true, "li": true, "tr": true,
}

// htmlToText returns only the textual content of an HTML fragment.
func htmlToText(fragment string) (string, error) {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html fragment: %w", err)
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(root)
	return b.String(), nil
}

// parseLocation extracts the meeting location from the meeting_html field.
// Plain strings pass through; HTML comes in the forms "... in LOCATION"
// or "...; LOCATION".
func parseLocation(meetingHTML string) (string, error) {
	if !strings.HasPrefix(meetingHTML, "<") {
		return meetingHTML, nil
	}
	text, err := htmlToText(meetingHTML)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if m := locationInRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), nil
	}
	if m := locationSemiRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), nil
	}
	return "", fmt.Errorf("unrecognized meeting location %q", meetingHTML)
}

// parseDates extracts the start and end dates from the dates_html field,
// which reads "YYYY-MM-DD through YYYY-MM-DD".
func parseDates(datesHTML string) (start, end course.Date, err error) {
	m := dateRangeRe.FindStringSubmatch(strings.TrimSpace(datesHTML))
	if m == nil {
		return course.Date{}, course.Date{}, fmt.Errorf("unrecognized date range %q", datesHTML)
	}
	if start, err = course.ParseDate(m[1]); err != nil {
		return course.Date{}, course.Date{}, err
	}
	if end, err = course.ParseDate(m[2]); err != nil {
		return course.Date{}, course.Date{}, err
	}
	return start, end, nil
}

// parseClockTime converts the API's hmm/hhmm times into a TimeOfDay.
func parseClockTime(s string) (course.TimeOfDay, error) {
	if len(s) < 3 || len(s) > 4 {
		return course.TimeOfDay{}, fmt.Errorf("unrecognized clock time %q", s)
	}
	hours, err := strconv.Atoi(s[:len(s)-2])
	if err != nil {
		return course.TimeOfDay{}, fmt.Errorf("unrecognized clock time %q", s)
	}
	minutes, err := strconv.Atoi(s[len(s)-2:])
	if err != nil || hours > 23 || minutes > 59 {
		return course.TimeOfDay{}, fmt.Errorf("unrecognized clock time %q", s)
	}
	return course.TimeOfDay{Hour: hours, Minute: minutes}, nil
}

// parseInstructors extracts instructor names, one per line, from the
// instructordetail_html field.
func parseInstructors(instructorHTML string) ([]string, error) {
	text, err := htmlToText(instructorHTML)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// parseSeats extracts total seats, filled seats and the waitlist length
// (nil when the section has no waitlist) from the seats field. The field
// reads "<total> <available> [<waitlist>]" with assorted labels between
// the numbers; an "of" variant carries a trailing number that is not part
// of the triple. Available counts down, so filled = total - available.
func parseSeats(seats string) (total, filled int, waitlist *int, err error) {
	var numbers []*int
	for _, d := range digitsRe.FindAllString(seats, -1) {
		n, convErr := strconv.Atoi(d)
		if convErr != nil {
			return 0, 0, nil, fmt.Errorf("unrecognized seats field %q", seats)
		}
		numbers = append(numbers, &n)
	}
	if !strings.Contains(seats, "Waitlist") {
		numbers = append(numbers, nil)
	}
	if strings.Contains(seats, "of") && len(numbers) > 0 {
		numbers = numbers[:len(numbers)-1]
	}
	if len(numbers) != 3 || numbers[0] == nil || numbers[1] == nil {
		return 0, 0, nil, fmt.Errorf("unrecognized seats field %q", seats)
	}
	total = *numbers[0]
	filled = total - *numbers[1]
	waitlist = numbers[2]
	return total, filled, waitlist, nil
}

// parseStatus extracts the enrollment status of the section with the
// given CRN from the all_sections field, which lists every section as
// "Nbr: <crn> ... Status: <Status>".
func parseStatus(sectionsHTML, crn string) (course.EnrollmentStatus, error) {
	text, err := htmlToText(sectionsHTML)
	if err != nil {
		return "", err
	}
	for _, m := range sectionStatRe.FindAllStringSubmatch(text, -1) {
		if m[1] == crn {
			return course.EnrollmentStatus(strings.ToLower(m[2])), nil
		}
	}
	return "", fmt.Errorf("no status for crn %s in section listing", crn)
}

// termSortKey orders srcdb entries chronologically: (year, Fall after
// Spring). Names that are not "<Fall|Spring> <year>" sort first.
func termSortKey(name string) []int {
	m := termNameRe.FindStringSubmatch(name)
	if m == nil {
		return []int{0, 0}
	}
	year, _ := strconv.Atoi(m[2])
	fall := 0
	if m[1] == "Fall" {
		fall = 1
	}
	return []int{year, fall}
}

func sortKeyLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
