// Package cuboulder scrapes the University of Colorado Boulder course
// catalog at https://classes.colorado.edu/.
//
// Basic course information is available from a JSON search API, but full
// details require one request per section, so passes are resumable and
// the runtime fetches details for only as many sections as fit in the
// pass deadline. Sections are keyed by CRN; the API also requires the
// course code alongside the CRN to return a full response, and terms are
// identified by "srcdb" numbers that only appear in JavaScript embedded
// on the home page.
package cuboulder

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/hyperschedule/scrapers/internal/course"
	"github.com/hyperschedule/scrapers/internal/fetch"
	"github.com/hyperschedule/scrapers/internal/scraper"
)

const defaultBaseURL = "https://classes.colorado.edu"

func init() {
	scraper.Register("cuboulder", func(client *fetch.Client, opts map[string]string) (scraper.Source, error) {
		return New(client, opts)
	})
}

// Scraper implements scraper.Source for CU Boulder.
type Scraper struct {
	client  *fetch.Client
	baseURL string

	// srcdb identifies the term being scraped. Written by Discover before
	// any Fetch call of the same pass.
	srcdb string
}

// New builds the scraper. Recognized options: base_url.
func New(client *fetch.Client, opts map[string]string) (*Scraper, error) {
	if client == nil {
		return nil, fmt.Errorf("cuboulder: nil fetch client")
	}
	s := &Scraper{client: client, baseURL: defaultBaseURL}
	if v, ok := opts["base_url"]; ok && v != "" {
		s.baseURL = v
	}
	return s, nil
}

// srcdbRe grabs the term table out of the JavaScript on the home page; it
// is not returned by the API.
var srcdbRe = regexp.MustCompile(`srcDBs: (.+),\n`)

type srcdbInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Discover finds the newest term and lists every section it offers,
// keyed by CRN with the course code as hint.
func (s *Scraper) Discover(ctx context.Context) (*course.Term, map[string]string, error) {
	page, err := s.client.GetText(ctx, s.baseURL+"/")
	if err != nil {
		return nil, nil, err
	}
	m := srcdbRe.FindStringSubmatch(page)
	if m == nil {
		return nil, nil, fmt.Errorf("no srcDBs table on %s", s.baseURL)
	}
	var infos []srcdbInfo
	if err := json.Unmarshal([]byte(m[1]), &infos); err != nil {
		return nil, nil, fmt.Errorf("decode srcDBs table: %w", err)
	}
	if len(infos) == 0 {
		return nil, nil, fmt.Errorf("empty srcDBs table on %s", s.baseURL)
	}
	best := infos[0]
	for _, info := range infos[1:] {
		if sortKeyLess(termSortKey(best.Name), termSortKey(info.Name)) {
			best = info
		}
	}
	s.srcdb = best.Code
	term := &course.Term{Code: best.Name, Name: best.Name, SortKey: termSortKey(best.Name)}

	available, err := s.search(ctx)
	if err != nil {
		return nil, nil, err
	}
	return term, available, nil
}

type searchResponse struct {
	Results []struct {
		CRN  string `json:"crn"`
		Code string `json:"code"`
	} `json:"results"`
}

func (s *Scraper) search(ctx context.Context) (map[string]string, error) {
	body := map[string]any{
		"other":    map[string]any{"srcdb": s.srcdb},
		"criteria": []any{},
	}
	var resp searchResponse
	if err := s.client.PostJSON(ctx, s.baseURL+"/api/?page=fose&route=search", body, &resp); err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}
	available := make(map[string]string, len(resp.Results))
	for _, r := range resp.Results {
		available[r.CRN] = r.Code
	}
	return available, nil
}

// courseDetail is the details API response, narrowed to the fields the
// converter reads. Several fields are HTML strings inside the JSON, and
// meetingTimes is a stringified JSON blob with its own key naming.
type courseDetail struct {
	CRN            string       `json:"crn"`
	Code           string       `json:"code"`
	Section        string       `json:"section"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Hours          string       `json:"hours"`
	DatesHTML      string       `json:"dates_html"`
	MeetingHTML    string       `json:"meeting_html"`
	InstructorHTML string       `json:"instructordetail_html"`
	Seats          string       `json:"seats"`
	AllSections    string       `json:"all_sections"`
	AllInGroup     []groupEntry `json:"allInGroup"`
}

type groupEntry struct {
	CRN          string `json:"crn"`
	MeetingTimes string `json:"meetingTimes"`
}

// Fetch retrieves and converts full data for the section with the given
// CRN. hint is the course code from Discover.
func (s *Scraper) Fetch(ctx context.Context, crn, hint string) (*course.Course, error) {
	body := map[string]any{
		"group": "code:" + hint,
		"key":   "crn:" + crn,
		"srcdb": s.srcdb,
	}
	var detail courseDetail
	if err := s.client.PostJSON(ctx, s.baseURL+"/api/?page=fose&route=details", body, &detail); err != nil {
		return nil, fmt.Errorf("fetch details for crn %s: %w", crn, err)
	}
	c, err := convert(&detail)
	if err != nil {
		return nil, fmt.Errorf("convert crn %s: %w", crn, err)
	}
	return c, nil
}
