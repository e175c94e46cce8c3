package course

import (
	"encoding/json"
	"fmt"
	"strings"
)

// dayLetters is the canonical day ordering: Monday through Sunday, with R
// for Thursday and U for Sunday.
const dayLetters = "MTWRFSU"

// Weekdays is a subset of the days of the week.
type Weekdays struct {
	set [7]bool
}

// ParseWeekdays builds a Weekdays from a string of day letters such as
// "MWF". Letters are case-insensitive; anything outside MTWRFSU is an
// error. Repeated letters are accepted.
func ParseWeekdays(s string) (Weekdays, error) {
	var w Weekdays
	for _, r := range strings.ToUpper(s) {
		i := strings.IndexRune(dayLetters, r)
		if i < 0 {
			return Weekdays{}, fmt.Errorf("%w: invalid weekday %q in %q", ErrInvalid, r, s)
		}
		w.set[i] = true
	}
	return w, nil
}

// WeekdayAt returns the single weekday at position i of the Monday-first
// week (0 = Monday, 6 = Sunday).
func WeekdayAt(i int) (Weekdays, error) {
	if i < 0 || i >= len(dayLetters) {
		return Weekdays{}, fmt.Errorf("%w: weekday index %d out of range", ErrInvalid, i)
	}
	var w Weekdays
	w.set[i] = true
	return w, nil
}

// Add merges the days of other into w.
func (w *Weekdays) Add(other Weekdays) {
	for i, on := range other.set {
		if on {
			w.set[i] = true
		}
	}
}

// Empty reports whether no days are selected.
func (w Weekdays) Empty() bool {
	return w == Weekdays{}
}

// String renders the days in canonical MTWRFSU order.
func (w Weekdays) String() string {
	var b strings.Builder
	for i, on := range w.set {
		if on {
			b.WriteByte(dayLetters[i])
		}
	}
	return b.String()
}

// MarshalJSON encodes the set as its canonical string form.
func (w Weekdays) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

// UnmarshalJSON decodes the canonical string form.
func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseWeekdays(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
