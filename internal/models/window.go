package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is returned when a window's start falls after its end.
var ErrInvalidWindow = errors.New("invalid date window")

// DateLayout is the day-granularity wire format for dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts a day by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DateWindow is an inclusive [Start, End] range of calendar days.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateWindow builds a window from two days. A start after the end is an error;
// the bounds are never swapped.
func NewDateWindow(start, end time.Time) (DateWindow, error) {
	w := DateWindow{Start: Day(start), End: Day(end)}
	if err := w.Validate(); err != nil {
		return DateWindow{}, err
	}
	return w, nil
}

// Validate checks Start <= End.
func (w DateWindow) Validate() error {
	if Day(w.Start).After(Day(w.End)) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow,
			w.Start.Format(DateLayout), w.End.Format(DateLayout))
	}
	return nil
}

// Contains reports whether t's calendar day falls inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(w.Start)) && !d.After(Day(w.End))
}

// Days is the number of calendar days covered, counting both ends.
func (w DateWindow) Days() int {
	return int(Day(w.End).Sub(Day(w.Start)).Hours()/24) + 1
}

// PreviousWindow returns the window of equal length ending the day before w starts.
func PreviousWindow(w DateWindow) DateWindow {
	n := w.Days()
	return DateWindow{
		Start: AddDays(w.Start, -n),
		End:   AddDays(w.Start, -1),
	}
}

// WeekStart returns the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekWindow returns the Monday-to-Sunday window containing t.
func WeekWindow(t time.Time) DateWindow {
	start := WeekStart(t)
	return DateWindow{Start: start, End: start.AddDate(0, 0, 6)}
}

func (w DateWindow) String() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}
