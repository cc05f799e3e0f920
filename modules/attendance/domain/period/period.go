package period

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("invalid date range")

const dateLayout = "2006-01-02"

// DateRange is an inclusive range of whole UTC days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: day(start), End: day(end)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Parse reads two YYYY-MM-DD dates.
func Parse(start, end string) (DateRange, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return DateRange{}, errors.Join(ErrInvalidRange, err)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return DateRange{}, errors.Join(ErrInvalidRange, err)
	}
	return New(s, e)
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() || r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days is the number of calendar days covered, both ends included.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r DateRange) Contains(t time.Time) bool {
	d := day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Previous returns the range of equal length ending the day before Start.
func (r DateRange) Previous() DateRange {
	end := r.Start.AddDate(0, 0, -1)
	return DateRange{
		Start: end.AddDate(0, 0, -(r.Days() - 1)),
		End:   end,
	}
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout)
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
