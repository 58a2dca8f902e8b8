package model

import (
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// SearchCriteria is the raw scan request as it arrives from the command line.
// Dates stay as strings until Window validates them.
type SearchCriteria struct {
	DateAfter  string
	DateBefore string
	BatchSize  int
	Limit      int
}

// DateWindow is an inclusive range of whole calendar days.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

func DefaultCriteria(now time.Time, windowDays, batchSize int) SearchCriteria {
	return SearchCriteria{
		DateAfter:  now.AddDate(0, 0, -windowDays).Format(DateLayout),
		DateBefore: now.Format(DateLayout),
		BatchSize:  batchSize,
	}
}

// ParseDate accepts only YYYY-MM-DD strings that format back to themselves.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Value: value, Reason: "invalid date format, use YYYY-MM-DD"}
	}
	if t.Format(DateLayout) != value {
		return time.Time{}, &ValidationError{Field: field, Value: value, Reason: "invalid date format, use YYYY-MM-DD"}
	}
	return t, nil
}

// Validate checks every field without touching the store.
func (c SearchCriteria) Validate() error {
	_, err := c.Window()
	if err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return &ValidationError{Field: "batch-size", Value: itoa(c.BatchSize), Reason: "must be a positive integer"}
	}
	if c.Limit < 0 {
		return &ValidationError{Field: "limit", Value: itoa(c.Limit), Reason: "must be a non-negative integer"}
	}
	return nil
}

// Window turns the two dates into [after 00:00:00, before 23:59:59].
// An inverted range is rejected.
func (c SearchCriteria) Window() (DateWindow, error) {
	after, err := ParseDate("date-after", c.DateAfter)
	if err != nil {
		return DateWindow{}, err
	}
	before, err := ParseDate("date-before", c.DateBefore)
	if err != nil {
		return DateWindow{}, err
	}
	if after.After(before) {
		return DateWindow{}, &ValidationError{
			Field:  "date-after",
			Value:  c.DateAfter,
			Reason: "must not be later than date-before " + c.DateBefore,
		}
	}
	return DateWindow{
		Start: after,
		End:   before.Add(24*time.Hour - time.Second),
	}, nil
}

func (w DateWindow) StartString() string {
	return w.Start.Format(DateTimeLayout)
}

func (w DateWindow) EndString() string {
	return w.End.Format(DateTimeLayout)
}

func (w DateWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
