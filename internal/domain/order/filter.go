package order

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// DayFilter restricts order listings to orders created on one UTC calendar day.
type DayFilter struct {
	From time.Time
	To   time.Time
}

func ParseDay(s string) (*DayFilter, error) {
	if s == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation(dayLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("order: date must look like %s: %w", dayLayout, err)
	}
	return &DayFilter{From: day, To: day.AddDate(0, 0, 1)}, nil
}

func (f *DayFilter) Contains(t time.Time) bool {
	if f == nil {
		return true
	}
	t = t.UTC()
	return !t.Before(f.From) && t.Before(f.To)
}
