package domain

import (
	"strings"
	"time"

	"github.com/jinzhu/now"
)

type Filter string

const (
	FilterToday  Filter = "today"
	FilterWeek   Filter = "week"
	FilterMonth  Filter = "month"
	FilterCustom Filter = "custom"
	FilterAll    Filter = "all"
)

const (
	ChartScaleWeek  = "week"
	ChartScaleMonth = "month"
)

const DateLayout = "2006-01-02"

// DefaultMaxCustomDays caps a custom range when the window sets no limit.
const DefaultMaxCustomDays = 366

// ChartWindow sets the trailing series length used by the unbounded filter
// and the longest custom range accepted.
type ChartWindow struct {
	WeekDays      int
	MonthDays     int
	MaxCustomDays int
}

// Range is a resolved reporting window. Start and End are nil when totals
// are unbounded. The chart window is always bounded and half-open.
type Range struct {
	Filter     Filter
	Start      *time.Time
	End        *time.Time
	ChartStart time.Time
	ChartEnd   time.Time
	Location   *time.Location
}

// Days counts calendar days in the chart window.
func (r Range) Days() int {
	days := 0
	for d := r.ChartStart; d.Before(r.ChartEnd); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// ResolveRange turns a request into half-open boundaries in loc. The week
// starts on Monday.
func ResolveRange(req ReportRequest, at time.Time, loc *time.Location, window ChartWindow) (Range, error) {
	if loc == nil {
		loc = time.UTC
	}
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: loc}
	local := cfg.With(at.In(loc))
	today := local.BeginningOfDay()

	filter := Filter(strings.ToLower(strings.TrimSpace(req.Filter)))
	if filter == "" {
		filter = FilterMonth
	}

	var start, end time.Time
	switch filter {
	case FilterToday:
		start = today
		end = start.AddDate(0, 0, 1)
	case FilterWeek:
		start = local.BeginningOfWeek()
		end = start.AddDate(0, 0, 7)
	case FilterMonth:
		start = local.BeginningOfMonth()
		end = start.AddDate(0, 1, 0)
	case FilterCustom:
		from, err := parseDate(req.StartDate, loc)
		if err != nil {
			return Range{}, err
		}
		to, err := parseDate(req.EndDate, loc)
		if err != nil {
			return Range{}, err
		}
		if to.Before(from) {
			return Range{}, ErrInvalidDateRange
		}
		start = from
		end = to.AddDate(0, 0, 1)
		limit := window.MaxCustomDays
		if limit <= 0 {
			limit = DefaultMaxCustomDays
		}
		if start.AddDate(0, 0, limit).Before(end) {
			return Range{}, ErrInvalidDateRange
		}
	case FilterAll:
		days := window.WeekDays
		if strings.EqualFold(strings.TrimSpace(req.ChartScale), ChartScaleMonth) {
			days = window.MonthDays
		}
		if days <= 0 {
			days = 7
		}
		chartEnd := today.AddDate(0, 0, 1)
		return Range{
			Filter:     filter,
			ChartStart: chartEnd.AddDate(0, 0, -days),
			ChartEnd:   chartEnd,
			Location:   loc,
		}, nil
	default:
		return Range{}, ErrInvalidDateRange
	}

	return Range{
		Filter:     filter,
		Start:      &start,
		End:        &end,
		ChartStart: start,
		ChartEnd:   end,
		Location:   loc,
	}, nil
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDateRange
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateRange
	}
	return t, nil
}
