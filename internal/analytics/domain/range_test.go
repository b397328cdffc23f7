package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jakarta, _ = time.LoadLocation("Asia/Jakarta")
	window     = ChartWindow{WeekDays: 7, MonthDays: 30}
	// 2024-07-10 is a Wednesday; 23:30 UTC is already the 11th in Jakarta.
	lateUTC = time.Date(2024, 7, 10, 23, 30, 0, 0, time.UTC)
)

func TestResolveRangeToday(t *testing.T) {
	rng, err := ResolveRange(ReportRequest{Filter: "today"}, lateUTC, jakarta, window)
	require.NoError(t, err)
	require.NotNil(t, rng.Start)
	assert.Equal(t, time.Date(2024, 7, 11, 0, 0, 0, 0, jakarta), *rng.Start)
	assert.Equal(t, time.Date(2024, 7, 12, 0, 0, 0, 0, jakarta), *rng.End)
	assert.Equal(t, 1, rng.Days())
}

func TestResolveRangeWeekStartsMonday(t *testing.T) {
	rng, err := ResolveRange(ReportRequest{Filter: "week"}, lateUTC, jakarta, window)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, rng.Start.Weekday())
	assert.Equal(t, time.Date(2024, 7, 8, 0, 0, 0, 0, jakarta), *rng.Start)
	assert.Equal(t, 7, rng.Days())
}

func TestResolveRangeMonth(t *testing.T) {
	rng, err := ResolveRange(ReportRequest{Filter: "month"}, lateUTC, jakarta, window)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, jakarta), *rng.Start)
	assert.Equal(t, time.Date(2024, 8, 1, 0, 0, 0, 0, jakarta), *rng.End)
	assert.Equal(t, 31, rng.Days())

	defaulted, err := ResolveRange(ReportRequest{}, lateUTC, jakarta, window)
	require.NoError(t, err)
	assert.Equal(t, FilterMonth, defaulted.Filter)
}

func TestResolveRangeCustom(t *testing.T) {
	rng, err := ResolveRange(ReportRequest{Filter: "custom", StartDate: "2024-02-27", EndDate: "2024-03-02"}, lateUTC, jakarta, window)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 27, 0, 0, 0, 0, jakarta), *rng.Start)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, jakarta), *rng.End)
	assert.Equal(t, 5, rng.Days())

	single, err := ResolveRange(ReportRequest{Filter: "custom", StartDate: "2024-02-27", EndDate: "2024-02-27"}, lateUTC, jakarta, window)
	require.NoError(t, err)
	assert.Equal(t, 1, single.Days())
}

func TestResolveRangeCustomInvalid(t *testing.T) {
	cases := []ReportRequest{
		{Filter: "custom"},
		{Filter: "custom", StartDate: "2024-02-27"},
		{Filter: "custom", StartDate: "27/02/2024", EndDate: "2024-03-01"},
		{Filter: "custom", StartDate: "2024-03-02", EndDate: "2024-03-01"},
		{Filter: "quarter"},
		{Filter: "custom", StartDate: "0001-01-01", EndDate: "9999-12-31"},
		{Filter: "custom", StartDate: "2024-01-01", EndDate: "2025-01-01"},
	}
	for _, req := range cases {
		_, err := ResolveRange(req, lateUTC, jakarta, window)
		assert.ErrorIs(t, err, ErrInvalidDateRange, "%+v", req)
	}
}

func TestResolveRangeCustomSpanLimit(t *testing.T) {
	// 2024 is a leap year: 366 days is the longest accepted span by default.
	rng, err := ResolveRange(ReportRequest{Filter: "custom", StartDate: "2024-01-01", EndDate: "2024-12-31"}, lateUTC, jakarta, window)
	require.NoError(t, err)
	assert.Equal(t, 366, rng.Days())

	short := ChartWindow{WeekDays: 7, MonthDays: 30, MaxCustomDays: 3}
	_, err = ResolveRange(ReportRequest{Filter: "custom", StartDate: "2024-07-01", EndDate: "2024-07-03"}, lateUTC, jakarta, short)
	require.NoError(t, err)
	_, err = ResolveRange(ReportRequest{Filter: "custom", StartDate: "2024-07-01", EndDate: "2024-07-04"}, lateUTC, jakarta, short)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestResolveRangeAllUsesTrailingChart(t *testing.T) {
	rng, err := ResolveRange(ReportRequest{Filter: "all"}, lateUTC, jakarta, window)
	require.NoError(t, err)
	assert.Nil(t, rng.Start)
	assert.Nil(t, rng.End)
	assert.Equal(t, 7, rng.Days())
	assert.Equal(t, time.Date(2024, 7, 12, 0, 0, 0, 0, jakarta), rng.ChartEnd)

	monthly, err := ResolveRange(ReportRequest{Filter: "all", ChartScale: "month"}, lateUTC, jakarta, window)
	require.NoError(t, err)
	assert.Equal(t, 30, monthly.Days())
}
