package domain

import (
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
)

// DefaultDurationDays applies when an item's service cannot be resolved.
const DefaultDurationDays = 3

type Deadline struct {
	DueAt         *time.Time `json:"due_at,omitempty"`
	IsOverdue     bool       `json:"is_overdue"`
	DaysRemaining int        `json:"days_remaining"`
}

// EvaluateDeadline derives the due date from the entry time plus the
// duration of the first item's service. Later items do not extend it.
// durations maps service id to duration in days.
func EvaluateDeadline(order Order, items []OrderItem, durations map[snowflake.ID]int, now time.Time) Deadline {
	if len(items) == 0 {
		return Deadline{}
	}

	first := items[0]
	for _, item := range items[1:] {
		if item.ID < first.ID {
			first = item
		}
	}

	days, ok := durations[first.ServiceID]
	if !ok {
		days = DefaultDurationDays
	}

	due := order.EnteredAt.AddDate(0, 0, days)
	remaining := int(math.Floor(due.Sub(now).Hours() / 24))

	return Deadline{
		DueAt:         &due,
		IsOverdue:     now.After(due) && !order.Status.Finished(),
		DaysRemaining: remaining,
	}
}
