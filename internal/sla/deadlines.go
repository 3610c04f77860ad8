package sla

import (
	"time"
)

// Ticket is the engine's read-only view of a ticket owned by the
// surrounding system.
type Ticket struct {
	ID                 string
	CreatedAt          time.Time
	Priority           Priority
	Status             string
	PolicyID           string
	FirstResponseAt    *time.Time
	ResolvedAt         *time.Time
	FirstResponseDueAt *time.Time
	ResolutionDueAt    *time.Time
	Breached           bool
}

// Deadlines are the computed due timestamps for a ticket. Nil means no
// rule is configured for the ticket's priority and no SLA applies.
type Deadlines struct {
	FirstResponseDueAt *time.Time `json:"first_response_due_at"`
	ResolutionDueAt    *time.Time `json:"resolution_due_at"`
}

// CalculateDeadlines computes both due dates for t under p. The resolution
// deadline walks from CreatedAt independently of the first-response one;
// the engine does not order them relative to each other. cal may be nil
// when the policy runs on wall-clock time.
func CalculateDeadlines(t Ticket, p Policy, cal *Calendar) Deadlines {
	rule, ok := p.RuleFor(t.Priority)
	if !ok {
		return Deadlines{}
	}
	fr := dueAt(t.CreatedAt, time.Duration(rule.FirstResponseMins)*time.Minute, p, cal)
	res := dueAt(t.CreatedAt, time.Duration(rule.ResolutionMins)*time.Minute, p, cal)
	return Deadlines{FirstResponseDueAt: &fr, ResolutionDueAt: &res}
}

func dueAt(start time.Time, target time.Duration, p Policy, cal *Calendar) time.Time {
	if !p.BusinessHoursOnly || cal == nil || len(cal.Hours) == 0 {
		return start.Add(target)
	}
	return cal.DeadlineAfter(start, target)
}
