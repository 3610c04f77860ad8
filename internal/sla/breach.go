package sla

import (
	"context"
	"strings"
	"time"
)

// BreachType identifies which deadline a breach record is for.
type BreachType string

const (
	BreachFirstResponse BreachType = "first_response"
	BreachResolution    BreachType = "resolution"
)

// Breach records one overdue obligation. At most one exists per
// (ticket, type); records are created once and never mutated.
type Breach struct {
	TicketID     string     `json:"ticket_id"`
	Type         BreachType `json:"breach_type"`
	PolicyID     string     `json:"sla_policy_id"`
	DueAt        time.Time  `json:"due_at"`
	BreachedAt   time.Time  `json:"breached_at"`
	DurationMins int        `json:"breach_duration"`
}

func finished(status string) bool {
	return strings.EqualFold(status, "resolved") || strings.EqualFold(status, "closed")
}

// EvaluateBreaches returns the breach conditions t is in at now. It is pure;
// persistence and dedup happen in Checker.Check. Tickets without an
// assigned policy are never in breach.
func EvaluateBreaches(t Ticket, now time.Time) []Breach {
	if t.PolicyID == "" {
		return nil
	}
	var out []Breach
	if t.FirstResponseDueAt != nil && t.FirstResponseAt == nil && now.After(*t.FirstResponseDueAt) {
		out = append(out, newBreach(t, BreachFirstResponse, *t.FirstResponseDueAt, now))
	}
	if t.ResolutionDueAt != nil && !finished(t.Status) && now.After(*t.ResolutionDueAt) {
		out = append(out, newBreach(t, BreachResolution, *t.ResolutionDueAt, now))
	}
	return out
}

func newBreach(t Ticket, typ BreachType, due, now time.Time) Breach {
	return Breach{
		TicketID:     t.ID,
		Type:         typ,
		PolicyID:     t.PolicyID,
		DueAt:        due,
		BreachedAt:   now,
		DurationMins: int(now.Sub(due) / time.Minute),
	}
}

// Notifier receives each breach as it is first recorded. Delivery is a
// collaborator concern; implementations must not block the sweep.
type Notifier interface {
	BreachRecorded(ctx context.Context, b Breach)
}

// Checker persists breach records and flags breached tickets.
type Checker struct {
	DB       DB
	Notifier Notifier
}

// Check evaluates both deadlines for t against the supplied now, records
// any new breaches and returns them. Creation is keyed on (ticket, type),
// so repeat calls and concurrent sweeps record each breach exactly once.
func (c *Checker) Check(ctx context.Context, t Ticket, now time.Time) ([]Breach, error) {
	found := EvaluateBreaches(t, now)
	if len(found) == 0 {
		return nil, nil
	}
	var created []Breach
	for _, b := range found {
		const q = `insert into sla_breaches (ticket_id, breach_type, sla_policy_id, due_at, breached_at, breach_duration)
values ($1, $2, $3, $4, $5, $6)
on conflict (ticket_id, breach_type) do nothing`
		tag, err := c.DB.Exec(ctx, q, b.TicketID, string(b.Type), b.PolicyID, b.DueAt, b.BreachedAt, b.DurationMins)
		if err != nil {
			return created, err
		}
		if tag.RowsAffected() == 0 {
			// Already recorded by an earlier pass.
			continue
		}
		created = append(created, b)
		if c.Notifier != nil {
			c.Notifier.BreachRecorded(ctx, b)
		}
	}
	if len(created) > 0 && !t.Breached {
		if _, err := c.DB.Exec(ctx, `update tickets set sla_breached=true where id=$1`, t.ID); err != nil {
			return created, err
		}
	}
	return created, nil
}
