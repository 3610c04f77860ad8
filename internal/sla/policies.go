package sla

import (
	"context"
)

// Priority levels a rule may target. One rule per priority within a policy.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rule sets the per-priority targets within a policy, in minutes.
type Rule struct {
	Priority          Priority `json:"priority"`
	FirstResponseMins int      `json:"first_response_mins"`
	ResolutionMins    int      `json:"resolution_mins"`
}

// Policy represents an SLA policy.
type Policy struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	BusinessHoursOnly bool   `json:"business_hours_only"`
	CalendarID        string `json:"calendar_id,omitempty"`
	Rules             []Rule `json:"rules"`
}

// RuleFor returns the rule configured for prio, if any. Absence of a rule
// means no SLA applies at that priority; it is not an error.
func (p *Policy) RuleFor(prio Priority) (Rule, bool) {
	for _, r := range p.Rules {
		if r.Priority == prio {
			return r, true
		}
	}
	return Rule{}, false
}

// LoadPolicy returns one policy with its rules.
func LoadPolicy(ctx context.Context, db DB, id string) (*Policy, error) {
	var p Policy
	var calID *string
	err := db.QueryRow(ctx, `select id::text, name, business_hours_only, calendar_id::text from sla_policies where id=$1`, id).
		Scan(&p.ID, &p.Name, &p.BusinessHoursOnly, &calID)
	if err != nil {
		return nil, err
	}
	if calID != nil {
		p.CalendarID = *calID
	}
	rows, err := db.Query(ctx, `select priority, first_response_mins, resolution_mins from sla_rules where sla_policy_id=$1 order by priority`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.Priority, &r.FirstResponseMins, &r.ResolutionMins); err != nil {
			return nil, err
		}
		p.Rules = append(p.Rules, r)
	}
	return &p, rows.Err()
}

// ListPolicies returns all SLA policies without their rules.
func ListPolicies(ctx context.Context, db DB) ([]Policy, error) {
	rows, err := db.Query(ctx, `select id::text, name, business_hours_only, coalesce(calendar_id::text, '') from sla_policies order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Policy{}
	for rows.Next() {
		var p Policy
		if err := rows.Scan(&p.ID, &p.Name, &p.BusinessHoursOnly, &p.CalendarID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
