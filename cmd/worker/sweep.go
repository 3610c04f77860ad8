package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	slapkg "github.com/crmkit/sla-engine/internal/sla"
)

// sweeper runs one pass over SLA-managed tickets: first it backfills due
// dates on tickets that gained a policy without computed deadlines, then it
// breach-checks everything still open. Policies and calendars are cached
// for the duration of a pass; they are read-only reference data.
type sweeper struct {
	db      slapkg.DB
	checker *slapkg.Checker
	workers int

	policies  map[string]*slapkg.Policy
	calendars map[string]*slapkg.Calendar
}

func (s *sweeper) run(ctx context.Context, now time.Time) error {
	s.policies = map[string]*slapkg.Policy{}
	s.calendars = map[string]*slapkg.Calendar{}
	if err := s.assignDeadlines(ctx); err != nil {
		log.Error().Err(err).Msg("assign deadlines")
	}
	return s.checkBreaches(ctx, now)
}

func (s *sweeper) policy(ctx context.Context, id string) (*slapkg.Policy, error) {
	if p, ok := s.policies[id]; ok {
		return p, nil
	}
	p, err := slapkg.LoadPolicy(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	s.policies[id] = p
	return p, nil
}

func (s *sweeper) calendar(ctx context.Context, p *slapkg.Policy) (*slapkg.Calendar, error) {
	if !p.BusinessHoursOnly || p.CalendarID == "" {
		return nil, nil
	}
	if cal, ok := s.calendars[p.CalendarID]; ok {
		return cal, nil
	}
	cal, err := slapkg.LoadCalendar(ctx, s.db, p.CalendarID)
	if err != nil {
		return nil, err
	}
	s.calendars[p.CalendarID] = cal
	return cal, nil
}

func (s *sweeper) assignDeadlines(ctx context.Context) error {
	rows, err := s.db.Query(ctx, `select id::text, created_at, priority, status, sla_policy_id::text
from tickets
where sla_policy_id is not null and first_response_due_at is null and resolution_due_at is null`)
	if err != nil {
		return err
	}
	var tickets []slapkg.Ticket
	for rows.Next() {
		var t slapkg.Ticket
		if err := rows.Scan(&t.ID, &t.CreatedAt, &t.Priority, &t.Status, &t.PolicyID); err != nil {
			log.Error().Err(err).Msg("scan unassigned ticket")
			continue
		}
		tickets = append(tickets, t)
	}
	rows.Close()
	rerr := rows.Err()
	for _, t := range tickets {
		p, err := s.policy(ctx, t.PolicyID)
		if err != nil {
			log.Error().Err(err).Str("policy", t.PolicyID).Msg("load policy")
			continue
		}
		cal, err := s.calendar(ctx, p)
		if err != nil {
			log.Error().Err(err).Str("calendar", p.CalendarID).Msg("load calendar")
			continue
		}
		d := slapkg.CalculateDeadlines(t, *p, cal)
		if d.FirstResponseDueAt == nil {
			// No rule at this priority; leave the ticket without an SLA.
			continue
		}
		if _, err := s.db.Exec(ctx, `update tickets set first_response_due_at=$1, resolution_due_at=$2 where id=$3`,
			*d.FirstResponseDueAt, *d.ResolutionDueAt, t.ID); err != nil {
			log.Error().Err(err).Str("ticket", t.ID).Msg("store deadlines")
			continue
		}
		deadlinesAssigned.Inc()
	}
	return rerr
}

func (s *sweeper) checkBreaches(ctx context.Context, now time.Time) error {
	rows, err := s.db.Query(ctx, `select id::text, created_at, priority, status, sla_policy_id::text,
       first_response_at, resolved_at, first_response_due_at, resolution_due_at, sla_breached
from tickets
where sla_policy_id is not null
  and (first_response_due_at is not null or resolution_due_at is not null)
  and (lower(status) not in ('resolved','closed') or first_response_at is null)`)
	if err != nil {
		return err
	}
	var tickets []slapkg.Ticket
	for rows.Next() {
		var t slapkg.Ticket
		if err := rows.Scan(&t.ID, &t.CreatedAt, &t.Priority, &t.Status, &t.PolicyID,
			&t.FirstResponseAt, &t.ResolvedAt, &t.FirstResponseDueAt, &t.ResolutionDueAt, &t.Breached); err != nil {
			log.Error().Err(err).Msg("scan ticket for breach check")
			continue
		}
		tickets = append(tickets, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// Per-ticket checks are independent and idempotent, so the pass can
	// fan out; the unique (ticket, type) key is the only synchronization.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, t := range tickets {
		t := t
		g.Go(func() error {
			ticketsChecked.Inc()
			created, err := s.checker.Check(gctx, t, now)
			if err != nil {
				log.Error().Err(err).Str("ticket", t.ID).Msg("breach check")
				return nil
			}
			for _, b := range created {
				breachesRecorded.Inc()
				log.Warn().Str("ticket", b.TicketID).Str("type", string(b.Type)).
					Int("overdue_mins", b.DurationMins).Msg("sla breached")
			}
			return nil
		})
	}
	return g.Wait()
}
