package sla

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the minimal pgx surface the engine needs. *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Hours is a single business-hours window, in seconds from local midnight.
type Hours struct {
	StartSec int
	EndSec   int
}

// Valid reports whether the window's end strictly follows its start.
// Inverted windows are treated like days with no window at all.
func (h Hours) Valid() bool { return h.EndSec > h.StartSec }

// Calendar holds the weekly windows during which SLA clocks run, plus
// holiday dates on which they pause. An empty Hours map means the clock
// never stops (24/7).
type Calendar struct {
	Location *time.Location
	Hours    map[time.Weekday]Hours
	Holidays map[time.Time]struct{}
}

// LoadCalendar reads a calendar and its active business-hours windows.
// When a weekday carries more than one active window, the earliest-starting
// one wins.
func LoadCalendar(ctx context.Context, db DB, id string) (*Calendar, error) {
	var tz string
	if err := db.QueryRow(ctx, "select tz from calendars where id=$1", id).Scan(&tz); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	cal := &Calendar{
		Location: loc,
		Hours:    make(map[time.Weekday]Hours),
		Holidays: make(map[time.Time]struct{}),
	}
	rows, err := db.Query(ctx, "select day_of_week, start_sec, end_sec from business_hours where calendar_id=$1 and active order by day_of_week, start_sec", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var dow, start, end int
		if err := rows.Scan(&dow, &start, &end); err != nil {
			continue
		}
		h := Hours{StartSec: start, EndSec: end}
		if !h.Valid() {
			continue
		}
		if _, seen := cal.Hours[time.Weekday(dow)]; seen {
			continue
		}
		cal.Hours[time.Weekday(dow)] = h
	}
	hrows, err := db.Query(ctx, "select date from holidays where calendar_id=$1", id)
	if err != nil {
		return nil, err
	}
	defer hrows.Close()
	for hrows.Next() {
		var d time.Time
		if err := hrows.Scan(&d); err == nil {
			day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
			cal.Holidays[day] = struct{}{}
		}
	}
	return cal, nil
}

// DeadlineAfter walks the calendar forward from start until target business
// time has elapsed and returns the resulting timestamp. Days without a
// usable window (weekends, holidays, inverted windows) consume nothing, so
// every iteration either spends time or advances a full day; the walk
// terminates for any finite target.
func (c *Calendar) DeadlineAfter(start time.Time, target time.Duration) time.Time {
	if target <= 0 {
		return start
	}
	if c == nil || len(c.Hours) == 0 {
		// No windows configured anywhere: always open.
		return start.Add(target)
	}
	loc := c.Location
	if loc == nil {
		loc = start.Location()
	}
	cur := start.In(loc)
	remaining := target
	for {
		dayStart := time.Date(cur.Year(), cur.Month(), cur.Day(), 0, 0, 0, 0, loc)
		// Next civil midnight, not +24h: a DST fall-back day has 25
		// wall-clock hours and +24h would never leave it.
		dayEnd := time.Date(cur.Year(), cur.Month(), cur.Day()+1, 0, 0, 0, 0, loc)
		if _, ok := c.Holidays[dayStart]; ok {
			cur = dayEnd
			continue
		}
		hrs, ok := c.Hours[dayStart.Weekday()]
		if !ok || !hrs.Valid() {
			cur = dayEnd
			continue
		}
		bhStart := dayStart.Add(time.Duration(hrs.StartSec) * time.Second)
		bhEnd := dayStart.Add(time.Duration(hrs.EndSec) * time.Second)
		if cur.Before(bhStart) {
			cur = bhStart
		}
		if !cur.Before(bhEnd) {
			cur = dayEnd
			continue
		}
		avail := bhEnd.Sub(cur)
		if avail >= remaining {
			return cur.Add(remaining)
		}
		remaining -= avail
		cur = dayEnd
	}
}
