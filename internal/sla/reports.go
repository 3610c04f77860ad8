package sla

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Compliance summarizes SLA adherence over tickets created in a range.
type Compliance struct {
	Total     int     `json:"total"`
	Compliant int     `json:"compliant"`
	Breached  int     `json:"breached"`
	Rate      float64 `json:"compliance_rate"`
}

// ComplianceMetrics counts tickets created between from and to (inclusive
// when set) and reports the compliance rate as a percentage rounded to two
// decimals. An empty range yields zeros, not an error.
func ComplianceMetrics(ctx context.Context, db DB, from, to *time.Time) (Compliance, error) {
	where, args := createdBetween(from, to)
	q := `select count(*), count(*) filter (where sla_breached) from tickets` + where
	var m Compliance
	if err := db.QueryRow(ctx, q, args...).Scan(&m.Total, &m.Breached); err != nil {
		return Compliance{}, err
	}
	m.Compliant = m.Total - m.Breached
	if m.Total > 0 {
		m.Rate = math.Round(float64(m.Compliant)/float64(m.Total)*10000) / 100
	}
	return m, nil
}

// AverageResponseMins is the mean first-response time in minutes over
// tickets that have one, optionally bounded by creation date. Zero when no
// ticket qualifies.
func AverageResponseMins(ctx context.Context, db DB, from, to *time.Time) (float64, error) {
	return averageMins(ctx, db, "first_response_at", from, to)
}

// AverageResolutionMins is the mean resolution time in minutes over tickets
// that have been resolved, optionally bounded by creation date.
func AverageResolutionMins(ctx context.Context, db DB, from, to *time.Time) (float64, error) {
	return averageMins(ctx, db, "resolved_at", from, to)
}

func averageMins(ctx context.Context, db DB, column string, from, to *time.Time) (float64, error) {
	where, args := createdBetween(from, to)
	if where == "" {
		where = " where " + column + " is not null"
	} else {
		where += " and " + column + " is not null"
	}
	q := fmt.Sprintf(`select coalesce(avg(extract(epoch from (%s - created_at)) / 60), 0) from tickets%s`, column, where)
	var avg float64
	if err := db.QueryRow(ctx, q, args...).Scan(&avg); err != nil {
		return 0, err
	}
	return avg, nil
}

func createdBetween(from, to *time.Time) (string, []any) {
	where := []string{}
	args := []any{}
	if from != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *to)
	}
	if len(where) == 0 {
		return "", nil
	}
	return " where " + strings.Join(where, " and "), args
}
