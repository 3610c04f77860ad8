// Package notify carries breach events over the job queue consumed by the
// notification worker. Delivery to assignees and managers happens there;
// this side only enqueues.
package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	slapkg "github.com/crmkit/sla-engine/internal/sla"
)

// Job is the queue envelope shared with the notification worker.
type Job struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const breachJobType = "sla_breach"

// Queue publishes breach jobs onto a redis list.
type Queue struct {
	rdb *redis.Client
	key string
}

func NewQueue(rdb *redis.Client, key string) *Queue {
	if key == "" {
		key = "jobs"
	}
	return &Queue{rdb: rdb, key: key}
}

// BreachRecorded pushes an sla_breach job. Best effort; a full queue or a
// down redis must not fail the sweep, so errors are logged and dropped.
func (q *Queue) BreachRecorded(ctx context.Context, b slapkg.Breach) {
	data, err := json.Marshal(b)
	if err != nil {
		log.Error().Err(err).Str("ticket", b.TicketID).Msg("marshal breach")
		return
	}
	payload, err := json.Marshal(Job{Type: breachJobType, Data: data})
	if err != nil {
		log.Error().Err(err).Str("ticket", b.TicketID).Msg("marshal breach job")
		return
	}
	if err := q.rdb.RPush(ctx, q.key, payload).Err(); err != nil {
		log.Error().Err(err).Str("ticket", b.TicketID).Msg("enqueue breach job")
	}
}

// Noop discards breach events. Used when no queue is configured.
type Noop struct{}

func (Noop) BreachRecorded(context.Context, slapkg.Breach) {}
