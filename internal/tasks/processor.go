// Package tasks executes background work pulled from the task stream.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const TypeNotificationSweep = "notifications.sweep"

// Sweeper deletes read notifications older than its retention window.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

type Processor struct {
	sweeper Sweeper
	logger  zerolog.Logger
	now     func() time.Time
}

type TaskPayload struct {
	Type        string `json:"type"`
	RequestedAt string `json:"requestedAt"`
}

func NewProcessor(sweeper Sweeper, logger zerolog.Logger) *Processor {
	return &Processor{
		sweeper: sweeper,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case TypeNotificationSweep:
		return p.handleSweep(ctx, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

// handleSweep measures age against processing time, so a task that sat in
// the stream never deletes more than a fresh one would.
func (p *Processor) handleSweep(ctx context.Context, payload TaskPayload) error {
	removed, err := p.sweeper.Sweep(ctx, p.now().UTC())
	if err != nil {
		return fmt.Errorf("sweep notifications: %w", err)
	}
	p.logger.Info().
		Int64("removed", removed).
		Str("requested_at", payload.RequestedAt).
		Msg("notification sweep task done")
	return nil
}
