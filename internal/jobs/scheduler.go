package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"learnhub/api/internal/tasks"
)

// Scheduler enqueues periodic tasks onto the worker stream. It never runs
// the work itself.
type Scheduler struct {
	cron          *cron.Cron
	queue         *redis.Client
	stream        string
	sweepSchedule string
	log           zerolog.Logger
	now           func() time.Time
}

func NewScheduler(queue *redis.Client, stream, sweepSchedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		queue:         queue,
		stream:        stream,
		sweepSchedule: sweepSchedule,
		log:           log,
		now:           time.Now,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.sweepSchedule, s.enqueueSweep); err != nil {
		return fmt.Errorf("schedule notification sweep %q: %w", s.sweepSchedule, err)
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.sweepSchedule).Msg("notification sweep scheduled")
	return nil
}

// Stop waits up to five seconds for a running enqueue to finish.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Enqueue(ctx, tasks.TypeNotificationSweep); err != nil {
		s.log.Error().Err(err).Msg("enqueue notification sweep failed")
	}
}

// Enqueue appends a task of the given type to the stream.
func (s *Scheduler) Enqueue(ctx context.Context, taskType string) error {
	if s.queue == nil {
		return nil
	}
	_, err := s.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"type":        taskType,
			"requestedAt": s.now().UTC().Format(time.RFC3339),
		},
	}).Result()
	return err
}
