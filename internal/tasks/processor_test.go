package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSweeper struct {
	calls []time.Time
	err   error
}

func (s *recordingSweeper) Sweep(_ context.Context, now time.Time) (int64, error) {
	s.calls = append(s.calls, now)
	return 3, s.err
}

func TestHandleSweepTask(t *testing.T) {
	sweeper := &recordingSweeper{}
	p := NewProcessor(sweeper, zerolog.Nop())
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	err := p.Handle(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"type": TypeNotificationSweep, "requestedAt": "2024-06-01T00:00:00Z"},
	})
	require.NoError(t, err)
	require.Len(t, sweeper.calls, 1)
	assert.Equal(t, fixed, sweeper.calls[0])
}

func TestHandleSweepFailureIsReturned(t *testing.T) {
	sweeper := &recordingSweeper{err: errors.New("db down")}
	p := NewProcessor(sweeper, zerolog.Nop())

	err := p.Handle(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"type": TypeNotificationSweep},
	})
	assert.ErrorContains(t, err, "db down")
}

func TestUnknownTaskIsDropped(t *testing.T) {
	sweeper := &recordingSweeper{}
	p := NewProcessor(sweeper, zerolog.Nop())

	err := p.Handle(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"type": "thumbnail"},
	})
	assert.NoError(t, err)
	assert.Empty(t, sweeper.calls)
}
