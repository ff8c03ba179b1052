package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nsxzhou1114/folio-api/internal/config"
	"github.com/nsxzhou1114/folio-api/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	before []time.Time
	err    error
}

func (f *fakeCleaner) CleanupRead(_ context.Context, before time.Time) (int64, error) {
	f.before = append(f.before, before)
	return 3, f.err
}

func TestCleanupUsesRetentionWindow(t *testing.T) {
	cleaner := &fakeCleaner{}
	s, err := New(config.CronConfig{Timezone: "UTC", ReadNotificationTTLDay: 7}, cleaner, logger.Nop())
	require.NoError(t, err)

	now := time.Date(2024, 5, 20, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.CleanupNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, cleaner.before, 1)
	assert.Equal(t, now.AddDate(0, 0, -7), cleaner.before[0])
}

func TestDefaults(t *testing.T) {
	s, err := New(config.CronConfig{}, &fakeCleaner{}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, s.ttl)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestInvalidConfig(t *testing.T) {
	_, err := New(config.CronConfig{Timezone: "Mars/Olympus"}, &fakeCleaner{}, logger.Nop())
	assert.Error(t, err)

	_, err = New(config.CronConfig{CleanupSpec: "every day"}, &fakeCleaner{}, logger.Nop())
	assert.Error(t, err)
}

func TestJobSwallowsErrors(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("db down")}
	s, err := New(config.CronConfig{}, cleaner, logger.Nop())
	require.NoError(t, err)

	assert.NotPanics(t, s.cleanupJob)
	assert.Len(t, cleaner.before, 1)
}

func TestStartStop(t *testing.T) {
	s, err := New(config.CronConfig{}, &fakeCleaner{}, logger.Nop())
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
