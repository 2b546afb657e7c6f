package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sertugser/assessai/internal/config"
)

type fakeSweeper struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSweeper) Sweep(context.Context) (int, error) {
	f.calls.Add(1)
	return 3, f.err
}

type fakePruner struct {
	before time.Time
}

func (f *fakePruner) PruneLLMEvents(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return 7, nil
}

func TestRunOnce(t *testing.T) {
	sw := &fakeSweeper{}
	pr := &fakePruner{}
	s := New(config.SchedulerConfig{LLMEventRetention: 48 * time.Hour}, sw, pr, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	swept, pruned, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, swept)
	assert.Equal(t, int64(7), pruned)
	assert.Equal(t, now.Add(-48*time.Hour), pr.before)
}

func TestRunOnce_SweepError(t *testing.T) {
	s := New(config.SchedulerConfig{}, &fakeSweeper{err: errors.New("locked")}, nil, nil)
	_, _, err := s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestStart_RunsSweepJob(t *testing.T) {
	sw := &fakeSweeper{}
	s := New(config.SchedulerConfig{CacheSweepInterval: 50 * time.Millisecond}, sw, nil, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestStart_NoJobs(t *testing.T) {
	s := New(config.SchedulerConfig{}, nil, nil, nil)
	require.NoError(t, s.Start())
	s.Stop()
	assert.Empty(t, s.scheduler.Jobs())
}
