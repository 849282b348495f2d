package main

import (
	"context"
	"testing"
	"time"

	"github.com/Leegeev/ebus/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)
	cfg.Bus.Name = "runner-test"
	cfg.Soak.Publishers = 3
	cfg.Soak.Subscribers = 3
	cfg.Soak.Duration = 300 * time.Millisecond
	cfg.Soak.PublishInterval = time.Millisecond
	cfg.Soak.DrainInterval = 5 * time.Millisecond
	cfg.Soak.GCInterval = 10 * time.Millisecond
	cfg.Soak.Seed = 42
	return cfg
}

func TestRunReportsConsistentCounts(t *testing.T) {
	cfg := testConfig(t)
	report, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	require.Positive(t, report.Published)
	require.Positive(t, report.Received)
	require.Zero(t, report.OrderViolations)
	require.LessOrEqual(t, report.Received, report.Delivered)
	require.LessOrEqual(t, report.Delivered+report.Dropped, report.Published*uint64(cfg.Soak.Subscribers))
	require.Equal(t, cfg.Soak.Subscribers, report.Collected)
}

func TestRunWithChurnDropsForSmallMailboxes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bus.Name = "runner-churn"
	cfg.Bus.SubscriberQueueSize = 1
	cfg.Soak.Churn = true
	cfg.Soak.DrainInterval = 20 * time.Millisecond

	report, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Zero(t, report.OrderViolations)
	require.Positive(t, report.Dropped)
	require.Equal(t, cfg.Soak.Subscribers, report.Collected)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bus.Name = "runner-cancel"
	cfg.Soak.Duration = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	report, err := Run(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
	require.NotNil(t, report)
}
