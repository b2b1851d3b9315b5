package demo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davitran/lawlens/internal/analysis"
	"github.com/davitran/lawlens/internal/analysis/domain"
)

func fastOptions() Options {
	return Options{
		InitialDelay:  10 * time.Millisecond,
		Tick:          2 * time.Millisecond,
		TotalDuration: 80 * time.Millisecond,
		ProgressCap:   96,
	}
}

func TestDriver_SimulatedTimeline(t *testing.T) {
	drv := NewDriver(nil, fastOptions())
	defer drv.Close()
	ctx := context.Background()

	file := domain.SourceFile{Name: "law.html", ByteSize: 7}
	sub, err := drv.CreateJob(ctx, file, domain.RiskMedium)
	require.NoError(t, err)
	require.NotEmpty(t, sub.JobID)
	assert.Contains(t, sub.Target.URL, sub.JobID)

	require.NoError(t, drv.Upload(ctx, sub.Target, strings.NewReader("<html/>")))
	require.NoError(t, drv.Start(ctx, sub.JobID))

	// Observe the run to completion, checking the progress invariants on
	// every sample.
	var lastProgress int
	var sawRunning bool
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "simulated job never completed")

		rep, err := drv.Status(ctx, sub.JobID)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, rep.Progress, lastProgress, "progress must be monotonic")
		lastProgress = rep.Progress

		switch rep.Status {
		case domain.StatusRunning:
			sawRunning = true
			assert.LessOrEqual(t, rep.Progress, 96, "progress is capped until completion")
		case domain.StatusCompleted:
			assert.True(t, sawRunning, "job must pass through RUNNING")
			assert.Equal(t, 100, rep.Progress, "progress reaches 100 exactly at completion")
			require.NotEmpty(t, rep.ResultURL)

			payload, err := drv.FetchResult(ctx, rep.ResultURL)
			require.NoError(t, err)
			assert.Equal(t, "Processed law.html with risk MEDIUM.", payload.Summary)
			assert.NotEmpty(t, payload.Stocks)
			assert.NotEmpty(t, payload.Comment)
			return
		case domain.StatusPending:
			assert.Zero(t, rep.Progress)
		default:
			t.Fatalf("unexpected status %s", rep.Status)
		}

		time.Sleep(time.Millisecond)
	}
}

func TestDriver_StatusUnknownJob(t *testing.T) {
	drv := NewDriver(nil, fastOptions())
	defer drv.Close()

	_, err := drv.Status(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestDriver_InterchangeableWithController(t *testing.T) {
	drv := NewDriver(nil, fastOptions())
	defer drv.Close()

	ctrl := analysis.NewController(drv, nil, analysis.Options{
		GraceDelay:   time.Millisecond,
		PollInterval: 2 * time.Millisecond,
	})

	updates, err := ctrl.Submit(context.Background(), domain.SourceFile{Name: "directive.xml"}, strings.NewReader("<xml/>"), domain.RiskSafe)
	require.NoError(t, err)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				final := ctrl.Snapshot()
				assert.Equal(t, domain.StatusCompleted, final.Status)
				assert.Equal(t, 100, final.Progress)
				require.NotNil(t, final.Result)
				assert.Equal(t, "Processed directive.xml with risk SAFE.", final.Result.Summary)
				assert.False(t, final.Busy)
				return
			}
		case <-timeout:
			t.Fatal("controller never finished against the demo driver")
		}
	}
}
