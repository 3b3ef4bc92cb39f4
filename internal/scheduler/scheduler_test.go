package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	t.Parallel()

	day := func(hour, minute int) time.Time {
		return time.Date(2026, 3, 10, hour, minute, 0, 0, time.Local)
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before first slot", day(1, 30), day(2, 0)},
		{"right after a slot fires", day(2, 0), day(6, 0)},
		{"mid morning", day(9, 15), day(12, 0)},
		{"afternoon", day(12, 1), day(18, 0)},
		{"after last slot rolls to next day", day(18, 30), day(2, 0).AddDate(0, 0, 1)},
		{"just before midnight", day(23, 59), day(2, 0).AddDate(0, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRun(tt.now); !got.Equal(tt.want) {
				t.Errorf("NextRun(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestTriggerFiresJob(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := New(func(ctx context.Context) { runs.Add(1) }, false, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.Trigger()

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("triggered job never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestInitialRun(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := New(func(ctx context.Context) { runs.Add(1) }, true, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("warm-up run never happened")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s := New(func(ctx context.Context) {}, false, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
