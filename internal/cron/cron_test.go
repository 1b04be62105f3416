package cron

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartCronJobsRunsImmediately(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{}, 1)
	s, err := StartCronJobs(Job{
		Name:  "tick",
		Every: time.Hour,
		Run: func() error {
			if runs.Add(1) == 1 {
				done <- struct{}{}
			}
			return errors.New("logged, not fatal")
		},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
}

func TestStartCronJobsRejectsBadInterval(t *testing.T) {
	if _, err := StartCronJobs(Job{Name: "broken", Run: func() error { return nil }}); err == nil {
		t.Error("expected error for zero interval")
	}
}
