package auth

import (
	"context"
	"testing"
	"time"
)

func TestStartSessionCleanerRejectsBadSpec(t *testing.T) {
	svc := NewService(nil, nil, "rahasia", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.StartSessionCleaner(ctx, "every now and then"); err == nil {
		t.Fatalf("expected invalid cron spec error")
	}
}

func TestSessionCleanerPurgesOnSchedule(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	svc := NewService(db, nil, "rahasia", 10*time.Millisecond)
	if _, err := svc.IssueSession(context.Background()); err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.StartSessionCleaner(ctx, "@every 1s"); err != nil {
		t.Fatalf("StartSessionCleaner: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if countSessions(t, db) == 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("expired session not purged by cleaner")
}

func TestPurgeOnceSkipsCancelledContext(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	svc := NewService(db, nil, "rahasia", 10*time.Millisecond)
	if _, err := svc.IssueSession(context.Background()); err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.purgeOnce(ctx)
	if n := countSessions(t, db); n != 1 {
		t.Fatalf("cancelled cleaner must not purge, got %d sessions", n)
	}
}
