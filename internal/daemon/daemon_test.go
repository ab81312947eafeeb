package daemon_test

import (
	"context"
	"testing"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/daemon"
	"github.com/Thashar/Stalker-sub001/internal/ingest"
	"github.com/Thashar/Stalker-sub001/internal/isoweek"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/platform/platformtest"
	"github.com/Thashar/Stalker-sub001/internal/punish"
	"github.com/Thashar/Stalker-sub001/internal/testsupport"
)

type stubRecognizer struct{}

func (stubRecognizer) Recognize(context.Context, []byte) (string, error) { return "", nil }

func newDaemon(t *testing.T, now *time.Time) (*daemon.Daemon, *punish.Ledger) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.NewLedger(t, cfg)
	clock := func() time.Time { return *now }
	engine, err := ingest.New(ingest.Deps{
		Config:     cfg,
		Adapter:    platformtest.New(),
		Recognizer: stubRecognizer{},
		Store:      testsupport.NewStore(t, cfg),
		Ledger:     ledger,
		Logger:     logging.NewNop(),
	}, ingest.WithNow(clock))
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	d, err := daemon.New(cfg, engine, nil, logging.NewNop(), daemon.WithNow(clock))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, ledger
}

func TestStartStopLifecycle(t *testing.T) {
	now := time.Now()
	d, _ := newDaemon(t, &now)
	ctx := context.Background()

	if status := d.Status(ctx); status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("second Start should fail while running")
	}

	status := d.Status(ctx)
	if !status.Running || status.PID == 0 || status.LockPath == "" {
		t.Fatalf("status = %+v, want running with pid and lock path", status)
	}
	if len(status.Sessions) != 0 || len(status.Queues) != 0 {
		t.Fatalf("status = %+v, want no sessions or queues on a fresh daemon", status)
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("daemon should not report running after Stop")
	}
}

func TestHousekeepRunsDecayAtConfiguredSlot(t *testing.T) {
	// The default schedule is sunday at hour 3.
	now := time.Date(2025, time.October, 11, 12, 0, 0, 0, time.UTC) // saturday
	d, ledger := newDaemon(t, &now)
	ctx := context.Background()

	if _, err := d.AddPunishment(ctx, "g1", "u1", 3, "seed"); err != nil {
		t.Fatalf("AddPunishment: %v", err)
	}

	d.Housekeep(ctx)
	if record, err := ledger.Get("g1", "u1"); err != nil || record.Points != 3 {
		t.Fatalf("record = %+v, %v; decay must not run before the slot", record, err)
	}

	now = time.Date(2025, time.October, 12, 4, 0, 0, 0, time.UTC) // sunday after hour 3
	d.Housekeep(ctx)
	record, err := ledger.Get("g1", "u1")
	if err != nil || record.Points != 2 {
		t.Fatalf("record = %+v, %v; want one point decayed", record, err)
	}
	marker, err := ledger.LastDecay(isoweek.Key(now))
	if err != nil || marker == nil {
		t.Fatalf("marker = %+v, %v; want the week stamped", marker, err)
	}

	// Same slot again within the week is a no-op.
	now = now.Add(2 * time.Hour)
	d.Housekeep(ctx)
	if record, err := ledger.Get("g1", "u1"); err != nil || record.Points != 2 {
		t.Fatalf("record = %+v, %v; decay must run once per week", record, err)
	}
}

func TestRunDecayRespectsWeeklyMarker(t *testing.T) {
	now := time.Now()
	d, _ := newDaemon(t, &now)
	ctx := context.Background()

	if _, err := d.AddPunishment(ctx, "g1", "u1", 2, "seed"); err != nil {
		t.Fatalf("AddPunishment: %v", err)
	}
	first, err := d.RunDecay(ctx)
	if err != nil {
		t.Fatalf("RunDecay: %v", err)
	}
	if first.AlreadyRan || first.CleanedUsers != 1 {
		t.Fatalf("first = %+v, want one user decayed", first)
	}
	second, err := d.RunDecay(ctx)
	if err != nil {
		t.Fatalf("second RunDecay: %v", err)
	}
	if !second.AlreadyRan {
		t.Fatalf("second = %+v, want idempotent no-op", second)
	}
}

func TestTestNotificationWithoutWebhook(t *testing.T) {
	now := time.Now()
	d, _ := newDaemon(t, &now)

	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent || message == "" {
		t.Fatalf("sent = %v message = %q, want a skip with explanation", sent, message)
	}
}
