package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/daemon"
	"github.com/Thashar/Stalker-sub001/internal/ingest"
	"github.com/Thashar/Stalker-sub001/internal/ipc"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/platform/platformtest"
	"github.com/Thashar/Stalker-sub001/internal/testsupport"
)

type stubRecognizer struct{}

func (stubRecognizer) Recognize(context.Context, []byte) (string, error) { return "", nil }

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()
	engine, err := ingest.New(ingest.Deps{
		Config:     cfg,
		Adapter:    platformtest.New(),
		Recognizer: stubRecognizer{},
		Store:      testsupport.NewStore(t, cfg),
		Ledger:     testsupport.NewLedger(t, cfg),
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	d, err := daemon.New(cfg, engine, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	socket := filepath.Join(cfg.Paths.LogDir, "stalker.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if status.SocketPath != socket {
		t.Fatalf("socket path = %q, want %q", status.SocketPath, socket)
	}
	if status.PID == 0 || status.DataDir != cfg.Paths.DataDir {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(status.Sessions) != 0 || len(status.Queues) != 0 {
		t.Fatalf("expected empty sessions and queues, got %+v", status)
	}

	addResp, err := client.PunishAdd(ipc.PunishAddRequest{GuildID: "g1", UserID: "u1", Points: 3, Reason: "Missed raid"})
	if err != nil {
		t.Fatalf("PunishAdd failed: %v", err)
	}
	if addResp.Points != 3 {
		t.Fatalf("points = %d, want 3", addResp.Points)
	}

	removeResp, err := client.PunishRemove(ipc.PunishRemoveRequest{GuildID: "g1", UserID: "u1", Points: 1})
	if err != nil {
		t.Fatalf("PunishRemove failed: %v", err)
	}
	if !removeResp.Found || removeResp.Points != 2 {
		t.Fatalf("remove = %+v, want 2 points left", removeResp)
	}

	missingResp, err := client.PunishRemove(ipc.PunishRemoveRequest{GuildID: "g1", UserID: "ghost", Points: 1})
	if err != nil {
		t.Fatalf("PunishRemove missing failed: %v", err)
	}
	if missingResp.Found {
		t.Fatalf("remove = %+v, want Found=false for unknown user", missingResp)
	}

	decayResp, err := client.Decay()
	if err != nil {
		t.Fatalf("Decay failed: %v", err)
	}
	if decayResp.AlreadyRan || decayResp.CleanedUsers != 1 {
		t.Fatalf("decay = %+v, want one user decayed", decayResp)
	}
	decayAgain, err := client.Decay()
	if err != nil {
		t.Fatalf("second Decay failed: %v", err)
	}
	if !decayAgain.AlreadyRan {
		t.Fatalf("decay = %+v, want idempotent no-op", decayAgain)
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp.Sent || notifyResp.Message == "" {
		t.Fatalf("expected unsent notification with explanation, got %+v", notifyResp)
	}

	// Rejections travel back as RPC errors.
	if _, err := client.PunishAdd(ipc.PunishAddRequest{GuildID: "nope", UserID: "u1", Points: 1}); err == nil {
		t.Fatal("expected error for unconfigured guild")
	}

	d.Stop()
	status2, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status2.Running {
		t.Fatal("expected daemon to be stopped")
	}
}
