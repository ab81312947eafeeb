package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/config"
	"github.com/Thashar/Stalker-sub001/internal/daemon"
	"github.com/Thashar/Stalker-sub001/internal/ingest"
	"github.com/Thashar/Stalker-sub001/internal/ipc"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/notify"
	"github.com/Thashar/Stalker-sub001/internal/ocr"
	"github.com/Thashar/Stalker-sub001/internal/platform"
	"github.com/Thashar/Stalker-sub001/internal/preflight"
	"github.com/Thashar/Stalker-sub001/internal/punish"
	"github.com/Thashar/Stalker-sub001/internal/results"
)

// SocketFileName is the IPC socket created under the log directory.
const SocketFileName = "stalker.sock"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// Adapter is the chat gateway. When nil the daemon runs disconnected:
	// stores, sweeps, and IPC stay available while interactive ingestion is
	// offline.
	Adapter platform.Adapter
}

// SocketPath returns the IPC socket location for a config.
func SocketPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, SocketFileName)
}

// Run starts the stalker daemon runtime loop and blocks until SIGINT or
// SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("stalker-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update stalker.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "stalker-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "stalker.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logPreflight(signalCtx, logger, cfg)

	recognizer, err := ocr.New(cfg.OCR.Binary, cfg.OCR.Language, cfg.OCR.CharWhitelist, cfg.OCR.PageSegMode, cfg.OCR.TimeoutSeconds)
	if err != nil {
		return fmt.Errorf("init recognition client: %w", err)
	}

	store := results.NewStore(cfg.Paths.DataDir, logger)
	ledger := punish.NewLedger(cfg.PunishmentsPath(), cfg.WeeklyRemovalPath(), logger)
	notifier := notify.NewService(cfg)

	engine, err := ingest.New(ingest.Deps{
		Config:     cfg,
		Adapter:    opts.Adapter,
		Recognizer: recognizer,
		Store:      store,
		Ledger:     ledger,
		Notifier:   notifier,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	d, err := daemon.New(cfg, engine, notifier, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, SocketPath(cfg), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another running instance and data directory access"),
			logging.String(logging.FieldImpact, "sessions and sweeps are not running"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("stalker daemon shutting down")
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Info("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"))
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported path or service before starting sessions"))
	}
	for _, dep := range preflight.CheckSystemDeps(ctx, cfg) {
		logger.Info("dependency snapshot",
			logging.String(logging.FieldEventType, "dependency_snapshot"),
			logging.String("dependency", dep.Name),
			logging.String("binary", dep.Command),
			logging.Bool("available", dep.Available),
			logging.String("detail", dep.Detail))
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "stalker.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
