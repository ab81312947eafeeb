package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/Thashar/Stalker-sub001/internal/config"
	"github.com/Thashar/Stalker-sub001/internal/ingest"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/notify"
	"github.com/Thashar/Stalker-sub001/internal/punish"
	"github.com/Thashar/Stalker-sub001/internal/queue"
	"github.com/Thashar/Stalker-sub001/internal/session"
)

// LockFileName is the flock file guarding single-instance execution.
const LockFileName = "stalkerd.lock"

// Daemon coordinates the ingestion engine and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	engine   *ingest.Engine
	notifier notify.Service
	logger   *slog.Logger

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running   bool
	PID       int
	StartedAt time.Time
	LockPath  string
	DataDir   string
	Sessions  []session.Info
	Queues    []queue.GuildStatus
}

// Option configures the daemon.
type Option func(*Daemon)

// WithNow injects the clock used for decay scheduling (primarily for tests).
func WithNow(now func() time.Time) Option {
	return func(d *Daemon) {
		if now != nil {
			d.now = now
		}
	}
}

// New constructs a daemon around an initialized engine.
func New(cfg *config.Config, engine *ingest.Engine, notifier notify.Service, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || engine == nil {
		return nil, errors.New("daemon requires config and engine")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, LockFileName)
	d := &Daemon{
		cfg:      cfg,
		engine:   engine,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the daemon lock and launches the housekeeping loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another stalker daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.startedAt = d.now()
	d.running.Store(true)

	d.wg.Add(1)
	go d.housekeepingLoop(d.ctx)

	d.logger.Info("stalker daemon started",
		logging.String("lock", d.lockPath),
		logging.Duration("sweep_interval", d.cfg.SweepInterval()))
	return nil
}

func (d *Daemon) housekeepingLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.SweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Housekeep(ctx)
		}
	}
}

// Housekeep runs one pass of the periodic work: expired-session cleanup,
// reservation expiry, and (when due) the weekly punishment decay.
func (d *Daemon) Housekeep(ctx context.Context) {
	if cleaned := d.engine.SweepExpiredSessions(ctx); cleaned > 0 {
		d.logger.Info("expired sessions cleaned",
			logging.Int("session_count", cleaned),
			logging.String(logging.FieldEventType, "session_sweep"))
	}
	if expired := d.engine.SweepReservations(ctx); expired > 0 {
		d.logger.Info("queue reservations expired",
			logging.Int("reservation_count", expired),
			logging.String(logging.FieldEventType, "reservation_sweep"))
	}
	if d.decayDue() {
		if _, err := d.RunDecay(ctx); err != nil {
			logging.ErrorWithContext(d.logger, "weekly decay failed", "decay_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check data directory permissions; decay retries on the next sweep"))
		}
	}
}

// decayDue reports whether the configured decay slot has been reached. The
// ledger's per-week marker keeps repeated true results idempotent.
func (d *Daemon) decayDue() bool {
	if !d.cfg.Decay.Enabled {
		return false
	}
	now := d.now()
	if strings.ToLower(now.Weekday().String()) != d.cfg.Decay.Weekday {
		return false
	}
	return now.Hour() >= d.cfg.Decay.Hour
}

// RunDecay triggers the weekly punishment decay immediately.
func (d *Daemon) RunDecay(ctx context.Context) (*punish.DecayResult, error) {
	result, err := d.engine.RunWeeklyDecay(ctx)
	if err != nil {
		return nil, err
	}
	if !result.AlreadyRan {
		d.logger.Info("weekly decay completed",
			logging.String("week", result.WeekKey),
			logging.Int("cleaned_users", result.CleanedUsers),
			logging.Int("removed_users", result.RemovedUsers),
			logging.String(logging.FieldEventType, "decay_completed"))
	}
	return result, nil
}

// AddPunishment adds penalty points and reconciles roles through the engine.
func (d *Daemon) AddPunishment(ctx context.Context, guildID, userID string, points int, reason string) (*punish.UserRecord, error) {
	return d.engine.AddPunishment(ctx, guildID, userID, points, reason)
}

// RemovePunishment subtracts penalty points and reconciles roles through the
// engine. A nil record means the user had no entry.
func (d *Daemon) RemovePunishment(ctx context.Context, guildID, userID string, points int) (*punish.UserRecord, error) {
	return d.engine.RemovePunishment(ctx, guildID, userID, points)
}

// TestNotification sends a test message through the configured webhook.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Webhook.URL) == "" {
		return false, "webhook url not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:   d.running.Load(),
		PID:       os.Getpid(),
		StartedAt: d.startedAt,
		LockPath:  d.lockPath,
		DataDir:   d.cfg.Paths.DataDir,
		Sessions:  d.engine.SessionInfos(),
		Queues:    d.engine.QueueStatus(),
	}
}

// Stop stops housekeeping and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String("lock", d.lockPath))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("stalker daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}
