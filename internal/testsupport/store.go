package testsupport

import (
	"testing"

	"github.com/Thashar/Stalker-sub001/internal/config"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/punish"
	"github.com/Thashar/Stalker-sub001/internal/results"
)

// NewStore opens a results store over the config's data directory.
func NewStore(t testing.TB, cfg *config.Config, opts ...results.Option) *results.Store {
	t.Helper()
	return results.NewStore(cfg.Paths.DataDir, logging.NewNop(), opts...)
}

// NewLedger opens a punishment ledger over the config's data directory.
func NewLedger(t testing.TB, cfg *config.Config, opts ...punish.Option) *punish.Ledger {
	t.Helper()
	return punish.NewLedger(cfg.PunishmentsPath(), cfg.WeeklyRemovalPath(), logging.NewNop(), opts...)
}
