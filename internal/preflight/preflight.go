package preflight

import (
	"context"

	"github.com/Thashar/Stalker-sub001/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Preprocess.SaveProcessed {
		results = append(results, CheckDirectoryAccess("Processed images directory", cfg.Paths.ProcessedDir))
	}

	results = append(results, CheckDiskSpace("Data disk space", cfg.Paths.DataDir))

	if cfg.Webhook.URL != "" {
		results = append(results, CheckWebhook(ctx, cfg.Webhook.URL))
	}

	return results
}
