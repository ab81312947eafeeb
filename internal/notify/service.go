// Package notify delivers operational events to the configured logging
// webhook.
//
// The default implementation posts JSON messages to the webhook URL from
// config.toml and degrades to a no-op when no URL is configured. Enumerated
// event methods cover session lifecycle, weekly decay, and migration so
// callers emit consistent messages without duplicating HTTP glue.
//
// All engine code depends only on the Service interface.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Thashar/Stalker-sub001/internal/config"
)

const userAgent = "Stalker-Go/0.1.0"

// Service defines the notification surface exposed to the engine and CLI.
type Service interface {
	NotifySessionStarted(ctx context.Context, guildName, clan string, phase int, userName string) error
	NotifySessionCompleted(ctx context.Context, guildName, clan string, phase, playerCount, top30Sum int) error
	NotifySessionExpired(ctx context.Context, guildName, userName string) error
	NotifyDecayCompleted(ctx context.Context, weekKey string, cleanedUsers int) error
	NotifyMigrationCompleted(ctx context.Context, phase1Count, phase2Count, errorCount int) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a webhook-backed service when a URL is configured and a
// no-op otherwise. Delivery failures are returned to the caller; they are
// never fatal to the operation that triggered them.
func NewService(cfg *config.Config) Service {
	url := strings.TrimSpace(cfg.Webhook.URL)
	if url == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Webhook.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookService{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		sessions: cfg.Webhook.Sessions,
		decay:    cfg.Webhook.Decay,
		errors:   cfg.Webhook.Errors,
		caser:    cases.Title(language.Polish),
	}
}

type webhookService struct {
	url      string
	client   *http.Client
	sessions bool
	decay    bool
	errors   bool
	caser    cases.Caser
}

func (w *webhookService) NotifySessionStarted(ctx context.Context, guildName, clan string, phase int, userName string) error {
	if !w.sessions {
		return nil
	}
	return w.send(ctx, fmt.Sprintf("Phase %d session started on %s for clan %s by %s",
		phase, strings.TrimSpace(guildName), w.caser.String(strings.TrimSpace(clan)), strings.TrimSpace(userName)))
}

func (w *webhookService) NotifySessionCompleted(ctx context.Context, guildName, clan string, phase, playerCount, top30Sum int) error {
	if !w.sessions {
		return nil
	}
	return w.send(ctx, fmt.Sprintf("Phase %d results saved on %s for clan %s: %d players, top30 sum %d",
		phase, strings.TrimSpace(guildName), w.caser.String(strings.TrimSpace(clan)), playerCount, top30Sum))
}

func (w *webhookService) NotifySessionExpired(ctx context.Context, guildName, userName string) error {
	if !w.sessions {
		return nil
	}
	return w.send(ctx, fmt.Sprintf("Session by %s on %s expired after inactivity and was cleaned up",
		strings.TrimSpace(userName), strings.TrimSpace(guildName)))
}

func (w *webhookService) NotifyDecayCompleted(ctx context.Context, weekKey string, cleanedUsers int) error {
	if !w.decay {
		return nil
	}
	return w.send(ctx, fmt.Sprintf("Weekly punishment decay %s complete: %d users reduced", weekKey, cleanedUsers))
}

func (w *webhookService) NotifyMigrationCompleted(ctx context.Context, phase1Count, phase2Count, errorCount int) error {
	msg := fmt.Sprintf("Legacy results migration complete: %d phase-1 and %d phase-2 records", phase1Count, phase2Count)
	if errorCount > 0 {
		msg = fmt.Sprintf("%s, %d records skipped with errors", msg, errorCount)
	}
	return w.send(ctx, msg)
}

func (w *webhookService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !w.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" in ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return w.send(ctx, builder.String())
}

func (w *webhookService) TestNotification(ctx context.Context) error {
	return w.send(ctx, "Notification system test")
}

type webhookPayload struct {
	Content string `json:"content"`
}

func (w *webhookService) send(ctx context.Context, message string) error {
	if w == nil || w.client == nil {
		return nil
	}

	body, err := json.Marshal(webhookPayload{Content: message})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySessionStarted(context.Context, string, string, int, string) error { return nil }
func (noopService) NotifySessionCompleted(context.Context, string, string, int, int, int) error {
	return nil
}
func (noopService) NotifySessionExpired(context.Context, string, string) error      { return nil }
func (noopService) NotifyDecayCompleted(context.Context, string, int) error         { return nil }
func (noopService) NotifyMigrationCompleted(context.Context, int, int, int) error   { return nil }
func (noopService) NotifyError(context.Context, error, string) error                { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
