package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin []byte) (stdout []byte, stderr []byte, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps Tesseract CLI interactions.
type Client struct {
	binary      string
	language    string
	whitelist   string
	pageSegMode int
	timeout     time.Duration
	exec        Executor
}

// New constructs a recognition client.
func New(binary, language, whitelist string, pageSegMode, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("recognition binary required")
	}
	client := &Client{
		binary:      binary,
		language:    strings.TrimSpace(language),
		whitelist:   whitelist,
		pageSegMode: pageSegMode,
		timeout:     time.Duration(timeoutSeconds) * time.Second,
		exec:        commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Recognize runs the engine over one image and returns the raw
// newline-separated text. Engine failure surfaces as an error carrying the
// engine's stderr.
func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", errors.New("empty image")
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"stdin", "stdout"}
	if c.language != "" {
		args = append(args, "-l", c.language)
	}
	if c.pageSegMode > 0 {
		args = append(args, "--psm", strconv.Itoa(c.pageSegMode))
	}
	if c.whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+c.whitelist)
	}

	stdout, stderr, err := c.exec.Run(runCtx, c.binary, args, image)
	if err != nil {
		detail := strings.TrimSpace(string(stderr))
		if detail != "" {
			return "", fmt.Errorf("recognition failed: %w: %s", err, firstLine(detail))
		}
		return "", fmt.Errorf("recognition failed: %w", err)
	}
	return string(stdout), nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, stderr.Bytes(), fmt.Errorf("engine timed out: %w", ctx.Err())
		}
		return nil, stderr.Bytes(), err
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}
