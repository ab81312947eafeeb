package imageprep

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/logging"
)

// Sink archives processed frames to a directory for inspection, capped at a
// fixed number of files. The oldest files make room for new ones. A nil Sink
// discards everything.
type Sink struct {
	mu       sync.Mutex
	dir      string
	maxFiles int
	logger   *slog.Logger
}

// NewSink builds a sink writing into dir with at most maxFiles entries.
func NewSink(dir string, maxFiles int, logger *slog.Logger) *Sink {
	return &Sink{
		dir:      dir,
		maxFiles: maxFiles,
		logger:   logging.NewComponentLogger(logger, "imageprep"),
	}
}

// Save writes one processed frame and prunes older files past the cap.
func (s *Sink) Save(name string, data []byte) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create processed dir: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write processed image: %w", err)
	}
	return s.prune()
}

type sinkEntry struct {
	path    string
	modTime time.Time
}

// prune removes oldest files until the cap is satisfied.
func (s *Sink) prune() error {
	entries, err := s.scan()
	if err != nil {
		return err
	}
	for len(entries) > s.maxFiles {
		oldest := entries[0]
		if err := os.Remove(oldest.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("prune processed image %q: %w", oldest.path, err)
		}
		s.logger.Debug("pruned processed image",
			logging.String("path", oldest.path),
			logging.Int("remaining", len(entries)-1),
		)
		entries = entries[1:]
	}
	return nil
}

// scan lists the sink's files sorted oldest first.
func (s *Sink) scan() ([]sinkEntry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan processed dir: %w", err)
	}
	entries := make([]sinkEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, sinkEntry{
			path:    filepath.Join(s.dir, de.Name()),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].modTime.Before(entries[j].modTime) })
	return entries, nil
}
