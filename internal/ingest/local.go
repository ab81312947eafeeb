package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/align"
	"github.com/Thashar/Stalker-sub001/internal/config"
	"github.com/Thashar/Stalker-sub001/internal/imageprep"
	"github.com/Thashar/Stalker-sub001/internal/session"
)

// LocalFileResult is the outcome of one local image through the pipeline.
type LocalFileResult struct {
	Path    string
	Players []align.PlayerScore
	Err     string
}

// LocalResult is the outcome of a full local run: per-file readings plus the
// aggregated view the interactive workflow would present.
type LocalResult struct {
	Files     []LocalFileResult
	Conflicts []session.Conflict
	Final     []align.PlayerScore
	Dropped   []string
	Stats     session.Stats
}

// RunLocal drives the preprocess, recognition, alignment, and aggregation
// pipeline over local image files against a fixed roster. It exercises the
// exact code path of an interactive session without a chat gateway, for
// development and tuning.
func RunLocal(ctx context.Context, cfg *config.Config, recog Recognizer, rosterNames []string, paths []string, logger *slog.Logger) (*LocalResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files given")
	}
	if len(rosterNames) == 0 {
		return nil, fmt.Errorf("empty roster")
	}

	params := prepParams(cfg.Preprocess)
	mgr := session.NewManager(time.Hour, logger)
	sess, err := mgr.Create("local", "local", "local", "local", 1)
	if err != nil {
		return nil, err
	}

	out := &LocalResult{}
	for i, path := range paths {
		fileRes := LocalFileResult{Path: path}
		imgRes := session.ImageResult{ImageID: fmt.Sprintf("file-%d", i)}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			fileRes.Err = readErr.Error()
		} else if processed, prepErr := imageprep.Process(data, params); prepErr != nil {
			fileRes.Err = prepErr.Error()
		} else if text, recErr := recog.Recognize(ctx, processed); recErr != nil {
			fileRes.Err = recErr.Error()
		} else {
			fileRes.Players = align.ExtractAllPlayersWithScores(text, rosterNames)
		}

		imgRes.Players = fileRes.Players
		imgRes.Err = fileRes.Err
		if err := sess.AddImage(imgRes); err != nil {
			return nil, err
		}
		out.Files = append(out.Files, fileRes)
	}

	if err := sess.BeginConfirmation(); err != nil {
		return nil, err
	}
	conflicts, err := sess.ConfirmComplete()
	if err != nil {
		return nil, err
	}
	out.Conflicts = conflicts
	out.Final, out.Dropped = sess.FinalResults()
	out.Stats = sess.Statistics()
	return out, nil
}
