package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Thashar/Stalker-sub001/internal/fileutil"
	"github.com/Thashar/Stalker-sub001/internal/logging"
)

// MigrationReport sums up one legacy migration run.
type MigrationReport struct {
	Phase1Count int
	Phase2Count int
	Errors      int
}

// legacyStore mirrors the monolithic pre-split layout:
// guildID -> "{week}-{year}" -> clan -> record.
type legacyStore map[string]map[string]map[string]json.RawMessage

// MigrateLegacy splits the monolithic phase1_results.json and
// phase2_results.json files in the data directory into per-week record files
// and leaves a .backup copy next to each source. Missing sources are skipped;
// per-record failures are counted and logged but do not abort the run.
// Running the migration again rewrites identical files, so it is safe to
// repeat.
func (s *Store) MigrateLegacy() (MigrationReport, error) {
	var report MigrationReport

	for _, phase := range []int{1, 2} {
		source := filepath.Join(s.dataDir, fmt.Sprintf("phase%d_results.json", phase))

		var legacy legacyStore
		err := fileutil.ReadJSON(source, &legacy)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return report, fmt.Errorf("read legacy phase %d store: %w", phase, err)
		}

		migrated := 0
		for guildID, weeks := range legacy {
			for weekKey, clans := range weeks {
				week, year, err := parseLegacyWeekKey(weekKey)
				if err != nil {
					report.Errors++
					s.logger.Warn("legacy week key skipped",
						logging.String(logging.FieldGuildID, guildID),
						logging.String(logging.FieldWeek, weekKey),
						logging.Error(err),
						logging.String(logging.FieldEventType, "legacy_week_key_invalid"),
					)
					continue
				}
				for clan, record := range clans {
					if err := s.writeLegacyRecord(phase, guildID, year, week, clan, record); err != nil {
						report.Errors++
						s.logger.Warn("legacy record skipped",
							logging.String(logging.FieldGuildID, guildID),
							logging.String(logging.FieldWeek, weekKey),
							logging.String(logging.FieldClan, clan),
							logging.Error(err),
							logging.String(logging.FieldEventType, "legacy_record_invalid"),
						)
						continue
					}
					migrated++
				}
			}
		}

		if err := fileutil.CopyFile(source, source+".backup"); err != nil {
			return report, fmt.Errorf("back up legacy phase %d store: %w", phase, err)
		}

		if phase == 1 {
			report.Phase1Count = migrated
		} else {
			report.Phase2Count = migrated
		}
		s.logger.Info("legacy store migrated",
			logging.Int(logging.FieldPhase, phase),
			logging.Int("records", migrated),
		)
	}

	return report, nil
}

// writeLegacyRecord validates the record against the phase's schema before
// writing it, so malformed legacy entries are counted instead of copied.
func (s *Store) writeLegacyRecord(phase int, guildID string, year, week int, clan string, raw json.RawMessage) error {
	path := s.WeekPath(phase, guildID, year, week, clan)
	if phase == 1 {
		var record Phase1Record
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("parse phase 1 record: %w", err)
		}
		return fileutil.WriteJSONAtomic(path, &record)
	}
	var record Phase2Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("parse phase 2 record: %w", err)
	}
	return fileutil.WriteJSONAtomic(path, &record)
}

// parseLegacyWeekKey splits the legacy "{week}-{year}" label.
func parseLegacyWeekKey(key string) (week, year int, err error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed week key %q", key)
	}
	week, err = strconv.Atoi(parts[0])
	if err != nil || week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("malformed week number in %q", key)
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil || year < 2000 {
		return 0, 0, fmt.Errorf("malformed year in %q", key)
	}
	return week, year, nil
}
