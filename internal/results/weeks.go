package results

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/fileutil"
	"github.com/Thashar/Stalker-sub001/internal/logging"
)

// parseWeekFileName extracts the week number and clan token from a record
// file name of the form "week-{week}_{clan}.json".
func parseWeekFileName(name string) (week int, clan string, ok bool) {
	if !strings.HasPrefix(name, "week-") || !strings.HasSuffix(name, ".json") {
		return 0, "", false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(name, "week-"), ".json")
	idx := strings.IndexByte(body, '_')
	if idx <= 0 || idx == len(body)-1 {
		return 0, "", false
	}
	week, err := strconv.Atoi(body[:idx])
	if err != nil || week < 1 || week > 53 {
		return 0, "", false
	}
	return week, body[idx+1:], true
}

// GetAvailableWeeks scans the guild's phase directory and reports one entry
// per (year, week) with the clans present and the earliest createdAt across
// their files. Entries come back newest first.
func (s *Store) GetAvailableWeeks(phase int, guildID string) ([]WeekInfo, error) {
	if err := validPhase(phase); err != nil {
		return nil, err
	}

	root := s.phaseDir(phase, guildID)
	years, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan phase directory: %w", err)
	}

	type weekKey struct{ year, week int }
	found := make(map[weekKey]*WeekInfo)

	for _, yearEntry := range years {
		if !yearEntry.IsDir() {
			continue
		}
		year, err := strconv.Atoi(yearEntry.Name())
		if err != nil {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, yearEntry.Name()))
		if err != nil {
			continue
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			week, clan, ok := parseWeekFileName(file.Name())
			if !ok {
				continue
			}
			createdAt, err := s.recordCreatedAt(phase, filepath.Join(root, yearEntry.Name(), file.Name()))
			if err != nil {
				s.logger.Warn("unreadable week record skipped",
					logging.String("path", file.Name()),
					logging.Error(err),
					logging.String(logging.FieldEventType, "week_record_unreadable"),
				)
				continue
			}

			key := weekKey{year: year, week: week}
			info, seen := found[key]
			if !seen {
				info = &WeekInfo{Year: year, Week: week, CreatedAt: createdAt}
				found[key] = info
			} else if createdAt.Before(info.CreatedAt) {
				info.CreatedAt = createdAt
			}
			info.Clans = append(info.Clans, clan)
		}
	}

	weeks := make([]WeekInfo, 0, len(found))
	for _, info := range found {
		sort.Strings(info.Clans)
		weeks = append(weeks, *info)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].Year != weeks[j].Year {
			return weeks[i].Year > weeks[j].Year
		}
		return weeks[i].Week > weeks[j].Week
	})
	return weeks, nil
}

func (s *Store) recordCreatedAt(phase int, path string) (time.Time, error) {
	if phase == 1 {
		var record Phase1Record
		if err := fileutil.ReadJSON(path, &record); err != nil {
			return time.Time{}, err
		}
		return record.CreatedAt, nil
	}
	var record Phase2Record
	if err := fileutil.ReadJSON(path, &record); err != nil {
		return time.Time{}, err
	}
	return record.CreatedAt, nil
}

// GetPlayerHistoricalBestScore scans every phase-1 record strictly before
// (beforeYear, beforeWeek) across all clans and returns the player's highest
// score. The second result is false when the player never scored.
func (s *Store) GetPlayerHistoricalBestScore(guildID, userID string, beforeWeek, beforeYear int) (int, bool, error) {
	root := s.phaseDir(1, guildID)
	years, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("scan phase directory: %w", err)
	}

	best := 0
	seen := false
	for _, yearEntry := range years {
		if !yearEntry.IsDir() {
			continue
		}
		year, err := strconv.Atoi(yearEntry.Name())
		if err != nil || year > beforeYear {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, yearEntry.Name()))
		if err != nil {
			continue
		}
		for _, file := range files {
			week, _, ok := parseWeekFileName(file.Name())
			if !ok {
				continue
			}
			if year == beforeYear && week >= beforeWeek {
				continue
			}
			var record Phase1Record
			if err := fileutil.ReadJSON(filepath.Join(root, yearEntry.Name(), file.Name()), &record); err != nil {
				continue
			}
			for _, player := range record.Players {
				if player.UserID != userID {
					continue
				}
				if !seen || player.Score > best {
					best = player.Score
					seen = true
				}
			}
		}
	}
	return best, seen, nil
}
