package punish

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/fileutil"
	"github.com/Thashar/Stalker-sub001/internal/isoweek"
	"github.com/Thashar/Stalker-sub001/internal/logging"
)

// decayReason labels history entries written by WeeklyDecay.
const decayReason = "Weekly decay"

// Marker records that a week's decay already ran.
type Marker struct {
	Date         time.Time `json:"date"`
	CleanedUsers int       `json:"cleanedUsers"`
}

// markerData is the on-disk shape of the removal file: week key -> marker.
type markerData map[string]Marker

// DecayResult reports what a WeeklyDecay call did.
type DecayResult struct {
	// WeekKey is the scoring week the decay was keyed by.
	WeekKey string
	// AlreadyRan is true when a marker for the week existed and nothing
	// was changed.
	AlreadyRan bool
	// CleanedUsers counts users whose points were reduced.
	CleanedUsers int
	// RemovedUsers counts users dropped from the ledger at zero points.
	RemovedUsers int
}

// WeeklyDecay subtracts one point from every punished user across all
// guilds, at most once per scoring week. The week is derived from now using
// the same Monday-shifted rule as score records, so the decay marker and the
// week files always agree on labels. Users reaching zero are removed.
func (l *Ledger) WeeklyDecay(now time.Time) (*DecayResult, error) {
	weekKey := isoweek.Key(now)
	result := &DecayResult{WeekKey: weekKey}

	err := withLock(l.path, func() error {
		// Re-read the marker under the lock: another process may have
		// finished this week's decay while we were waiting.
		markers, err := l.readMarkers()
		if err != nil {
			return err
		}
		if _, done := markers[weekKey]; done {
			result.AlreadyRan = true
			return nil
		}

		data, err := l.read()
		if err != nil {
			return err
		}
		stamp := now.UTC()
		for guildID, guild := range data {
			for userID, record := range guild {
				if record == nil || record.Points <= 0 {
					delete(guild, userID)
					continue
				}
				record.Points--
				record.History = append(record.History, Entry{Points: -1, Reason: decayReason, Date: stamp})
				result.CleanedUsers++
				if record.Points == 0 {
					delete(guild, userID)
					result.RemovedUsers++
				}
			}
			if len(guild) == 0 {
				delete(data, guildID)
			}
		}
		if err := l.write(data); err != nil {
			return err
		}

		markers[weekKey] = Marker{Date: stamp, CleanedUsers: result.CleanedUsers}
		return l.writeMarkers(markers)
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyRan {
		l.logger.Info("weekly decay already recorded", logging.String("week", weekKey))
	} else {
		l.logger.Info("weekly decay applied",
			logging.String("week", weekKey),
			logging.Int("cleaned_users", result.CleanedUsers),
			logging.Int("removed_users", result.RemovedUsers),
		)
	}
	return result, nil
}

// LastDecay returns the marker for the given week, or nil when the decay
// has not run yet that week.
func (l *Ledger) LastDecay(weekKey string) (*Marker, error) {
	markers, err := l.readMarkers()
	if err != nil {
		return nil, err
	}
	marker, ok := markers[weekKey]
	if !ok {
		return nil, nil
	}
	return &marker, nil
}

func (l *Ledger) readMarkers() (markerData, error) {
	var markers markerData
	err := fileutil.ReadJSON(l.markerPath, &markers)
	if errors.Is(err, fs.ErrNotExist) {
		return make(markerData), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read weekly removal markers: %w", err)
	}
	if markers == nil {
		markers = make(markerData)
	}
	return markers, nil
}

func (l *Ledger) writeMarkers(markers markerData) error {
	if err := fileutil.WriteJSONAtomic(l.markerPath, markers); err != nil {
		return fmt.Errorf("write weekly removal markers: %w", err)
	}
	return nil
}
