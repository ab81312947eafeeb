package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/fileutil"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/textutil"
)

// ErrPhase marks an unknown ingestion phase.
var ErrPhase = errors.New("phase must be 1 or 2")

// Store reads and writes week record files under one data directory. A store
// is owned by a single session at a time through the queue coordinator, so
// read-modify-write sequences need no cross-process locking.
type Store struct {
	dataDir string
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithNow injects the clock used for record timestamps (primarily for tests).
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a store rooted at dataDir.
func NewStore(dataDir string, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		dataDir: dataDir,
		logger:  logging.NewComponentLogger(logger, "results"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WeekPath returns the record file path for one guild, phase, week, and clan.
func (s *Store) WeekPath(phase int, guildID string, year, week int, clan string) string {
	return filepath.Join(s.phaseDir(phase, guildID), fmt.Sprintf("%d", year),
		fmt.Sprintf("week-%d_%s.json", week, textutil.SanitizeToken(clan)))
}

func (s *Store) phaseDir(phase int, guildID string) string {
	return filepath.Join(s.dataDir, "phases", "guild_"+guildID, fmt.Sprintf("phase%d", phase))
}

func validPhase(phase int) error {
	if phase != 1 && phase != 2 {
		return fmt.Errorf("%w: got %d", ErrPhase, phase)
	}
	return nil
}

// Exists reports whether a record is already on disk for the given week.
func (s *Store) Exists(phase int, guildID string, year, week int, clan string) (bool, error) {
	if err := validPhase(phase); err != nil {
		return false, err
	}
	_, err := os.Stat(s.WeekPath(phase, guildID, year, week, clan))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat week record: %w", err)
}

// DeleteForWeek removes one week record. Reports whether a file was actually
// removed; deleting a missing record is not an error.
func (s *Store) DeleteForWeek(phase int, guildID string, year, week int, clan string) (bool, error) {
	if err := validPhase(phase); err != nil {
		return false, err
	}
	path := s.WeekPath(phase, guildID, year, week, clan)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("delete week record: %w", err)
	}
	s.logger.Info("week record deleted",
		logging.String(logging.FieldGuildID, guildID),
		logging.Int(logging.FieldPhase, phase),
		logging.String(logging.FieldWeek, fmt.Sprintf("%d-W%d", year, week)),
		logging.String(logging.FieldClan, clan),
	)
	return true, nil
}

// SavePhase1Player appends or updates one player's score in the week's
// phase-1 record. The record is created on the first player and createdBy is
// stamped only then; a player already present is updated in place. Every call
// refreshes the record's updatedAt.
func (s *Store) SavePhase1Player(guildID string, year, week int, clan string, player ScoreEntry, createdBy string) error {
	path := s.WeekPath(1, guildID, year, week, clan)
	now := s.now().UTC()

	var record Phase1Record
	err := fileutil.ReadJSON(path, &record)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		record = Phase1Record{CreatedBy: createdBy, CreatedAt: now}
	default:
		return fmt.Errorf("read week record: %w", err)
	}

	updated := false
	for i := range record.Players {
		if record.Players[i].UserID != player.UserID {
			continue
		}
		record.Players[i].DisplayName = player.DisplayName
		record.Players[i].Score = player.Score
		stamp := now
		record.Players[i].UpdatedAt = &stamp
		updated = true
		break
	}
	if !updated {
		record.Players = append(record.Players, Player{
			UserID:      player.UserID,
			DisplayName: player.DisplayName,
			Score:       player.Score,
			CreatedAt:   now,
		})
	}
	record.UpdatedAt = now

	if err := fileutil.WriteJSONAtomic(path, &record); err != nil {
		return fmt.Errorf("write week record: %w", err)
	}
	return nil
}

// SavePhase2Results writes the complete phase-2 record in one atomic write.
// Summary entries should already hold the per-player sums across rounds.
func (s *Store) SavePhase2Results(guildID string, year, week int, clan string, rounds []Round, summary []ScoreEntry, createdBy string) error {
	now := s.now().UTC()
	record := Phase2Record{
		Rounds:    rounds,
		Summary:   Round{Players: summary},
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	path := s.WeekPath(2, guildID, year, week, clan)
	if err := fileutil.WriteJSONAtomic(path, &record); err != nil {
		return fmt.Errorf("write week record: %w", err)
	}
	s.logger.Info("phase 2 record saved",
		logging.String(logging.FieldGuildID, guildID),
		logging.String(logging.FieldWeek, fmt.Sprintf("%d-W%d", year, week)),
		logging.String(logging.FieldClan, clan),
		logging.Int("players", len(summary)),
	)
	return nil
}

// GetPhase1 loads one phase-1 record, or nil when absent.
func (s *Store) GetPhase1(guildID string, year, week int, clan string) (*Phase1Record, error) {
	var record Phase1Record
	err := fileutil.ReadJSON(s.WeekPath(1, guildID, year, week, clan), &record)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetPhase2 loads one phase-2 record, or nil when absent.
func (s *Store) GetPhase2(guildID string, year, week int, clan string) (*Phase2Record, error) {
	var record Phase2Record
	err := fileutil.ReadJSON(s.WeekPath(2, guildID, year, week, clan), &record)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetRaw loads one record file verbatim for display, or nil when absent.
func (s *Store) GetRaw(phase int, guildID string, year, week int, clan string) (json.RawMessage, error) {
	if err := validPhase(phase); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.WeekPath(phase, guildID, year, week, clan))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// GetSummary condenses one week record, or returns nil when absent.
func (s *Store) GetSummary(phase int, guildID string, year, week int, clan string) (*Summary, error) {
	if err := validPhase(phase); err != nil {
		return nil, err
	}
	if phase == 1 {
		record, err := s.GetPhase1(guildID, year, week, clan)
		if err != nil || record == nil {
			return nil, err
		}
		scores := make([]int, 0, len(record.Players))
		for _, p := range record.Players {
			scores = append(scores, p.Score)
		}
		return &Summary{
			PlayerCount: len(record.Players),
			Top30Sum:    top30Sum(scores),
			CreatedBy:   record.CreatedBy,
			CreatedAt:   record.CreatedAt,
			UpdatedAt:   record.UpdatedAt,
		}, nil
	}

	record, err := s.GetPhase2(guildID, year, week, clan)
	if err != nil || record == nil {
		return nil, err
	}
	scores := make([]int, 0, len(record.Summary.Players))
	for _, p := range record.Summary.Players {
		scores = append(scores, p.Score)
	}
	return &Summary{
		PlayerCount: len(record.Summary.Players),
		Top30Sum:    top30Sum(scores),
		CreatedBy:   record.CreatedBy,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}, nil
}

func top30Sum(scores []int) int {
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))
	sum := 0
	for i, score := range scores {
		if i >= 30 {
			break
		}
		sum += score
	}
	return sum
}
