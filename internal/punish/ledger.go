package punish

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/Thashar/Stalker-sub001/internal/fileutil"
	"github.com/Thashar/Stalker-sub001/internal/logging"
)

// removalReason labels history entries written by RemovePoints.
const removalReason = "Manual removal"

// Entry is one signed change in a user's points.
type Entry struct {
	Points int       `json:"points"`
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
}

// UserRecord is one user's current points and full history.
type UserRecord struct {
	Points  int     `json:"points"`
	History []Entry `json:"history"`
}

// ledgerData is the on-disk shape: guildID -> userID -> record.
type ledgerData map[string]map[string]*UserRecord

// Ledger owns the punishment files. All operations lock, re-read, mutate,
// and write back, so concurrent processes stay consistent.
type Ledger struct {
	path       string
	markerPath string
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures the ledger.
type Option func(*Ledger)

// WithNow injects the clock used for history stamps (primarily for tests).
func WithNow(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger builds a ledger over the given files.
func NewLedger(path, markerPath string, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		path:       path,
		markerPath: markerPath,
		logger:     logging.NewComponentLogger(logger, "punish"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// withLock holds the cross-process lock for path while fn runs.
func withLock(path string, fn func() error) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

func (l *Ledger) read() (ledgerData, error) {
	var data ledgerData
	err := fileutil.ReadJSON(l.path, &data)
	if errors.Is(err, fs.ErrNotExist) {
		return make(ledgerData), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read punishment ledger: %w", err)
	}
	if data == nil {
		data = make(ledgerData)
	}
	return data, nil
}

func (l *Ledger) write(data ledgerData) error {
	if err := fileutil.WriteJSONAtomic(l.path, data); err != nil {
		return fmt.Errorf("write punishment ledger: %w", err)
	}
	return nil
}

// AddPoints raises a user's points by delta and appends the history entry.
// Guild and user records are created on demand. Returns the updated record.
func (l *Ledger) AddPoints(guildID, userID string, delta int, reason string) (*UserRecord, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("points to add must be positive, got %d", delta)
	}

	var result *UserRecord
	err := withLock(l.path, func() error {
		data, err := l.read()
		if err != nil {
			return err
		}
		guild := data[guildID]
		if guild == nil {
			guild = make(map[string]*UserRecord)
			data[guildID] = guild
		}
		record := guild[userID]
		if record == nil {
			record = &UserRecord{}
			guild[userID] = record
		}
		record.Points += delta
		record.History = append(record.History, Entry{Points: delta, Reason: reason, Date: l.now().UTC()})
		result = cloneRecord(record)
		return l.write(data)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("punishment points added",
		logging.String(logging.FieldGuildID, guildID),
		logging.String(logging.FieldUserID, userID),
		logging.Int("delta", delta),
		logging.Int("points", result.Points),
	)
	return result, nil
}

// RemovePoints lowers a user's points by delta, clamped at zero, and appends
// the corresponding negative history entry. A user who reaches zero is
// dropped from the ledger. Returns nil when the guild or user is unknown.
func (l *Ledger) RemovePoints(guildID, userID string, delta int) (*UserRecord, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("points to remove must be positive, got %d", delta)
	}

	var result *UserRecord
	err := withLock(l.path, func() error {
		data, err := l.read()
		if err != nil {
			return err
		}
		guild := data[guildID]
		if guild == nil {
			return nil
		}
		record := guild[userID]
		if record == nil {
			return nil
		}
		record.Points -= delta
		if record.Points < 0 {
			record.Points = 0
		}
		record.History = append(record.History, Entry{Points: -delta, Reason: removalReason, Date: l.now().UTC()})
		result = cloneRecord(record)
		if record.Points == 0 {
			delete(guild, userID)
			if len(guild) == 0 {
				delete(data, guildID)
			}
		}
		return l.write(data)
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	l.logger.Info("punishment points removed",
		logging.String(logging.FieldGuildID, guildID),
		logging.String(logging.FieldUserID, userID),
		logging.Int("delta", delta),
		logging.Int("points", result.Points),
	)
	return result, nil
}

// Get returns a user's current record, or nil when absent.
func (l *Ledger) Get(guildID, userID string) (*UserRecord, error) {
	data, err := l.read()
	if err != nil {
		return nil, err
	}
	guild := data[guildID]
	if guild == nil {
		return nil, nil
	}
	return cloneRecord(guild[userID]), nil
}

// GuildEntry pairs a user with their record for listings.
type GuildEntry struct {
	UserID string
	Record UserRecord
}

// Guild lists every punished user of a guild, highest points first.
func (l *Ledger) Guild(guildID string) ([]GuildEntry, error) {
	data, err := l.read()
	if err != nil {
		return nil, err
	}
	guild := data[guildID]
	entries := make([]GuildEntry, 0, len(guild))
	for userID, record := range guild {
		if record == nil {
			continue
		}
		entries = append(entries, GuildEntry{UserID: userID, Record: *cloneRecord(record)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Record.Points != entries[j].Record.Points {
			return entries[i].Record.Points > entries[j].Record.Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries, nil
}

func cloneRecord(record *UserRecord) *UserRecord {
	if record == nil {
		return nil
	}
	clone := &UserRecord{Points: record.Points}
	clone.History = append(clone.History, record.History...)
	return clone
}
