package roster

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/fileutil"
)

// Snapshot freezes a resolved roster for the lifetime of one session.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	GuildID   string    `json:"guildId"`
	UserID    string    `json:"userId"`
	Count     int       `json:"count"`
	Members   []Member  `json:"members"`
}

// NewSnapshot stamps a roster with its provenance.
func NewSnapshot(guildID, userID string, members []Member) *Snapshot {
	return &Snapshot{
		Timestamp: time.Now().UTC(),
		GuildID:   guildID,
		UserID:    userID,
		Count:     len(members),
		Members:   members,
	}
}

// SaveSnapshot writes the snapshot atomically, creating parent directories.
func SaveSnapshot(path string, snap *Snapshot) error {
	return fileutil.WriteJSONAtomic(path, snap)
}

// LoadSnapshot reads a snapshot back. A missing file surfaces fs.ErrNotExist.
func LoadSnapshot(path string) (*Snapshot, error) {
	var snap Snapshot
	if err := fileutil.ReadJSON(path, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// DeleteSnapshot removes a snapshot file. Deleting one that is already gone
// is not an error.
func DeleteSnapshot(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// DisplayNames extracts the member display names in roster order.
func (s *Snapshot) DisplayNames() []string {
	names := make([]string, 0, len(s.Members))
	for _, member := range s.Members {
		names = append(names, member.DisplayName)
	}
	return names
}
