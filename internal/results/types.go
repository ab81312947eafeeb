package results

import "time"

// Player is one scored roster member inside a phase-1 week record.
type Player struct {
	UserID      string     `json:"userId"`
	DisplayName string     `json:"displayName"`
	Score       int        `json:"score"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Phase1Record is the on-disk shape of one phase-1 week file.
type Phase1Record struct {
	Players   []Player  `json:"players"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ScoreEntry is one player's score without bookkeeping timestamps, used by
// phase-2 rounds and summaries.
type ScoreEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Round groups the score entries of one phase-2 round.
type Round struct {
	Players []ScoreEntry `json:"players"`
}

// Phase2Record is the on-disk shape of one phase-2 week file. Summary scores
// are the per-player sums across the three rounds.
type Phase2Record struct {
	Rounds    []Round   `json:"rounds"`
	Summary   Round     `json:"summary"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary condenses one week file for listings and status output.
type Summary struct {
	PlayerCount int
	Top30Sum    int
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WeekInfo describes one (year, week) with records on disk.
type WeekInfo struct {
	Year      int
	Week      int
	Clans     []string
	CreatedAt time.Time
}
