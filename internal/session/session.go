package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/align"
	"github.com/Thashar/Stalker-sub001/internal/platform"
)

// Stage represents where a session stands in its confirmation flow.
type Stage string

const (
	StageAwaitingImages     Stage = "awaiting_images"
	StageConfirmingComplete Stage = "confirming_complete"
	StageResolvingConflicts Stage = "resolving_conflicts"
	StageFinalConfirmation  Stage = "final_confirmation"
)

// phase2Rounds is how many scoring rounds a Phase 2 ingestion collects.
const phase2Rounds = 3

var (
	ErrWrongStage      = errors.New("operation not allowed in current stage")
	ErrNoImages        = errors.New("no images received yet")
	ErrUnknownConflict = errors.New("no open conflict for nickname")
	ErrInvalidValue    = errors.New("value was not observed for nickname")
	ErrRoundsExhausted = errors.New("all rounds already collected")
)

// ImageResult carries the readings extracted from one processed screenshot.
// A non-empty Err marks a recognition failure; such images stay recorded but
// contribute nothing to aggregation.
type ImageResult struct {
	ImageID string
	Players []align.PlayerScore
	Err     string
}

// ConflictValue is one observed score and how many images reported it.
type ConflictValue struct {
	Value int
	Count int
}

// Conflict is a nickname whose images disagree in a way that needs a user
// decision. Values are ordered by descending occurrence, first observation
// breaking ties.
type Conflict struct {
	Nick   string
	Values []ConflictValue
}

// Stats summarizes a finalized result set.
type Stats struct {
	UniqueNicks int
	AboveZero   int
	ZeroCount   int
	Top30Sum    int
}

// Session is one user's ingestion in one guild. Identity fields are fixed at
// creation; everything else mutates under the session's lock.
type Session struct {
	ID        string
	UserID    string
	GuildID   string
	ChannelID string
	Clan      string
	Phase     int
	CreatedAt time.Time

	mu           sync.Mutex
	stage        Stage
	currentRound int
	images       []ImageResult
	aggregated   map[string][]int
	order        []string
	conflicts    []Conflict
	resolved     map[string]int
	rounds       [][]align.PlayerScore
	downloaded   []string
	snapshotPath string
	interaction  platform.InteractionHandle
	hasHandle    bool
	lastActivity time.Time
}

func newSession(id, userID, guildID, channelID, clan string, phase int) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		UserID:       userID,
		GuildID:      guildID,
		ChannelID:    channelID,
		Clan:         clan,
		Phase:        phase,
		CreatedAt:    now,
		stage:        StageAwaitingImages,
		currentRound: 1,
		aggregated:   make(map[string][]int),
		resolved:     make(map[string]int),
		lastActivity: now,
	}
}

// Stage returns the current stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// CurrentRound returns the round being collected, always 1 for Phase 1.
func (s *Session) CurrentRound() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRound
}

// Touch refreshes the inactivity clock.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
}

func (s *Session) touchLocked() {
	s.lastActivity = time.Now()
}

// LastActivity returns the time of the last state change.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Expired reports whether the session has been idle longer than timeout.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActivity) > timeout
}

// AddImage records one processed screenshot and rebuilds the per-nickname
// score vectors from scratch.
func (s *Session) AddImage(res ImageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageAwaitingImages {
		return fmt.Errorf("%w: add image in %s", ErrWrongStage, s.stage)
	}
	s.images = append(s.images, res)
	s.rebuildAggregationLocked()
	s.touchLocked()
	return nil
}

// ImageCount returns how many screenshots this round has received,
// recognition failures included.
func (s *Session) ImageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// rebuildAggregationLocked derives the score vectors from all non-errored
// images, tracking the order nicknames first appeared.
func (s *Session) rebuildAggregationLocked() {
	s.aggregated = make(map[string][]int)
	s.order = s.order[:0]
	for _, img := range s.images {
		if img.Err != "" {
			continue
		}
		for _, p := range img.Players {
			if _, seen := s.aggregated[p.Nick]; !seen {
				s.order = append(s.order, p.Nick)
			}
			s.aggregated[p.Nick] = append(s.aggregated[p.Nick], p.Score)
		}
	}
}

// BeginConfirmation moves to the completeness check. At least one image must
// have arrived.
func (s *Session) BeginConfirmation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageAwaitingImages {
		return fmt.Errorf("%w: begin confirmation in %s", ErrWrongStage, s.stage)
	}
	if len(s.images) == 0 {
		return ErrNoImages
	}
	s.stage = StageConfirmingComplete
	s.touchLocked()
	return nil
}

// ResumeUploads steps back to collecting images when the user is not done
// after all.
func (s *Session) ResumeUploads() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageConfirmingComplete {
		return fmt.Errorf("%w: resume uploads in %s", ErrWrongStage, s.stage)
	}
	s.stage = StageAwaitingImages
	s.touchLocked()
	return nil
}

// ConfirmComplete classifies the aggregated vectors. Nicknames where exactly
// one value repeats are accepted silently; the rest become conflicts and the
// session waits for decisions. With no conflicts the session is ready to
// save.
func (s *Session) ConfirmComplete() ([]Conflict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageConfirmingComplete {
		return nil, fmt.Errorf("%w: confirm complete in %s", ErrWrongStage, s.stage)
	}
	s.identifyConflictsLocked()
	if len(s.conflicts) > 0 {
		s.stage = StageResolvingConflicts
	} else {
		s.stage = StageFinalConfirmation
	}
	s.touchLocked()
	return s.pendingConflictsLocked(), nil
}

// ResolveConflict records the user's choice for one conflicted nickname. The
// value must be one of the observed readings. Once every conflict has a
// decision the session advances to final confirmation. Returns how many
// conflicts remain open.
func (s *Session) ResolveConflict(nick string, value int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageResolvingConflicts {
		return 0, fmt.Errorf("%w: resolve conflict in %s", ErrWrongStage, s.stage)
	}
	conflict := s.openConflictLocked(nick)
	if conflict == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownConflict, nick)
	}
	valid := false
	for _, v := range conflict.Values {
		if v.Value == value {
			valid = true
			break
		}
	}
	if !valid {
		return 0, fmt.Errorf("%w: %s=%d", ErrInvalidValue, nick, value)
	}
	s.resolved[nick] = value
	remaining := len(s.pendingConflictsLocked())
	if remaining == 0 {
		s.stage = StageFinalConfirmation
	}
	s.touchLocked()
	return remaining, nil
}

// PendingConflicts lists conflicts still waiting for a decision, in
// presentation order.
func (s *Session) PendingConflicts() []Conflict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingConflictsLocked()
}

func (s *Session) pendingConflictsLocked() []Conflict {
	var out []Conflict
	for _, c := range s.conflicts {
		if _, done := s.resolved[c.Nick]; !done {
			out = append(out, c)
		}
	}
	return out
}

func (s *Session) openConflictLocked(nick string) *Conflict {
	for i := range s.conflicts {
		if s.conflicts[i].Nick != nick {
			continue
		}
		if _, done := s.resolved[nick]; done {
			return nil
		}
		return &s.conflicts[i]
	}
	return nil
}

// identifyConflictsLocked splits multi-valued vectors into silent accepts
// and open conflicts.
func (s *Session) identifyConflictsLocked() {
	s.conflicts = nil
	for _, nick := range s.order {
		values := countValues(s.aggregated[nick])
		if len(values) < 2 {
			continue
		}
		sort.SliceStable(values, func(i, j int) bool { return values[i].Count > values[j].Count })
		repeated := 0
		repeatedValue := 0
		for _, v := range values {
			if v.Count >= 2 {
				repeated++
				repeatedValue = v.Value
			}
		}
		if repeated == 1 {
			s.resolved[nick] = repeatedValue
			continue
		}
		s.conflicts = append(s.conflicts, Conflict{Nick: nick, Values: values})
	}
}

// countValues tallies distinct scores in first-observation order.
func countValues(scores []int) []ConflictValue {
	var values []ConflictValue
	index := make(map[int]int)
	for _, score := range scores {
		if at, ok := index[score]; ok {
			values[at].Count++
			continue
		}
		index[score] = len(values)
		values = append(values, ConflictValue{Value: score, Count: 1})
	}
	return values
}

// FinalResults produces the per-nickname outcome in aggregation order.
// Single-valued nicknames pass through, conflicted ones take their decided
// value, and nicknames still in conflict are dropped and reported.
func (s *Session) FinalResults() (results []align.PlayerScore, dropped []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalResultsLocked()
}

func (s *Session) finalResultsLocked() (results []align.PlayerScore, dropped []string) {
	for _, nick := range s.order {
		scores := s.aggregated[nick]
		if len(countValues(scores)) == 1 {
			results = append(results, align.PlayerScore{Nick: nick, Score: scores[0]})
			continue
		}
		if value, ok := s.resolved[nick]; ok {
			results = append(results, align.PlayerScore{Nick: nick, Score: value})
			continue
		}
		dropped = append(dropped, nick)
	}
	return results, dropped
}

// Statistics summarizes the current final results.
func (s *Session) Statistics() Stats {
	results, _ := s.FinalResults()
	return statsFor(results)
}

func statsFor(results []align.PlayerScore) Stats {
	stats := Stats{UniqueNicks: len(results)}
	scores := make([]int, 0, len(results))
	for _, r := range results {
		if r.Score > 0 {
			stats.AboveZero++
		} else if r.Score == 0 {
			stats.ZeroCount++
		}
		scores = append(scores, r.Score)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))
	for i, score := range scores {
		if i >= 30 {
			break
		}
		stats.Top30Sum += score
	}
	return stats
}

// SetRosterSnapshotPath records where this session froze its roster.
func (s *Session) SetRosterSnapshotPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotPath = path
}

// RosterSnapshotPath returns the session's roster snapshot location.
func (s *Session) RosterSnapshotPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotPath
}

// AddDownloadedFile records a scratch file to delete at cleanup.
func (s *Session) AddDownloadedFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloaded = append(s.downloaded, path)
}

// DownloadedFiles lists the session's scratch files.
func (s *Session) DownloadedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.downloaded...)
}

// SetInteraction stores the public progress-message handle.
func (s *Session) SetInteraction(handle platform.InteractionHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interaction = handle
	s.hasHandle = true
}

// Interaction returns the progress-message handle, if one was stored.
func (s *Session) Interaction() (platform.InteractionHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interaction, s.hasHandle
}

// Clear empties every collection the session holds. File removal is the
// caller's job; afterwards the session keeps only its identity.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = nil
	s.aggregated = make(map[string][]int)
	s.order = nil
	s.conflicts = nil
	s.resolved = make(map[string]int)
	s.rounds = nil
	s.downloaded = nil
	s.snapshotPath = ""
	s.hasHandle = false
}
