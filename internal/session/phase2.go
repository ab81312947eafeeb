package session

import (
	"fmt"

	"github.com/Thashar/Stalker-sub001/internal/align"
)

// StartNextRound freezes the finished round's results and resets the
// collection state for the next one. Only a Phase 2 session at final
// confirmation with rounds left can advance.
func (s *Session) StartNextRound() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Phase != 2 {
		return fmt.Errorf("rounds only exist in phase 2")
	}
	if s.stage != StageFinalConfirmation {
		return fmt.Errorf("%w: next round in %s", ErrWrongStage, s.stage)
	}
	if s.currentRound >= phase2Rounds {
		return ErrRoundsExhausted
	}

	results, _ := s.finalResultsLocked()
	s.rounds = append(s.rounds, results)

	s.images = nil
	s.aggregated = make(map[string][]int)
	s.order = nil
	s.conflicts = nil
	s.resolved = make(map[string]int)
	s.currentRound++
	s.stage = StageAwaitingImages
	s.touchLocked()
	return nil
}

// SumPhase2Results returns all three rounds plus the per-nickname sum across
// them. The last round is taken live, so the session must sit at final
// confirmation of round three.
func (s *Session) SumPhase2Results() (rounds [][]align.PlayerScore, summary []align.PlayerScore, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Phase != 2 {
		return nil, nil, fmt.Errorf("rounds only exist in phase 2")
	}
	if s.stage != StageFinalConfirmation {
		return nil, nil, fmt.Errorf("%w: sum rounds in %s", ErrWrongStage, s.stage)
	}
	if s.currentRound != phase2Rounds {
		return nil, nil, fmt.Errorf("round %d of %d still in progress", s.currentRound, phase2Rounds)
	}

	final, _ := s.finalResultsLocked()
	rounds = make([][]align.PlayerScore, 0, phase2Rounds)
	for _, r := range s.rounds {
		rounds = append(rounds, append([]align.PlayerScore(nil), r...))
	}
	rounds = append(rounds, final)

	totals := make(map[string]int)
	var order []string
	for _, round := range rounds {
		for _, p := range round {
			if _, seen := totals[p.Nick]; !seen {
				order = append(order, p.Nick)
			}
			totals[p.Nick] += p.Score
		}
	}
	summary = make([]align.PlayerScore, 0, len(order))
	for _, nick := range order {
		summary = append(summary, align.PlayerScore{Nick: nick, Score: totals[nick]})
	}
	return rounds, summary, nil
}
