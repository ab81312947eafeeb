// Package align matches recognized text lines to roster nicknames and
// extracts each line's trailing score reading.
//
// Recognition output is noisy: nicknames arrive with dropped or swapped
// characters, and the digit 0 shows up as a small family of lookalike tokens
// such as "o", "(0" or "ze". The matcher therefore runs three similarity
// tiers per nickname (substring, fixed-budget sliding window, ordered
// subsequence with a length penalty) with length-dependent acceptance
// thresholds, and the score extractor classifies line tails against an
// enumerated zero-lookalike table before falling back to digit runs.
//
// The tuning constants were calibrated against live scoreboard captures.
// Changing any of them shifts which noisy lines are accepted, so treat them
// as a set.
package align
