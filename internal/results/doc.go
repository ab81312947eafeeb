// Package results persists finalized weekly clan scores.
//
// Records live as pretty-printed JSON files under
// phases/guild_{guildID}/phase{1|2}/{year}/week-{week}_{clan}.json inside the
// configured data directory, one file per guild, phase, week, and clan. The
// package also owns the one-shot migration from the legacy monolithic
// phase1_results.json / phase2_results.json files into that layout.
//
// Week numbers come from internal/isoweek and carry its Monday shift.
package results
