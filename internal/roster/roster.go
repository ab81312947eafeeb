// Package roster builds the player roster an ingestion session scores
// against.
//
// The roster is the set of guild members carrying the requester's target
// role. A requester must hold exactly one of the configured target roles;
// holding none or several yields an empty roster rather than an error, and
// the session layer turns that into user guidance. Snapshots freeze a roster
// to a file so a long-running session keeps matching against the names it
// started with.
package roster

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Thashar/Stalker-sub001/internal/config"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/platform"
)

// Member is one roster entry.
type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Service resolves rosters through the platform adapter.
type Service struct {
	fetcher platform.MemberFetcher
	logger  *slog.Logger
}

// NewService builds a roster service. The fetcher should already carry the
// adapter's bounded retry policy.
func NewService(fetcher platform.MemberFetcher, logger *slog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "roster"),
	}
}

// Roster returns the members sharing the requester's single target role, in
// the order the gateway lists them. An ambiguous or absent target role
// returns an empty roster and no error.
func (s *Service) Roster(ctx context.Context, guild *config.Guild, requesterID string) ([]Member, error) {
	members, err := s.fetcher.FetchMembers(ctx, guild.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch members for guild %s: %w", guild.ID, err)
	}

	var requester *platform.Member
	for i := range members {
		if members[i].UserID == requesterID {
			requester = &members[i]
			break
		}
	}
	if requester == nil {
		s.logger.Warn("requester not found among guild members",
			logging.String(logging.FieldGuildID, guild.ID),
			logging.String(logging.FieldUserID, requesterID),
			logging.String(logging.FieldEventType, "roster_requester_missing"),
		)
		return nil, nil
	}

	var target string
	matches := 0
	for _, roleID := range guild.TargetRoles {
		if requester.HasRole(roleID) {
			target = roleID
			matches++
		}
	}
	if matches != 1 {
		s.logger.Warn("requester target role ambiguous or missing",
			logging.String(logging.FieldGuildID, guild.ID),
			logging.String(logging.FieldUserID, requesterID),
			logging.Int("matching_roles", matches),
			logging.String(logging.FieldEventType, "roster_target_role_unresolved"),
		)
		return nil, nil
	}

	var roster []Member
	for _, member := range members {
		if member.HasRole(target) {
			roster = append(roster, Member{UserID: member.UserID, DisplayName: member.DisplayName})
		}
	}

	s.logger.Info("roster resolved",
		logging.String(logging.FieldGuildID, guild.ID),
		logging.String("target_role", target),
		logging.Int("member_count", len(roster)),
	)
	return roster, nil
}

// SnapshotPath returns the scratch file path for a session's roster snapshot.
func SnapshotPath(scratchDir, sessionID string) string {
	return filepath.Join(scratchDir, fmt.Sprintf("role_nicks_snapshot_%s.json", sessionID))
}
