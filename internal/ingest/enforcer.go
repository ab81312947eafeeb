package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Thashar/Stalker-sub001/internal/config"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/platform"
	"github.com/Thashar/Stalker-sub001/internal/punish"
)

// warningPoints are the exact point totals that trigger a warning message
// to the guild's warning channel.
var warningPoints = map[int]bool{2: true, 3: true, 5: true}

// Enforcer applies the role and warning side effects of a user's penalty
// point total. The ledger itself never touches the gateway; the engine runs
// the enforcer after every point change.
type Enforcer struct {
	roles  platform.RoleManager
	msgr   platform.Messenger
	logger *slog.Logger
}

// NewEnforcer builds an enforcer over the gateway's role and message
// surfaces.
func NewEnforcer(adapter platform.Adapter, logger *slog.Logger) *Enforcer {
	return &Enforcer{
		roles:  adapter,
		msgr:   adapter,
		logger: logging.NewComponentLogger(logger, "punish"),
	}
}

// Apply reconciles the user's punishment roles with their point total and
// emits a warning when the total sits exactly on a warning step. Role
// targets already in the desired state surface as not-found from the
// gateway and are ignored.
func (f *Enforcer) Apply(ctx context.Context, guild *config.Guild, userID string, points int) error {
	p := guild.Punishment

	var errs []error
	setRole := func(roleID string, want bool) {
		if roleID == "" {
			return
		}
		var err error
		if want {
			err = f.roles.AddRole(ctx, guild.ID, userID, roleID)
		} else {
			err = f.roles.RemoveRole(ctx, guild.ID, userID, roleID)
		}
		if err != nil && !platform.IsGone(err) {
			errs = append(errs, fmt.Errorf("set role %s=%v: %w", roleID, want, err))
		}
	}

	wantPunishment := p.PunishmentThreshold > 0 && points >= p.PunishmentThreshold
	wantLotteryBan := p.LotteryBanThreshold > 0 && points >= p.LotteryBanThreshold
	setRole(p.PunishmentRoleID, wantPunishment)
	setRole(p.LotteryBanRoleID, wantLotteryBan)

	if warningPoints[points] && p.WarningChannelID != "" {
		msg := fmt.Sprintf("<@%s> now has %d penalty point(s).", userID, points)
		if _, err := f.msgr.SendMessage(ctx, p.WarningChannelID, msg); err != nil {
			errs = append(errs, fmt.Errorf("send warning: %w", err))
		}
	}

	if len(errs) > 0 {
		logging.WarnWithContext(f.logger, "punishment enforcement incomplete", "enforcement_failed",
			logging.String(logging.FieldGuildID, guild.ID),
			logging.String(logging.FieldUserID, userID),
			logging.Int("points", points),
			logging.Error(errors.Join(errs...)),
			logging.String(logging.FieldImpact, "roles or warning may be out of date"),
		)
		return errors.Join(errs...)
	}
	return nil
}

// AddPunishment raises a user's penalty points and enforces the resulting
// role and warning state through the gateway.
func (e *Engine) AddPunishment(ctx context.Context, guildID, userID string, delta int, reason string) (*punish.UserRecord, error) {
	guild, ok := e.cfg.GuildByID(guildID)
	if !ok {
		return nil, fmt.Errorf("guild %s not configured", guildID)
	}
	record, err := e.ledger.AddPoints(guildID, userID, delta, reason)
	if err != nil {
		return nil, err
	}
	if err := e.enforcer.Apply(ctx, guild, userID, record.Points); err != nil {
		return record, err
	}
	return record, nil
}

// RemovePunishment lowers a user's penalty points and reconciles their
// roles. A missing guild or user returns nil without error.
func (e *Engine) RemovePunishment(ctx context.Context, guildID, userID string, delta int) (*punish.UserRecord, error) {
	guild, ok := e.cfg.GuildByID(guildID)
	if !ok {
		return nil, fmt.Errorf("guild %s not configured", guildID)
	}
	record, err := e.ledger.RemovePoints(guildID, userID, delta)
	if err != nil || record == nil {
		return record, err
	}
	if err := e.enforcer.Apply(ctx, guild, userID, record.Points); err != nil {
		return record, err
	}
	return record, nil
}

// RunWeeklyDecay applies the idempotent weekly point decay and reports it to
// the notifier when anything changed.
func (e *Engine) RunWeeklyDecay(ctx context.Context) (*punish.DecayResult, error) {
	result, err := e.ledger.WeeklyDecay(e.now())
	if err != nil {
		return nil, err
	}
	if !result.AlreadyRan && e.notifier != nil {
		if notifyErr := e.notifier.NotifyDecayCompleted(ctx, result.WeekKey, result.CleanedUsers); notifyErr != nil {
			e.logger.Warn("decay notification failed", logging.Error(notifyErr))
		}
	}
	return result, nil
}
