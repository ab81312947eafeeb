package ingest

import (
	"context"

	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/platform"
)

// SweepExpiredSessions tears down every session idle past the inactivity
// timeout: files removed, channel told, slot released with the promotion
// cascade. Returns how many sessions were cleaned.
func (e *Engine) SweepExpiredSessions(ctx context.Context) int {
	expired := e.sessions.Sweep(e.now())
	for _, sess := range expired {
		e.cleanupFiles(sess)
		sess.Clear()

		msg := "Your ingestion session expired after inactivity and was cleaned up. Start again when ready."
		if handle, ok := sess.Interaction(); ok {
			e.editPrompt(ctx, handle, platform.Prompt{Content: msg})
		} else if _, err := e.adapter.SendMessage(ctx, sess.ChannelID, msg); err != nil {
			e.logger.Warn("expiry message not delivered",
				logging.String(logging.FieldSessionID, sess.ID),
				logging.Error(err),
			)
		}

		e.releaseSlot(ctx, sess.GuildID)

		if e.notifier != nil {
			guildName := sess.GuildID
			if guild, ok := e.cfg.GuildByID(sess.GuildID); ok {
				guildName = guild.Name
			}
			if err := e.notifier.NotifySessionExpired(ctx, guildName, sess.UserID); err != nil {
				e.logger.Warn("expiry notification failed", logging.Error(err))
			}
		}
	}
	return len(expired)
}

// SweepReservations expires every overdue queue reservation, telling the
// loser their turn lapsed and cascading to the next waiter. Returns how many
// reservations expired.
func (e *Engine) SweepReservations(ctx context.Context) int {
	expiries := e.coord.ExpireDue(e.now())
	for _, exp := range expiries {
		msg := "Your reserved ingestion turn expired. You were removed from the queue; invoke the command again to rejoin."
		if err := e.adapter.SendDirectMessage(ctx, exp.LostUserID, msg); err != nil {
			e.logger.Warn("turn-lost notice not delivered",
				logging.String(logging.FieldGuildID, exp.GuildID),
				logging.String(logging.FieldUserID, exp.LostUserID),
				logging.Error(err),
			)
		}
		e.deliverQueueNotices(ctx, exp.Promoted, exp.Positions)
	}
	return len(expiries)
}

// ExpireReservation force-expires one user's reservation, for a waiter who
// walks away explicitly.
func (e *Engine) ExpireReservation(ctx context.Context, guildID, userID string) bool {
	exp, ok := e.coord.ExpireReservation(guildID, userID)
	if !ok {
		return false
	}
	e.deliverQueueNotices(ctx, exp.Promoted, exp.Positions)
	return true
}
