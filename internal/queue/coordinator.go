package queue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/logging"
)

// Admission is the outcome of TryAdmit.
type Admission struct {
	Admitted bool
	// Position is the 1-based place in line when not admitted. The holder
	// of a reservation does not count toward positions.
	Position int
}

// Promotion says a waiter now holds the guild's reservation.
type Promotion struct {
	UserID    string
	ExpiresAt time.Time
}

// PositionUpdate carries a waiter's new place in line after the queue moved.
type PositionUpdate struct {
	UserID   string
	Position int
}

// ReleaseResult reports what a slot release triggered.
type ReleaseResult struct {
	Promoted  *Promotion
	Positions []PositionUpdate
}

// ExpiryResult reports one reservation running out.
type ExpiryResult struct {
	GuildID    string
	LostUserID string
	Promoted   *Promotion
	Positions  []PositionUpdate
}

type waiter struct {
	userID  string
	addedAt time.Time
}

type reservation struct {
	userID    string
	expiresAt time.Time
}

// guildState tracks one guild's slot, line, and reservation. The reservation
// holder stays at the head of the line until admitted or expired.
type guildState struct {
	active   string
	waiting  []waiter
	reserved *reservation
}

// Coordinator enforces the one-active-session rule across guilds.
type Coordinator struct {
	mu             sync.Mutex
	guilds         map[string]*guildState
	reservationTTL time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithNow injects the clock used for reservation stamps (primarily for
// tests).
func WithNow(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCoordinator builds a coordinator granting reservations of the given
// lifetime.
func NewCoordinator(reservationTTL time.Duration, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		guilds:         make(map[string]*guildState),
		reservationTTL: reservationTTL,
		now:            time.Now,
		logger:         logging.NewComponentLogger(logger, "queue"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TryAdmit claims the guild's slot for the user. With the slot free the user
// becomes active immediately. A user holding the guild's reservation is
// admitted and the reservation consumed. Anyone else joins the line, once.
func (c *Coordinator) TryAdmit(guildID, userID string) Admission {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state(guildID)

	// A live reservation belongs to the head waiter and trumps the free
	// slot for everyone else.
	if state.reserved != nil && state.reserved.userID == userID {
		state.reserved = nil
		state.removeWaiter(userID)
		state.active = userID
		c.logger.Info("reserved slot claimed",
			logging.String(logging.FieldGuildID, guildID),
			logging.String(logging.FieldUserID, userID),
		)
		return Admission{Admitted: true}
	}

	if state.active == userID {
		return Admission{Admitted: true}
	}

	if state.active == "" && state.reserved == nil {
		state.active = userID
		c.logger.Info("session slot granted",
			logging.String(logging.FieldGuildID, guildID),
			logging.String(logging.FieldUserID, userID),
		)
		return Admission{Admitted: true}
	}

	if pos := state.position(userID); pos > 0 {
		return Admission{Position: pos}
	}
	state.waiting = append(state.waiting, waiter{userID: userID, addedAt: c.now()})
	pos := state.position(userID)
	c.logger.Info("user queued for session slot",
		logging.String(logging.FieldGuildID, guildID),
		logging.String(logging.FieldUserID, userID),
		logging.Int("position", pos),
	)
	return Admission{Position: pos}
}

// Release frees the guild's slot. The head of the line, if any, receives a
// reservation and every other waiter learns their new position. An empty
// line drops the guild's state entirely.
func (c *Coordinator) Release(guildID string) ReleaseResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.guilds[guildID]
	if !ok {
		return ReleaseResult{}
	}
	state.active = ""
	result := c.promoteLocked(guildID, state)
	c.cleanupLocked(guildID, state)
	return result
}

// promoteLocked hands the head of the line a fresh reservation.
func (c *Coordinator) promoteLocked(guildID string, state *guildState) ReleaseResult {
	if len(state.waiting) == 0 {
		return ReleaseResult{}
	}
	head := state.waiting[0]
	expires := c.now().Add(c.reservationTTL)
	state.reserved = &reservation{userID: head.userID, expiresAt: expires}
	c.logger.Info("reservation granted",
		logging.String(logging.FieldGuildID, guildID),
		logging.String(logging.FieldUserID, head.userID),
		logging.Duration("ttl", c.reservationTTL),
	)
	return ReleaseResult{
		Promoted:  &Promotion{UserID: head.userID, ExpiresAt: expires},
		Positions: state.positionUpdates(),
	}
}

// ExpireDue cascades every reservation that has run out by now. Each expiry
// drops the holder from the line and promotes the next waiter.
func (c *Coordinator) ExpireDue(now time.Time) []ExpiryResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	var results []ExpiryResult
	for guildID, state := range c.guilds {
		if state.reserved == nil || state.reserved.expiresAt.After(now) {
			continue
		}
		results = append(results, c.expireLocked(guildID, state))
	}
	return results
}

// ExpireReservation forces the user's reservation to lapse immediately.
func (c *Coordinator) ExpireReservation(guildID, userID string) (ExpiryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.guilds[guildID]
	if !ok || state.reserved == nil || state.reserved.userID != userID {
		return ExpiryResult{}, false
	}
	return c.expireLocked(guildID, state), true
}

func (c *Coordinator) expireLocked(guildID string, state *guildState) ExpiryResult {
	lost := state.reserved.userID
	state.reserved = nil
	state.removeWaiter(lost)
	c.logger.Warn("reservation expired",
		logging.String(logging.FieldGuildID, guildID),
		logging.String(logging.FieldUserID, lost),
		logging.String(logging.FieldEventType, "reservation_expired"),
	)

	promoted := c.promoteLocked(guildID, state)
	result := ExpiryResult{
		GuildID:    guildID,
		LostUserID: lost,
		Promoted:   promoted.Promoted,
		Positions:  promoted.Positions,
	}
	c.cleanupLocked(guildID, state)
	return result
}

// RemoveFromQueue detaches the user from the guild's line and drops any
// reservation they hold. Called when an admitted user actually begins, and
// when a waiter walks away.
func (c *Coordinator) RemoveFromQueue(guildID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.guilds[guildID]
	if !ok {
		return
	}
	if state.reserved != nil && state.reserved.userID == userID {
		state.reserved = nil
	}
	state.removeWaiter(userID)
	c.cleanupLocked(guildID, state)
}

// ActiveUser returns the guild's current processor, if any.
func (c *Coordinator) ActiveUser(guildID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.guilds[guildID]
	if !ok || state.active == "" {
		return "", false
	}
	return state.active, true
}

// GuildStatus is a read-only snapshot of one guild's queue.
type GuildStatus struct {
	GuildID       string
	ActiveUser    string
	Waiting       int
	ReservedUser  string
	ReservedUntil time.Time
}

// Status snapshots every guild with live queue state.
func (c *Coordinator) Status() []GuildStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]GuildStatus, 0, len(c.guilds))
	for guildID, state := range c.guilds {
		status := GuildStatus{
			GuildID:    guildID,
			ActiveUser: state.active,
			Waiting:    len(state.waiting),
		}
		if state.reserved != nil {
			status.ReservedUser = state.reserved.userID
			status.ReservedUntil = state.reserved.expiresAt
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (c *Coordinator) state(guildID string) *guildState {
	state, ok := c.guilds[guildID]
	if !ok {
		state = &guildState{}
		c.guilds[guildID] = state
	}
	return state
}

// cleanupLocked forgets a guild once nothing references it.
func (c *Coordinator) cleanupLocked(guildID string, state *guildState) {
	if state.active == "" && len(state.waiting) == 0 && state.reserved == nil {
		delete(c.guilds, guildID)
	}
}

func (s *guildState) removeWaiter(userID string) {
	for i, w := range s.waiting {
		if w.userID == userID {
			s.waiting = append(s.waiting[:i], s.waiting[i+1:]...)
			return
		}
	}
}

// position is the user's 1-based place in line, not counting a head that
// already holds the reservation. Zero means not waiting.
func (s *guildState) position(userID string) int {
	pos := 0
	for _, w := range s.waiting {
		if s.reserved != nil && s.reserved.userID == w.userID {
			continue
		}
		pos++
		if w.userID == userID {
			return pos
		}
	}
	return 0
}

// positionUpdates lists the new positions of everyone still waiting behind
// the reservation holder.
func (s *guildState) positionUpdates() []PositionUpdate {
	var updates []PositionUpdate
	pos := 0
	for _, w := range s.waiting {
		if s.reserved != nil && s.reserved.userID == w.userID {
			continue
		}
		pos++
		updates = append(updates, PositionUpdate{UserID: w.userID, Position: pos})
	}
	return updates
}
