package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Thashar/Stalker-sub001/internal/logging"
)

// ErrSessionExists is returned when a user already runs a session in the
// guild.
var ErrSessionExists = errors.New("user already has an active session")

type sessionKey struct {
	guildID string
	userID  string
}

// Manager owns all live sessions, keyed by guild and user, and destroys the
// ones idle past the inactivity timeout.
type Manager struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session
	timeout  time.Duration
	logger   *slog.Logger
}

// NewManager builds a manager with the given inactivity timeout.
func NewManager(timeout time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[sessionKey]*Session),
		timeout:  timeout,
		logger:   logging.NewComponentLogger(logger, "session"),
	}
}

// Create starts a new session for the user. A user runs at most one session
// per guild.
func (m *Manager) Create(userID, guildID, channelID, clan string, phase int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{guildID: guildID, userID: userID}
	if _, exists := m.sessions[key]; exists {
		return nil, ErrSessionExists
	}
	s := newSession(uuid.NewString(), userID, guildID, channelID, clan, phase)
	m.sessions[key] = s
	m.logger.Info("session created",
		logging.String(logging.FieldSessionID, s.ID),
		logging.String(logging.FieldGuildID, guildID),
		logging.String(logging.FieldUserID, userID),
		logging.String(logging.FieldClan, clan),
		logging.Int(logging.FieldPhase, phase),
	)
	return s, nil
}

// Get returns the user's session in the guild, if any.
func (m *Manager) Get(guildID, userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionKey{guildID: guildID, userID: userID}]
	return s, ok
}

// Remove detaches the user's session and returns it so the caller can clean
// up its files.
func (m *Manager) Remove(guildID, userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{guildID: guildID, userID: userID}
	s, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	return s, ok
}

// Sweep detaches every session idle past the timeout and returns them for
// cleanup.
func (m *Manager) Sweep(now time.Time) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []*Session
	for key, s := range m.sessions {
		if !s.Expired(now, m.timeout) {
			continue
		}
		delete(m.sessions, key)
		expired = append(expired, s)
		m.logger.Warn("session expired",
			logging.String(logging.FieldSessionID, s.ID),
			logging.String(logging.FieldGuildID, s.GuildID),
			logging.String(logging.FieldUserID, s.UserID),
			logging.String(logging.FieldEventType, "session_expired"),
		)
	}
	return expired
}

// Len returns how many sessions are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Info is a read-only snapshot of one live session for status reporting.
type Info struct {
	SessionID    string
	GuildID      string
	UserID       string
	Clan         string
	Phase        int
	Round        int
	Stage        Stage
	Images       int
	CreatedAt    time.Time
	LastActivity time.Time
}

// Infos snapshots every live session.
func (m *Manager) Infos() []Info {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, Info{
			SessionID:    s.ID,
			GuildID:      s.GuildID,
			UserID:       s.UserID,
			Clan:         s.Clan,
			Phase:        s.Phase,
			Round:        s.CurrentRound(),
			Stage:        s.Stage(),
			Images:       s.ImageCount(),
			CreatedAt:    s.CreatedAt,
			LastActivity: s.LastActivity(),
		})
	}
	return infos
}
