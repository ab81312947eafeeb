package ipc

import (
	"time"

	"github.com/Thashar/Stalker-sub001/internal/daemon"
	"github.com/Thashar/Stalker-sub001/internal/queue"
	"github.com/Thashar/Stalker-sub001/internal/session"
)

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// SessionStatus is the wire representation of a live ingestion session.
type SessionStatus struct {
	SessionID    string    `json:"session_id"`
	GuildID      string    `json:"guild_id"`
	UserID       string    `json:"user_id"`
	Clan         string    `json:"clan"`
	Phase        int       `json:"phase"`
	Round        int       `json:"round"`
	Stage        string    `json:"stage"`
	Images       int       `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// GuildQueueStatus is the wire representation of one guild's ingestion queue.
type GuildQueueStatus struct {
	GuildID       string    `json:"guild_id"`
	ActiveUser    string    `json:"active_user"`
	Waiting       int       `json:"waiting"`
	ReservedUser  string    `json:"reserved_user"`
	ReservedUntil time.Time `json:"reserved_until"`
}

// StatusResponse represents combined daemon runtime information.
type StatusResponse struct {
	Running    bool               `json:"running"`
	PID        int                `json:"pid"`
	StartedAt  time.Time          `json:"started_at"`
	LockPath   string             `json:"lock_path"`
	DataDir    string             `json:"data_dir"`
	SocketPath string             `json:"socket_path"`
	Sessions   []SessionStatus    `json:"sessions"`
	Queues     []GuildQueueStatus `json:"queues"`
}

// DecayRequest triggers the weekly punishment decay immediately.
type DecayRequest struct{}

// DecayResponse reports the decay outcome.
type DecayResponse struct {
	WeekKey      string `json:"week_key"`
	AlreadyRan   bool   `json:"already_ran"`
	CleanedUsers int    `json:"cleaned_users"`
	RemovedUsers int    `json:"removed_users"`
}

// PunishAddRequest adds penalty points to a user.
type PunishAddRequest struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
	Points  int    `json:"points"`
	Reason  string `json:"reason"`
}

// PunishAddResponse reports the user's new point total.
type PunishAddResponse struct {
	Points int `json:"points"`
}

// PunishRemoveRequest subtracts penalty points from a user.
type PunishRemoveRequest struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
	Points  int    `json:"points"`
}

// PunishRemoveResponse reports whether the user had an entry and their
// remaining points.
type PunishRemoveResponse struct {
	Found  bool `json:"found"`
	Points int  `json:"points"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

func fromSessionInfo(info session.Info) SessionStatus {
	return SessionStatus{
		SessionID:    info.SessionID,
		GuildID:      info.GuildID,
		UserID:       info.UserID,
		Clan:         info.Clan,
		Phase:        info.Phase,
		Round:        info.Round,
		Stage:        string(info.Stage),
		Images:       info.Images,
		CreatedAt:    info.CreatedAt,
		LastActivity: info.LastActivity,
	}
}

func fromGuildStatus(status queue.GuildStatus) GuildQueueStatus {
	return GuildQueueStatus{
		GuildID:       status.GuildID,
		ActiveUser:    status.ActiveUser,
		Waiting:       status.Waiting,
		ReservedUser:  status.ReservedUser,
		ReservedUntil: status.ReservedUntil,
	}
}

func fromDaemonStatus(status daemon.Status, socketPath string) StatusResponse {
	resp := StatusResponse{
		Running:    status.Running,
		PID:        status.PID,
		StartedAt:  status.StartedAt,
		LockPath:   status.LockPath,
		DataDir:    status.DataDir,
		SocketPath: socketPath,
	}
	for _, info := range status.Sessions {
		resp.Sessions = append(resp.Sessions, fromSessionInfo(info))
	}
	for _, q := range status.Queues {
		resp.Queues = append(resp.Queues, fromGuildStatus(q))
	}
	return resp
}
