package platform

import "context"

// Member is one guild member as the gateway sees it.
type Member struct {
	UserID      string
	DisplayName string
	RoleIDs     []string
}

// HasRole reports whether the member carries the given role.
func (m Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Attachment describes an uploaded file the engine may download.
type Attachment struct {
	ID       string
	Filename string
	URL      string
	Size     int64
}

// InteractionHandle identifies the public reply a session owns. The gateway
// issues it when a session starts and the engine edits that reply for every
// stage prompt.
type InteractionHandle struct {
	ChannelID string
	MessageID string
	Token     string
}

// Button is one choice rendered under a prompt. ID comes back verbatim in the
// button event when a user clicks it.
type Button struct {
	ID    string
	Label string
}

// Prompt is the full desired state of a session's public reply.
type Prompt struct {
	Content string
	Buttons []Button
}

// MemberFetcher lists the members of a guild. Implementations page through
// the gateway themselves and return the complete set.
type MemberFetcher interface {
	FetchMembers(ctx context.Context, guildID string) ([]Member, error)
}

// Messenger posts and removes plain channel messages.
type Messenger interface {
	SendMessage(ctx context.Context, channelID, content string) (messageID string, err error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// DirectMessenger delivers out-of-band notices straight to a user. Queue
// promotions and reservation expiries use this so waiters hear about their
// turn without watching the channel.
type DirectMessenger interface {
	SendDirectMessage(ctx context.Context, userID, content string) error
}

// PromptEditor rewrites the public reply owned by a session.
type PromptEditor interface {
	UpdatePrompt(ctx context.Context, handle InteractionHandle, prompt Prompt) error
}

// Downloader fetches attachment bytes.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// RoleManager grants and revokes guild roles.
type RoleManager interface {
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
}

// Adapter is the full gateway surface the engine is wired against.
type Adapter interface {
	MemberFetcher
	Messenger
	DirectMessenger
	PromptEditor
	Downloader
	RoleManager
}
