// Package platformtest provides a scriptable in-memory platform adapter for
// engine and service tests.
package platformtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Thashar/Stalker-sub001/internal/platform"
)

// SentMessage records one SendMessage call.
type SentMessage struct {
	ChannelID string
	Content   string
	MessageID string
}

// PromptUpdate records one UpdatePrompt call.
type PromptUpdate struct {
	Handle platform.InteractionHandle
	Prompt platform.Prompt
}

// RoleChange records one role grant or revoke.
type RoleChange struct {
	GuildID string
	UserID  string
	RoleID  string
}

// DirectMessage records one SendDirectMessage call.
type DirectMessage struct {
	UserID  string
	Content string
}

// Fake implements platform.Adapter with scripted failures and full call
// recording. The zero value is not usable; construct with New.
type Fake struct {
	mu sync.Mutex

	Members map[string][]platform.Member
	Files   map[string][]byte

	// FetchErrs is consumed one error per FetchMembers call; once drained,
	// calls succeed. Use it to script transient failures ahead of success.
	FetchErrs []error

	SendErr     error
	DeleteErr   error
	DMErr       error
	PromptErrs  []error
	DownloadErr error
	RoleErr     error

	sent        []SentMessage
	deleted     []SentMessage
	dms         []DirectMessage
	prompts     []PromptUpdate
	roleGrants  []RoleChange
	roleRevokes []RoleChange
	nextMessage int
}

// New returns an empty fake adapter.
func New() *Fake {
	return &Fake{
		Members: make(map[string][]platform.Member),
		Files:   make(map[string][]byte),
	}
}

var _ platform.Adapter = (*Fake)(nil)

func (f *Fake) FetchMembers(_ context.Context, guildID string) ([]platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.FetchErrs) > 0 {
		err := f.FetchErrs[0]
		f.FetchErrs = f.FetchErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	members := f.Members[guildID]
	out := make([]platform.Member, len(members))
	copy(out, members)
	return out, nil
}

func (f *Fake) SendMessage(_ context.Context, channelID, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return "", f.SendErr
	}
	f.nextMessage++
	id := fmt.Sprintf("m%d", f.nextMessage)
	f.sent = append(f.sent, SentMessage{ChannelID: channelID, Content: content, MessageID: id})
	return id, nil
}

func (f *Fake) DeleteMessage(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.deleted = append(f.deleted, SentMessage{ChannelID: channelID, MessageID: messageID})
	return nil
}

func (f *Fake) SendDirectMessage(_ context.Context, userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DMErr != nil {
		return f.DMErr
	}
	f.dms = append(f.dms, DirectMessage{UserID: userID, Content: content})
	return nil
}

func (f *Fake) UpdatePrompt(_ context.Context, handle platform.InteractionHandle, prompt platform.Prompt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.PromptErrs) > 0 {
		err := f.PromptErrs[0]
		f.PromptErrs = f.PromptErrs[1:]
		if err != nil {
			return err
		}
	}
	f.prompts = append(f.prompts, PromptUpdate{Handle: handle, Prompt: prompt})
	return nil
}

func (f *Fake) Download(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DownloadErr != nil {
		return nil, f.DownloadErr
	}
	data, ok := f.Files[url]
	if !ok {
		return nil, platform.Wrap(platform.ErrNotFound, "download "+url, nil)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (f *Fake) AddRole(_ context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RoleErr != nil {
		return f.RoleErr
	}
	f.roleGrants = append(f.roleGrants, RoleChange{GuildID: guildID, UserID: userID, RoleID: roleID})
	return nil
}

func (f *Fake) RemoveRole(_ context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RoleErr != nil {
		return f.RoleErr
	}
	f.roleRevokes = append(f.roleRevokes, RoleChange{GuildID: guildID, UserID: userID, RoleID: roleID})
	return nil
}

// Sent returns a copy of all recorded SendMessage calls.
func (f *Fake) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.sent...)
}

// Deleted returns a copy of all recorded DeleteMessage calls.
func (f *Fake) Deleted() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.deleted...)
}

// DirectMessages returns a copy of all recorded SendDirectMessage calls.
func (f *Fake) DirectMessages() []DirectMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DirectMessage(nil), f.dms...)
}

// Prompts returns a copy of all recorded UpdatePrompt calls.
func (f *Fake) Prompts() []PromptUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PromptUpdate(nil), f.prompts...)
}

// LastPrompt returns the most recent prompt update, if any.
func (f *Fake) LastPrompt() (PromptUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return PromptUpdate{}, false
	}
	return f.prompts[len(f.prompts)-1], true
}

// RoleGrants returns a copy of all recorded AddRole calls.
func (f *Fake) RoleGrants() []RoleChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RoleChange(nil), f.roleGrants...)
}

// RoleRevokes returns a copy of all recorded RemoveRole calls.
func (f *Fake) RoleRevokes() []RoleChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RoleChange(nil), f.roleRevokes...)
}
