package platform

import "context"

// Disconnected is the adapter used when no chat gateway is wired in. Every
// call fails with ErrUnavailable, so the daemon can run its stores, sweepers,
// and CLI surfaces while interactive ingestion stays offline.
type Disconnected struct{}

var _ Adapter = Disconnected{}

func (Disconnected) FetchMembers(context.Context, string) ([]Member, error) {
	return nil, Wrap(ErrUnavailable, "fetch members: chat gateway not configured", nil)
}

func (Disconnected) SendMessage(context.Context, string, string) (string, error) {
	return "", Wrap(ErrUnavailable, "send message: chat gateway not configured", nil)
}

func (Disconnected) DeleteMessage(context.Context, string, string) error {
	return Wrap(ErrUnavailable, "delete message: chat gateway not configured", nil)
}

func (Disconnected) SendDirectMessage(context.Context, string, string) error {
	return Wrap(ErrUnavailable, "send direct message: chat gateway not configured", nil)
}

func (Disconnected) UpdatePrompt(context.Context, InteractionHandle, Prompt) error {
	return Wrap(ErrUnavailable, "update prompt: chat gateway not configured", nil)
}

func (Disconnected) Download(context.Context, string) ([]byte, error) {
	return nil, Wrap(ErrUnavailable, "download: chat gateway not configured", nil)
}

func (Disconnected) AddRole(context.Context, string, string, string) error {
	return Wrap(ErrUnavailable, "add role: chat gateway not configured", nil)
}

func (Disconnected) RemoveRole(context.Context, string, string, string) error {
	return Wrap(ErrUnavailable, "remove role: chat gateway not configured", nil)
}
