package interfaces

import "context"

// Notifier delivers a formatted message to a channel or chat.
// chatRef is a numeric chat id or an @channel reference.
type Notifier interface {
	Send(ctx context.Context, chatRef, html string) (messageID int, err error)
	FileURL(fileID string) (string, error)
}
