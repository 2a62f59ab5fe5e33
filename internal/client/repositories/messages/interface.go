// Package messages stores the cross-context notification log shared by
// every client process that opens the same local database.
package messages

import (
	"context"
	"time"
)

// Message is one broadcast notification.
type Message struct {
	ID        int64
	Origin    string
	Command   string
	Payload   []byte
	CreatedAt time.Time
}

type Repository interface {
	// Append stores m and returns its id.
	Append(ctx context.Context, m *Message) (int64, error)
	// ListAfter returns up to limit messages with id > afterID, oldest first.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]*Message, error)
	// MaxID returns the id of the newest message or 0.
	MaxID(ctx context.Context) (int64, error)
	// DeleteBefore removes messages created before t.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}
