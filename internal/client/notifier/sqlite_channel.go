package notifier

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/client/repositories/messages"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/google/uuid"
)

// ErrInvalidInterval is returned by Listen for a non-positive poll interval.
var ErrInvalidInterval = errors.New("invalid poll interval")

const (
	defaultRetention = 10 * time.Minute
	pollBatch        = 100
)

// SQLiteChannel exchanges notifications with other processes through the
// channel_messages table of a shared database. Each channel has a random
// origin and never delivers its own messages back to itself.
type SQLiteChannel struct {
	db        *sql.DB
	origin    string
	logger    logging.Logger
	retention time.Duration
	now       func() time.Time

	mu     sync.Mutex
	seeded bool
	lastID int64
}

func NewSQLiteChannel(db *sql.DB, logger logging.Logger) *SQLiteChannel {
	if logger == nil {
		logger = logging.Nop()
	}
	origin := uuid.NewString()
	return &SQLiteChannel{
		db:        db,
		origin:    origin,
		logger:    logger.With("origin", origin),
		retention: defaultRetention,
		now:       time.Now,
	}
}

func (c *SQLiteChannel) Origin() string {
	return c.origin
}

// Send appends the notification and prunes messages older than the
// retention window in the same transaction.
func (c *SQLiteChannel) Send(ctx context.Context, cmd Command, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", cmd, err)
	}
	now := c.now()

	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := messages.NewSQLiteRepository(tx)
		if _, err := repo.Append(ctx, &messages.Message{
			Origin:    c.origin,
			Command:   string(cmd),
			Payload:   body,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		_, err := repo.DeleteBefore(ctx, now.Add(-c.retention))
		return err
	})
}

// Seed skips every message already stored so that only notifications sent
// from now on are delivered.
func (c *SQLiteChannel) Seed(ctx context.Context) error {
	id, err := messages.NewSQLiteRepository(c.db).MaxID(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.lastID = id
	c.seeded = true
	c.mu.Unlock()
	return nil
}

// Poll delivers messages from other origins stored since the previous
// poll to n and returns how many were delivered.
func (c *SQLiteChannel) Poll(ctx context.Context, n *Notifier) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	repo := messages.NewSQLiteRepository(c.db)
	delivered := 0
	for {
		batch, err := repo.ListAfter(ctx, c.lastID, pollBatch)
		if err != nil {
			return delivered, err
		}
		for _, m := range batch {
			c.lastID = m.ID
			if m.Origin == c.origin {
				continue
			}
			var payload Payload
			if err := json.Unmarshal(m.Payload, &payload); err != nil {
				c.logger.Warn(ctx, "dropping malformed message", "id", m.ID, "error", err)
				continue
			}
			n.Receive(ctx, Command(m.Command), payload)
			delivered++
		}
		if len(batch) < pollBatch {
			return delivered, nil
		}
	}
}

// Listen polls every interval until ctx is done. Messages stored before
// the first call are skipped unless Seed was called explicitly.
func (c *SQLiteChannel) Listen(ctx context.Context, interval time.Duration, n *Notifier) error {
	if interval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidInterval, interval)
	}

	c.mu.Lock()
	seeded := c.seeded
	c.mu.Unlock()
	if !seeded {
		if err := c.Seed(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.Poll(ctx, n); err != nil {
				c.logger.Warn(ctx, "channel poll failed", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
