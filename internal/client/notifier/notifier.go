// Package notifier broadcasts identity transitions (sign-in, sign-out,
// password change, deletion) to handlers in this process and, through
// channels, to other client processes.
//
// Local delivery is synchronous. Remote delivery is fire-and-forget: a
// failing channel is logged and skipped, never reported to the caller.
package notifier

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/accountkeeper/internal/logging"
)

// Handler receives a notification payload.
type Handler func(ctx context.Context, payload Payload)

// Channel carries notifications to other contexts.
type Channel interface {
	Send(ctx context.Context, cmd Command, payload Payload) error
}

type subscription struct {
	id uint64
	h  Handler
}

type Notifier struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Command][]subscription
	channels []Channel
	logger   logging.Logger
}

func New(logger logging.Logger, channels ...Channel) *Notifier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Notifier{
		handlers: make(map[Command][]subscription),
		channels: channels,
		logger:   logger,
	}
}

// AddChannel registers another remote channel.
func (n *Notifier) AddChannel(ch Channel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.channels = append(n.channels, ch)
}

// On registers h for cmd and returns a function that removes it.
func (n *Notifier) On(cmd Command, h Handler) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.handlers[cmd] = append(n.handlers[cmd], subscription{id: id, h: h})

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		subs := n.handlers[cmd]
		for i, s := range subs {
			if s.id == id {
				n.handlers[cmd] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Trigger calls every local handler of cmd in registration order.
func (n *Notifier) Trigger(ctx context.Context, cmd Command, payload Payload) {
	n.mu.RLock()
	subs := append([]subscription(nil), n.handlers[cmd]...)
	n.mu.RUnlock()

	for _, s := range subs {
		s.h(ctx, payload)
	}
}

// TriggerRemote sends cmd to every channel. Payload fields outside the
// command's schema are dropped.
func (n *Notifier) TriggerRemote(ctx context.Context, cmd Command, payload Payload) {
	n.mu.RLock()
	channels := append([]Channel(nil), n.channels...)
	n.mu.RUnlock()

	filtered := payload.Filter(cmd)
	for _, ch := range channels {
		if err := ch.Send(ctx, cmd, filtered); err != nil {
			n.logger.Warn(ctx, "remote notification failed", "command", string(cmd), "error", err)
		}
	}
}

// TriggerAll notifies local handlers and remote channels.
func (n *Notifier) TriggerAll(ctx context.Context, cmd Command, payload Payload) {
	n.Trigger(ctx, cmd, payload)
	n.TriggerRemote(ctx, cmd, payload)
}

// Receive delivers a notification that arrived from another context to the
// local handlers. Unknown commands are ignored.
func (n *Notifier) Receive(ctx context.Context, cmd Command, payload Payload) {
	if !Known(cmd) {
		n.logger.Debug(ctx, "ignoring unknown remote command", "command", string(cmd))
		return
	}
	n.Trigger(ctx, cmd, payload)
}
