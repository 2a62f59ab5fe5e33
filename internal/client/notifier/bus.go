package notifier

import (
	"context"
	"sync"
)

// Bus connects notifiers living in the same process. A message sent by one
// endpoint is delivered asynchronously to every other endpoint.
type Bus struct {
	mu        sync.RWMutex
	endpoints []*busEndpoint
}

func NewBus() *Bus {
	return &Bus{}
}

type busEndpoint struct {
	bus *Bus
	n   *Notifier
}

// Connect attaches n to the bus and registers the bus as one of its
// channels.
func (b *Bus) Connect(n *Notifier) {
	ep := &busEndpoint{bus: b, n: n}

	b.mu.Lock()
	b.endpoints = append(b.endpoints, ep)
	b.mu.Unlock()

	n.AddChannel(ep)
}

func (e *busEndpoint) Send(ctx context.Context, cmd Command, payload Payload) error {
	e.bus.mu.RLock()
	peers := make([]*busEndpoint, 0, len(e.bus.endpoints))
	for _, p := range e.bus.endpoints {
		if p != e {
			peers = append(peers, p)
		}
	}
	e.bus.mu.RUnlock()

	ctx = context.WithoutCancel(ctx)
	for _, p := range peers {
		go p.n.Receive(ctx, cmd, clonePayload(payload))
	}
	return nil
}

func clonePayload(p Payload) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
