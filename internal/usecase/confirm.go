package usecase

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ConfirmPrompt is one ticket awaiting a user decision, keyed so the reply
// can be matched back to the blocked submission.
type ConfirmPrompt struct {
	ID     int         `json:"id"`
	Ticket OrderTicket `json:"ticket"`
}

// ConfirmBridge turns the synchronous ConfirmFunc contract into a prompt/reply
// round trip with whatever UI channel is listening. Confirm blocks the caller
// until a listener resolves the prompt or the timeout passes; every path that
// cannot produce an explicit approval declines.
type ConfirmBridge struct {
	timeout time.Duration
	log     *zap.Logger

	mu        sync.Mutex
	nextID    int
	pending   map[int]chan bool
	nextSubID int
	callbacks map[int]func(ConfirmPrompt)
}

func NewConfirmBridge(timeout time.Duration, log *zap.Logger) *ConfirmBridge {
	return &ConfirmBridge{
		timeout:   timeout,
		log:       log,
		pending:   make(map[int]chan bool),
		callbacks: make(map[int]func(ConfirmPrompt)),
	}
}

// OnPrompt registers a listener for outgoing prompts. The returned func
// unregisters it.
func (b *ConfirmBridge) OnPrompt(cb func(ConfirmPrompt)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSubID
	b.nextSubID++
	b.callbacks[id] = cb

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.callbacks, id)
	}
}

// Confirm implements ConfirmFunc. With no listener connected there is nobody
// to ask, so the order is declined immediately rather than auto-approved.
func (b *ConfirmBridge) Confirm(ticket OrderTicket) bool {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	reply := make(chan bool, 1)
	b.pending[id] = reply
	callbacks := make([]func(ConfirmPrompt), 0, len(b.callbacks))
	for _, cb := range b.callbacks {
		callbacks = append(callbacks, cb)
	}
	b.mu.Unlock()

	if len(callbacks) == 0 {
		b.drop(id)
		b.log.Warn("order declined, no confirmation channel connected")
		return false
	}

	prompt := ConfirmPrompt{ID: id, Ticket: ticket}
	for _, cb := range callbacks {
		cb(prompt)
	}

	select {
	case approved := <-reply:
		return approved
	case <-time.After(b.timeout):
		b.drop(id)
		b.log.Warn("order declined, confirmation timed out", zap.Int("prompt_id", id))
		return false
	}
}

// Resolve delivers a user's decision. Unknown or already-resolved prompt ids
// are ignored; only the first reply counts.
func (b *ConfirmBridge) Resolve(id int, approved bool) {
	b.mu.Lock()
	reply, ok := b.pending[id]
	delete(b.pending, id)
	b.mu.Unlock()

	if ok {
		reply <- approved
	}
}

func (b *ConfirmBridge) drop(id int) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}
