// Package notify fans settings changes out to observers.
//
// The settings store publishes one Change per option path that a reload or
// an explicit set altered, followed by a reload event for the layer. The
// application subscribes to re-run the reconciler on the active buffer.
package notify

import (
	"slices"
	"sync"
)

// ChangeType represents the type of settings change.
type ChangeType int

const (
	// ChangeSet indicates a value was added or updated.
	ChangeSet ChangeType = iota

	// ChangeDelete indicates a value was removed.
	ChangeDelete

	// ChangeReload closes the changes of one layer update.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change is one settings change.
type Change struct {
	// Path is the dot-separated settings path, such as
	// "vim-options.tabstop" or "[go].vim-options.expandtab".
	// Empty for reload events.
	Path string

	Type ChangeType

	OldValue any
	NewValue any

	// Layer names the layer the change happened in.
	Layer string
}

// Observer is called when settings change.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier == nil {
		return
	}
	s.notifier.mu.Lock()
	delete(s.notifier.observers, s.id)
	s.notifier.mu.Unlock()
}

// Notifier delivers changes synchronously, in subscription order, on the
// goroutine that publishes them.
type Notifier struct {
	mu        sync.RWMutex
	observers map[uint64]Observer
	nextID    uint64
	closed    bool
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{observers: make(map[uint64]Observer)}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers[id] = observer
	return &Subscription{id: id, notifier: n}
}

// Notify sends a change to every observer. Changes sent after Close are
// dropped. Observers run outside the lock, so they may subscribe or notify.
func (n *Notifier) Notify(change Change) {
	for _, obs := range n.snapshot() {
		obs(change)
	}
}

// Close stops delivery. It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	n.closed = true
	n.observers = make(map[uint64]Observer)
	n.mu.Unlock()
}

func (n *Notifier) snapshot() []Observer {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return nil
	}
	ids := make([]uint64, 0, len(n.observers))
	for id := range n.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Observer, len(ids))
	for i, id := range ids {
		out[i] = n.observers[id]
	}
	return out
}

// Batch collects changes and delivers them together.
type Batch struct {
	notifier *Notifier
	mu       sync.Mutex
	changes  []Change
}

// NewBatch creates a new batch for collecting changes.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{notifier: n}
}

// Add queues a change.
func (b *Batch) Add(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, change)
}

// Commit sends the queued changes in the order they were added.
func (b *Batch) Commit() {
	b.mu.Lock()
	changes := b.changes
	b.changes = nil
	b.mu.Unlock()

	for _, change := range changes {
		b.notifier.Notify(change)
	}
}
