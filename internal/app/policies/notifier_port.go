package policies

import (
	"context"
	"sync"
)

// Notification is a message for a single user.
type Notification struct {
	UserID   string
	Title    string
	Body     string
	Metadata map[string]string
}

// Notifier delivers notifications. Delivery is best effort; callers log
// failures and move on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Outbox collects notifications raised while a command runs so they can be
// sent once its transaction has committed.
type Outbox struct {
	mu    sync.Mutex
	items []Notification
}

func (o *Outbox) Add(n ...Notification) {
	o.mu.Lock()
	o.items = append(o.items, n...)
	o.mu.Unlock()
}

// Take returns the collected notifications and empties the outbox.
func (o *Outbox) Take() []Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.items
	o.items = nil
	return out
}

type notifyKey struct{}

func ContextWithOutbox(ctx context.Context, o *Outbox) context.Context {
	return context.WithValue(ctx, notifyKey{}, o)
}

func OutboxFromContext(ctx context.Context) (*Outbox, bool) {
	o, ok := ctx.Value(notifyKey{}).(*Outbox)
	return o, ok && o != nil
}

// Enqueue schedules notifications for delivery after commit. Without a
// collector in ctx they are dropped.
func Enqueue(ctx context.Context, n ...Notification) {
	if o, ok := OutboxFromContext(ctx); ok {
		o.Add(n...)
	}
}
