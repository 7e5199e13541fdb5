package memory

import (
	"context"
	"sync"

	appoutbox "rentflow/internal/app/outbox"
)

// Publisher relays one committed event record.
type Publisher interface {
	PublishRecord(ctx context.Context, record appoutbox.EventRecord) error
}

// Outbox keeps committed event records in memory until Flush hands them to
// the publisher. Without a publisher, flushed records are only retained in
// the published log.
type Outbox struct {
	mu        sync.Mutex
	pending   []appoutbox.EventRecord
	published []appoutbox.EventRecord
	publisher Publisher
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// SetPublisher installs the relay used by Flush.
func (o *Outbox) SetPublisher(p Publisher) {
	o.mu.Lock()
	o.publisher = p
	o.mu.Unlock()
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.append(record)
	return nil
}

func (o *Outbox) append(records ...appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	o.pending = append(o.pending, records...)
	o.mu.Unlock()
}

// Flush publishes pending records in order. It stops at the first failure
// and keeps that record and the rest for the next flush.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.pending) > 0 {
		rec := o.pending[0]
		if o.publisher != nil {
			if err := o.publisher.PublishRecord(ctx, rec); err != nil {
				return err
			}
		}
		o.published = append(o.published, rec)
		o.pending = o.pending[1:]
	}
	return nil
}

// Pending returns committed records not yet flushed.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.pending...)
}

// Published returns records already flushed.
func (o *Outbox) Published() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.published...)
}

// stagedOutbox buffers records inside a unit of work; they reach the store
// outbox on commit.
type stagedOutbox struct{ u *Unit }

func (s stagedOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if s.u.done {
		return ErrUnitClosed
	}
	s.u.staged = append(s.u.staged, record)
	return nil
}

func (s stagedOutbox) Flush(context.Context) error {
	return nil
}

var _ appoutbox.Outbox = (*Outbox)(nil)
var _ appoutbox.Outbox = stagedOutbox{}
