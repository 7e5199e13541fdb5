package booking

import (
	"context"
	"fmt"
)

// Chain is an arena of the bookings linked to one another through
// PreviousBookingID, keyed by id. It is loaded eagerly so that ancestor and
// descendant walks never hit the repository mid-transition.
type Chain struct {
	nodes    map[BookingID]*Booking
	children map[BookingID][]BookingID
	root     BookingID
}

// LoadChain walks from start up to the root and then down through every
// descendant.
func LoadChain(ctx context.Context, repo Repository, start *Booking) (*Chain, error) {
	c := &Chain{
		nodes:    map[BookingID]*Booking{start.ID: start},
		children: map[BookingID][]BookingID{},
	}
	cur := start
	for !cur.IsRoot() {
		if _, seen := c.nodes[cur.PreviousBookingID]; seen {
			return nil, fmt.Errorf("%w: cycle at %s", ErrBrokenChain, cur.PreviousBookingID)
		}
		parent, err := repo.ByID(ctx, cur.PreviousBookingID)
		if err != nil {
			return nil, fmt.Errorf("%w: parent %s of %s: %v", ErrBrokenChain, cur.PreviousBookingID, cur.ID, err)
		}
		c.nodes[parent.ID] = parent
		cur = parent
	}
	c.root = cur.ID

	queue := []BookingID{c.root}
	visited := map[BookingID]bool{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			return nil, fmt.Errorf("%w: cycle at %s", ErrBrokenChain, id)
		}
		visited[id] = true
		kids, err := repo.ChildrenOf(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, kid := range kids {
			if existing, ok := c.nodes[kid.ID]; ok {
				kid = existing
			} else {
				c.nodes[kid.ID] = kid
			}
			c.children[id] = append(c.children[id], kid.ID)
			queue = append(queue, kid.ID)
		}
	}
	return c, nil
}

func (c *Chain) Get(id BookingID) *Booking {
	return c.nodes[id]
}

func (c *Chain) Root() *Booking {
	return c.nodes[c.root]
}

// Ancestors returns the parent of id, its parent, and so on up to the root.
func (c *Chain) Ancestors(id BookingID) []*Booking {
	var out []*Booking
	node := c.nodes[id]
	for node != nil && !node.IsRoot() {
		node = c.nodes[node.PreviousBookingID]
		if node == nil {
			break
		}
		out = append(out, node)
	}
	return out
}

// PendingChild returns the pending extension request of id, if any.
func (c *Chain) PendingChild(id BookingID) *Booking {
	for _, kid := range c.children[id] {
		if b := c.nodes[kid]; b.Status == StatusPending {
			return b
		}
	}
	return nil
}

// Tail follows approved or completed extensions from id to the most recent
// one. It returns nil when id has never been extended.
func (c *Chain) Tail(id BookingID) *Booking {
	var tail *Booking
	cur := id
	for {
		next := c.latestAccepted(cur)
		if next == nil {
			return tail
		}
		tail = next
		cur = next.ID
	}
}

func (c *Chain) latestAccepted(id BookingID) *Booking {
	var latest *Booking
	for _, kid := range c.children[id] {
		b := c.nodes[kid]
		if b.Status != StatusApproved && b.Status != StatusCompleted {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	return latest
}

// IDs lists every booking in the chain.
func (c *Chain) IDs() []BookingID {
	out := make([]BookingID, 0, len(c.nodes))
	for id := range c.nodes {
		out = append(out, id)
	}
	return out
}

// Ordered returns the chain root first, then descendants breadth first.
func (c *Chain) Ordered() []*Booking {
	out := make([]*Booking, 0, len(c.nodes))
	queue := []BookingID{c.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, c.nodes[id])
		queue = append(queue, c.children[id]...)
	}
	return out
}
