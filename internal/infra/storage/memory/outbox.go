package memory

import (
	"context"
	"sort"
	"sync"

	"staybook/internal/app/outbox"
)

type outboxState int

const (
	outboxNew outboxState = iota
	outboxClaimed
	outboxSent
	outboxFailed
)

type outboxRow struct {
	rec   outbox.Record
	state outboxState
}

// Outbox is the dev-profile outbox store. Rows live in memory only.
type Outbox struct {
	mu   sync.Mutex
	rows map[string]*outboxRow
}

func NewOutbox() *Outbox {
	return &Outbox{rows: make(map[string]*outboxRow)}
}

func (o *Outbox) Append(_ context.Context, recs []outbox.Record) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range recs {
		o.rows[rec.ID] = &outboxRow{rec: rec}
	}
	return nil
}

func (o *Outbox) Claim(_ context.Context, limit int) ([]outbox.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var pending []*outboxRow
	for _, row := range o.rows {
		if row.state == outboxNew || row.state == outboxFailed {
			pending = append(pending, row)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].rec.OccurredAt.Before(pending[j].rec.OccurredAt) })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	out := make([]outbox.Record, 0, len(pending))
	for _, row := range pending {
		row.state = outboxClaimed
		out = append(out, row.rec)
	}
	return out, nil
}

func (o *Outbox) MarkSent(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if row, ok := o.rows[id]; ok {
		row.state = outboxSent
	}
	return nil
}

func (o *Outbox) MarkFailed(_ context.Context, id string, _ error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if row, ok := o.rows[id]; ok {
		row.state = outboxFailed
		row.rec.Attempts++
	}
	return nil
}

// Sent reports how many rows reached the broker. Test helper.
func (o *Outbox) Sent() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, row := range o.rows {
		if row.state == outboxSent {
			n++
		}
	}
	return n
}

var _ outbox.Store = (*Outbox)(nil)
