// Package events fans record writes out to the event stream and the link graph.
package events

import (
	"context"
	"errors"

	"github.com/Ramsey-B/fern/pkg/reference"
)

type Action string

const (
	Created Action = "created"
	Updated Action = "updated"
	Deleted Action = "deleted"
)

// LinkState is the stored value of one typed link after a write.
type LinkState struct {
	Field      string
	TargetKind string
	Key        *string
}

// Change describes one committed record write.
type Change struct {
	Action     Action
	Collection string
	Kind       string
	ID         string
	// Record is the response shape of the record, nil for deletes.
	Record any
	Links  []LinkState
	// Changes lists the links this write altered.
	Changes []reference.Change
	Related reference.Polymorphic
}

// TargetKind returns the kind a changed field points at.
func (c Change) TargetKind(field string) string {
	for _, l := range c.Links {
		if l.Field == field {
			return l.TargetKind
		}
	}
	return ""
}

// Publisher receives committed writes. Publishing happens after the write and
// never undoes it.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, change Change) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every change.
type Discard struct{}

func (Discard) Publish(context.Context, Change) error {
	return nil
}

// Recorder keeps published changes in memory.
type Recorder struct {
	Changes []Change
}

func (r *Recorder) Publish(_ context.Context, change Change) error {
	r.Changes = append(r.Changes, change)
	return nil
}
