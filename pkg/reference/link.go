package reference

import (
	"context"
	"fmt"
)

// Lookup answers existence checks against one collection.
type Lookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Loader fetches one record, returning nil, nil when it does not exist.
type Loader[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
}

// Targets is the collection a typed link points into.
type Targets[T any] interface {
	Lookup
	Loader[T]
}

// Link describes a typed link field: its public name, the kind reported in
// not-found errors and the collection it points into.
type Link[T any] struct {
	Field      string
	TargetKind string
	Targets    Targets[T]
}

// ActionKind is the decision ResolveForWrite makes for a field.
type ActionKind uint8

const (
	Unchanged ActionKind = iota
	Clear
	SetTo
)

func (k ActionKind) String() string {
	switch k {
	case Clear:
		return "clear"
	case SetTo:
		return "set"
	default:
		return "unchanged"
	}
}

// LinkAction is the outcome of resolving one requested link value.
type LinkAction struct {
	Kind ActionKind
	Key  Key
	// Changed is true when applying the action alters the current value.
	Changed bool
}

// With applies action to the ref.
func (r Ref[T]) With(action LinkAction) Ref[T] {
	switch action.Kind {
	case Clear:
		return Absent[T]()
	case SetTo:
		return Unresolved[T](action.Key)
	default:
		return r
	}
}

// ResolveForWrite decides what a write does to a typed link. Omitted leaves the
// field alone, an empty string clears it, anything else must be a valid key of
// an existing target. Nothing is persisted here.
func ResolveForWrite[T any](ctx context.Context, link Link[T], current Ref[T], requested Optional) (LinkAction, error) {
	if !requested.IsSet() {
		return LinkAction{Kind: Unchanged}, nil
	}
	if requested.IsClear() {
		return LinkAction{Kind: Clear, Changed: !current.IsAbsent()}, nil
	}

	key, err := Validate(requested.Value(), link.Field)
	if err != nil {
		return LinkAction{}, err
	}

	return checkTarget(ctx, link, current, requested.Value(), key)
}

func checkTarget[T any](ctx context.Context, link Link[T], current Ref[T], raw string, key Key) (LinkAction, error) {
	exists, err := link.Targets.Exists(ctx, string(key))
	if err != nil {
		return LinkAction{}, fmt.Errorf("failed to check %s: %w", link.Field, err)
	}
	if !exists {
		return LinkAction{}, &ReferenceTargetNotFoundError{Field: link.Field, TargetKind: link.TargetKind, Raw: raw}
	}

	currentKey, ok := current.Key()
	return LinkAction{Kind: SetTo, Key: key, Changed: !ok || currentKey != key}, nil
}

// ResolveForRead returns the external value of a stored link: its key, or nil.
// Dangling keys are reported as stored.
func ResolveForRead[T any](stored Ref[T]) *string {
	key, ok := stored.Key()
	if !ok {
		return nil
	}
	return key.Ptr()
}

// Change describes a link that a write altered.
type Change struct {
	Field string
	From  *string
	To    *string
}

// Pending is one link of a request staged for ResolveAll.
type Pending interface {
	validate() error
	check(ctx context.Context) error
	apply() (Change, bool)
}

type staged[T any] struct {
	link      Link[T]
	field     *Ref[T]
	requested Optional
	key       Key
	action    LinkAction
}

// Stage binds a requested value to the record field it would update.
func Stage[T any](link Link[T], field *Ref[T], requested Optional) Pending {
	return &staged[T]{link: link, field: field, requested: requested}
}

func (s *staged[T]) validate() error {
	if !s.requested.IsSet() || s.requested.IsClear() {
		return nil
	}
	key, err := Validate(s.requested.Value(), s.link.Field)
	if err != nil {
		return err
	}
	s.key = key
	return nil
}

func (s *staged[T]) check(ctx context.Context) error {
	if !s.requested.IsSet() {
		s.action = LinkAction{Kind: Unchanged}
		return nil
	}
	if s.requested.IsClear() {
		s.action = LinkAction{Kind: Clear, Changed: !s.field.IsAbsent()}
		return nil
	}
	action, err := checkTarget(ctx, s.link, *s.field, s.requested.Value(), s.key)
	if err != nil {
		return err
	}
	s.action = action
	return nil
}

func (s *staged[T]) apply() (Change, bool) {
	if !s.action.Changed {
		return Change{}, false
	}
	change := Change{Field: s.link.Field, From: ResolveForRead(*s.field)}
	*s.field = s.field.With(s.action)
	change.To = ResolveForRead(*s.field)
	return change, true
}

// ResolveAll resolves every staged link of a request before touching any of
// them. Formats are checked first, then target existence. On error no field
// has been modified.
func ResolveAll(ctx context.Context, pending ...Pending) ([]Change, error) {
	for _, p := range pending {
		if err := p.validate(); err != nil {
			return nil, err
		}
	}
	for _, p := range pending {
		if err := p.check(ctx); err != nil {
			return nil, err
		}
	}

	var changes []Change
	for _, p := range pending {
		if change, ok := p.apply(); ok {
			changes = append(changes, change)
		}
	}
	return changes, nil
}
