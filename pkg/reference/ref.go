package reference

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// State tags which variant a Ref holds.
type State uint8

const (
	StateAbsent State = iota
	StateUnresolved
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolved:
		return "resolved"
	default:
		return "absent"
	}
}

// Ref is a typed link value: Absent, Unresolved(key) or Resolved(key, target).
// Records load links as Unresolved; Resolve upgrades them by loading the target.
type Ref[T any] struct {
	state  State
	key    Key
	target *T
}

func Absent[T any]() Ref[T] {
	return Ref[T]{}
}

func Unresolved[T any](key Key) Ref[T] {
	return Ref[T]{state: StateUnresolved, key: key}
}

func Resolved[T any](key Key, target *T) Ref[T] {
	return Ref[T]{state: StateResolved, key: key, target: target}
}

// RefTo builds a link from an optional stored key.
func RefTo[T any](key *string) Ref[T] {
	if key == nil || *key == "" {
		return Absent[T]()
	}
	return Unresolved[T](Key(*key))
}

func (r Ref[T]) State() State {
	return r.state
}

func (r Ref[T]) IsAbsent() bool {
	return r.state == StateAbsent
}

// Key returns the stored key. Both Unresolved and Resolved refs carry one.
func (r Ref[T]) Key() (Key, bool) {
	if r.state == StateAbsent {
		return "", false
	}
	return r.key, true
}

// Target returns the loaded record of a Resolved ref.
func (r Ref[T]) Target() (*T, bool) {
	if r.state != StateResolved {
		return nil, false
	}
	return r.target, true
}

// Resolve loads the target of an Unresolved ref. Absent and Resolved refs are
// returned as they are. A missing target fails with ReferenceTargetNotFoundError.
func (r Ref[T]) Resolve(ctx context.Context, link Link[T]) (Ref[T], error) {
	if r.state != StateUnresolved {
		return r, nil
	}
	target, err := link.Targets.Get(ctx, string(r.key))
	if err != nil {
		return r, err
	}
	if target == nil {
		return r, &ReferenceTargetNotFoundError{Field: link.Field, TargetKind: link.TargetKind, Raw: string(r.key)}
	}
	return Resolved(r.key, target), nil
}

// Equal compares the stored keys of two refs.
func (r Ref[T]) Equal(other Ref[T]) bool {
	a, aok := r.Key()
	b, bok := other.Key()
	return aok == bok && a == b
}

// Scan implements sql.Scanner for a nullable uuid/text column.
func (r *Ref[T]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = Absent[T]()
	case string:
		*r = RefTo[T](&v)
	case []byte:
		s := string(v)
		*r = RefTo[T](&s)
	default:
		return fmt.Errorf("reference.Ref.Scan: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (r Ref[T]) Value() (driver.Value, error) {
	if r.state == StateAbsent {
		return nil, nil
	}
	return string(r.key), nil
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.state == StateAbsent {
		return []byte("null"), nil
	}
	return json.Marshal(string(r.key))
}

func (r *Ref[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*r = Absent[T]()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = RefTo[T](&s)
	return nil
}
