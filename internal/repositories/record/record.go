// Package record defines the storage contract shared by every collection and
// its PostgreSQL implementation.
package record

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectolinq"
)

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("record conflicts with an existing record")

// Entity is the pointer constraint for stored records.
type Entity[T any] interface {
	*T
	GetID() string
	SetID(id string)
	Touch(now time.Time, created bool)
}

// Filter is an equality condition on one column.
type Filter struct {
	Column string
	Value  any
}

// Query selects a window of records.
type Query struct {
	Filters []Filter
	// OrderBy defaults to created_at.
	OrderBy string
	Desc    bool
	Skip    int
	// Limit of zero means no limit.
	Limit int
}

func (q Query) Where(column string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Value: value})
	return q
}

// Inspection is the raw stored state of one record.
type Inspection struct {
	Collection string             `json:"collection"`
	ID         string             `json:"id"`
	Row        map[string]any     `json:"row"`
	Links      map[string]*string `json:"links"`
}

// Store is a collection of records. One store serves both single-record
// resolution (Get, Exists) and batch projection (ExistingKeys, LinkValues).
type Store[T any] interface {
	Name() string
	Get(ctx context.Context, id string) (*T, error)
	Exists(ctx context.Context, id string) (bool, error)
	ExistingKeys(ctx context.Context, ids []string) (map[string]bool, error)
	LinkValues(ctx context.Context, column string, ids []string) (map[string]*string, error)
	List(ctx context.Context, q Query) ([]T, error)
	Count(ctx context.Context, q Query) (int, error)
	Insert(ctx context.Context, rec *T) error
	// Replace writes every column of an existing record. It returns false when
	// the record does not exist.
	Replace(ctx context.Context, rec *T) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	Inspect(ctx context.Context, id string) (*Inspection, error)
	// Links lists the typed link columns of the collection.
	Links() []string
}

// Options configure a store.
type Options struct {
	Links  []string
	Unique [][]string
}

type Option func(*Options)

// WithLinks declares typed link columns.
func WithLinks(columns ...string) Option {
	return func(o *Options) {
		o.Links = append(o.Links, columns...)
	}
}

// WithUnique declares a unique column set. PostgreSQL enforces these through
// its own constraints; the memory store checks them on write.
func WithUnique(columns ...string) Option {
	return func(o *Options) {
		o.Unique = append(o.Unique, columns)
	}
}

func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o Options) IsLink(column string) bool {
	return ectolinq.Contains(o.Links, column)
}
