// Package inspect reports the stored state of links for diagnosis. It never
// writes.
package inspect

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/internal/services/shared"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Collection is a type-erased view of one store.
type Collection struct {
	Name string
	Kind string
	// Targets maps each link column to the store it points into.
	Targets map[string]reference.KeySet

	links   func() []string
	ids     func(ctx context.Context, q record.Query) ([]string, error)
	count   func(ctx context.Context) (int, error)
	values  reference.LinkSource
	inspect func(ctx context.Context, id string) (*record.Inspection, error)
}

// NewCollection wraps store. targets must name a store for every link column.
func NewCollection[T any](store record.Store[T], kind string, idOf func(T) string, targets map[string]reference.KeySet) Collection {
	return Collection{
		Name:    store.Name(),
		Kind:    kind,
		Targets: targets,
		links:   store.Links,
		ids: func(ctx context.Context, q record.Query) ([]string, error) {
			items, err := store.List(ctx, q)
			if err != nil {
				return nil, err
			}
			return ectolinq.Map(items, idOf), nil
		},
		count: func(ctx context.Context) (int, error) {
			return store.Count(ctx, record.Query{})
		},
		values:  store,
		inspect: store.Inspect,
	}
}

type LinkStatus struct {
	Key      *string `json:"key"`
	Dangling bool    `json:"dangling"`
}

type RecordLinks struct {
	ID    string                `json:"id"`
	Links map[string]LinkStatus `json:"links"`
}

type LinkReport struct {
	Collection string         `json:"collection"`
	Total      int            `json:"total"`
	Dangling   map[string]int `json:"dangling"`
	Records    []RecordLinks  `json:"records"`
}

// RefState is the read state of one link of an inspected record.
type RefState struct {
	Key    *string `json:"key"`
	Target string  `json:"target"`
	State  string  `json:"state"`
}

const (
	StateAbsent   = "absent"
	StateResolved = "resolved"
	StateDangling = "dangling"
)

type RecordReport struct {
	*record.Inspection
	Refs map[string]RefState `json:"refs"`
}

type Service struct {
	logger      ectologger.Logger
	collections map[string]Collection
}

func NewService(logger ectologger.Logger, collections ...Collection) *Service {
	s := &Service{logger: logger, collections: map[string]Collection{}}
	for _, c := range collections {
		s.collections[c.Name] = c
	}
	return s
}

// Collections lists the inspectable collection names.
func (s *Service) Collections() []string {
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) collection(name string) (Collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return Collection{}, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Unknown collection: %s", name))
	}
	return c, nil
}

// Links projects every link of a window of records. Each link costs one query
// for the stored keys and one for their targets.
func (s *Service) Links(ctx context.Context, name string, req models.ListRequest) (*LinkReport, error) {
	ctx, span := tracing.StartSpan(ctx, "inspect.Links")
	defer span.End()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}

	total, err := c.count(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := c.ids(ctx, shared.Window(record.Query{}, req))
	if err != nil {
		return nil, err
	}

	report := &LinkReport{
		Collection: c.Name,
		Total:      total,
		Dangling:   map[string]int{},
		Records:    make([]RecordLinks, 0, len(ids)),
	}

	var links []shared.Link
	for _, column := range c.links() {
		targets, ok := c.Targets[column]
		if !ok {
			return nil, fmt.Errorf("no targets registered for %s.%s", c.Name, column)
		}
		projections, err := reference.ProjectByIDs(ctx, ids, c.values, column, targets)
		if err != nil {
			return nil, err
		}
		links = append(links, shared.Link{Field: column, Projections: projections})
		report.Dangling[column] = reference.DanglingCount(projections)
	}
	shared.ReportDangling(ctx, s.logger, c.Name, links...)

	for _, id := range ids {
		rl := RecordLinks{ID: id, Links: make(map[string]LinkStatus, len(links))}
		for _, l := range links {
			p := l.Projections[id]
			rl.Links[l.Field] = LinkStatus{Key: p.Key, Dangling: p.Dangling}
		}
		report.Records = append(report.Records, rl)
	}
	return report, nil
}

// Record returns the raw stored row of one record with the state of each link.
func (s *Service) Record(ctx context.Context, name, rawID string) (*RecordReport, error) {
	ctx, span := tracing.StartSpan(ctx, "inspect.Record")
	defer span.End()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	id, err := shared.ParseID(rawID, c.Kind)
	if err != nil {
		return nil, err
	}

	inspection, err := c.inspect(ctx, id)
	if err != nil {
		return nil, err
	}
	if inspection == nil {
		return nil, &reference.ParentNotFoundError{Kind: c.Kind, ID: id}
	}

	report := &RecordReport{Inspection: inspection, Refs: map[string]RefState{}}
	for column, key := range inspection.Links {
		targets, ok := c.Targets[column]
		if !ok {
			return nil, fmt.Errorf("no targets registered for %s.%s", c.Name, column)
		}
		state := RefState{Key: key, Target: targetName(targets), State: StateAbsent}
		if key == nil {
			report.Refs[column] = state
			continue
		}

		existing, err := targets.ExistingKeys(ctx, []string{*key})
		if err != nil {
			return nil, fmt.Errorf("failed to confirm %s target: %w", column, err)
		}
		state.State = StateDangling
		if existing[*key] {
			state.State = StateResolved
		}
		report.Refs[column] = state
	}
	return report, nil
}

func targetName(targets reference.KeySet) string {
	if named, ok := targets.(interface{ Name() string }); ok {
		return named.Name()
	}
	return ""
}
