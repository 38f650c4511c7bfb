package reference

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectolinq"
)

// KeySet confirms which of a set of keys exist, in one query.
type KeySet interface {
	ExistingKeys(ctx context.Context, ids []string) (map[string]bool, error)
}

// LinkSource reads the stored value of one link column for many parents, in
// one query.
type LinkSource interface {
	LinkValues(ctx context.Context, column string, ids []string) (map[string]*string, error)
}

// Projection is the read value of one parent's link. Key matches ResolveForRead;
// Dangling marks a key whose target was missing when the batch ran.
type Projection struct {
	Key      *string
	Dangling bool
}

// Project resolves one link for a batch of already loaded parents with a single
// target query over the distinct keys. No query is made when no parent links.
func Project[P any, T any](ctx context.Context, parents []P, idOf func(P) string, refOf func(P) Ref[T], targets KeySet) (map[string]Projection, error) {
	stored := make(map[string]*string, len(parents))
	for _, p := range parents {
		stored[idOf(p)] = ResolveForRead(refOf(p))
	}
	return confirm(ctx, stored, targets)
}

// ProjectByIDs is Project for parents that were not loaded: one query reads the
// link column and one confirms the targets.
func ProjectByIDs(ctx context.Context, parentIDs []string, source LinkSource, column string, targets KeySet) (map[string]Projection, error) {
	if len(parentIDs) == 0 {
		return map[string]Projection{}, nil
	}
	stored, err := source.LinkValues(ctx, column, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s values: %w", column, err)
	}
	return confirm(ctx, stored, targets)
}

func confirm(ctx context.Context, stored map[string]*string, targets KeySet) (map[string]Projection, error) {
	keys := ectolinq.Filter(ectolinq.Values(stored), func(key *string) bool { return key != nil })
	distinct := ectolinq.Distinct(ectolinq.Map(keys, func(key *string) string { return *key }))

	existing := map[string]bool{}
	if len(distinct) > 0 {
		var err error
		existing, err = targets.ExistingKeys(ctx, distinct)
		if err != nil {
			return nil, fmt.Errorf("failed to confirm link targets: %w", err)
		}
	}

	out := make(map[string]Projection, len(stored))
	for parentID, key := range stored {
		if key == nil {
			out[parentID] = Projection{}
			continue
		}
		out[parentID] = Projection{Key: key, Dangling: !existing[*key]}
	}
	return out, nil
}

// DanglingCount counts projections whose target was missing.
func DanglingCount(projections map[string]Projection) int {
	n := 0
	for _, p := range projections {
		if p.Dangling {
			n++
		}
	}
	return n
}
