package reference_test

import (
	"context"
	"errors"
	"sync"
)

type company struct {
	ID   string
	Name string
}

// fakeTargets is an in-memory target collection that counts its queries.
type fakeTargets struct {
	mu       sync.Mutex
	records  map[string]*company
	links    map[string]*string
	queries  int
	asked    []string
	failWith error
}

func newFakeTargets(ids ...string) *fakeTargets {
	f := &fakeTargets{records: map[string]*company{}, links: map[string]*string{}}
	for _, id := range ids {
		f.records[id] = &company{ID: id, Name: "Acme"}
	}
	return f
}

func (f *fakeTargets) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.failWith != nil {
		return false, f.failWith
	}
	_, ok := f.records[id]
	return ok, nil
}

func (f *fakeTargets) Get(ctx context.Context, id string) (*company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.records[id], nil
}

func (f *fakeTargets) ExistingKeys(ctx context.Context, ids []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	f.asked = append([]string(nil), ids...)
	out := map[string]bool{}
	for _, id := range ids {
		if _, ok := f.records[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeTargets) LinkValues(ctx context.Context, column string, ids []string) (map[string]*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if column != "company_id" {
		return nil, errors.New("unknown column")
	}
	out := map[string]*string{}
	for _, id := range ids {
		if v, ok := f.links[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func strPtr(s string) *string {
	return &s
}
