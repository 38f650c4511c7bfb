// Package memory is an in-process record store. It backs tests and the
// STORE_DRIVER=memory mode.
package memory

import (
	"context"
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/pkg/reference"
)

type entry[T any] struct {
	seq uint64
	rec T
}

// Store keeps records in a map keyed by id and counts every read and write
// it serves.
type Store[T any, P record.Entity[T]] struct {
	mu      sync.RWMutex
	name    string
	rows    map[string]*entry[T]
	seq     uint64
	columns map[string][]int
	order   []string
	options record.Options
	queries atomic.Int64
}

func NewStore[T any, P record.Entity[T]](name string, opts ...record.Option) *Store[T, P] {
	s := &Store[T, P]{
		name:    name,
		rows:    map[string]*entry[T]{},
		columns: map[string][]int{},
		options: record.NewOptions(opts...),
	}
	for _, f := range reflect.VisibleFields(reflect.TypeOf((*T)(nil)).Elem()) {
		tag := strings.Split(f.Tag.Get("db"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		s.columns[tag] = f.Index
		s.order = append(s.order, tag)
	}
	return s
}

func (s *Store[T, P]) Name() string {
	return s.name
}

func (s *Store[T, P]) Links() []string {
	return s.options.Links
}

// Queries is the number of operations served since creation or the last Reset.
func (s *Store[T, P]) Queries() int {
	return int(s.queries.Load())
}

func (s *Store[T, P]) ResetQueries() {
	s.queries.Store(0)
}

func (s *Store[T, P]) Get(_ context.Context, id string) (*T, error) {
	s.queries.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	rec := e.rec
	return &rec, nil
}

func (s *Store[T, P]) Exists(_ context.Context, id string) (bool, error) {
	s.queries.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rows[id]
	return ok, nil
}

func (s *Store[T, P]) ExistingKeys(_ context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	s.queries.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range ids {
		if _, ok := s.rows[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (s *Store[T, P]) LinkValues(_ context.Context, column string, ids []string) (map[string]*string, error) {
	if !s.options.IsLink(column) {
		return nil, fmt.Errorf("%s is not a link column of %s", column, s.name)
	}
	out := make(map[string]*string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	s.queries.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range ids {
		e, ok := s.rows[id]
		if !ok {
			continue
		}
		v, err := s.value(&e.rec, column)
		if err != nil {
			return nil, err
		}
		if str, ok := v.(string); ok {
			out[id] = &str
		} else {
			out[id] = nil
		}
	}
	return out, nil
}

func (s *Store[T, P]) match(e *entry[T], filters []record.Filter) (bool, error) {
	for _, f := range filters {
		v, err := s.value(&e.rec, f.Column)
		if err != nil {
			return false, err
		}
		if v == nil || fmt.Sprint(v) != fmt.Sprint(f.Value) {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store[T, P]) List(_ context.Context, q record.Query) ([]T, error) {
	s.queries.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	if _, ok := s.columns[orderBy]; !ok {
		return nil, fmt.Errorf("unknown column %s on %s", orderBy, s.name)
	}

	var matched []*entry[T]
	for _, e := range s.rows {
		ok, err := s.match(e, q.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, e)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, _ := s.value(&matched[i].rec, orderBy)
		b, _ := s.value(&matched[j].rec, orderBy)
		c := compare(a, b)
		if c == 0 {
			c = compare(matched[i].seq, matched[j].seq)
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})

	items := []T{}
	for i, e := range matched {
		if i < q.Skip {
			continue
		}
		if q.Limit > 0 && len(items) == q.Limit {
			break
		}
		items = append(items, e.rec)
	}
	return items, nil
}

func (s *Store[T, P]) Count(_ context.Context, q record.Query) (int, error) {
	s.queries.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.rows {
		ok, err := s.match(e, q.Filters)
		if err != nil {
			return 0, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (s *Store[T, P]) Insert(_ context.Context, rec *T) error {
	s.queries.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()

	p := P(rec)
	if p.GetID() == "" {
		p.SetID(reference.NewKey().String())
	}
	if _, ok := s.rows[p.GetID()]; ok {
		return record.ErrConflict
	}
	if err := s.checkUnique(rec); err != nil {
		return err
	}
	p.Touch(time.Now(), true)

	s.seq++
	s.rows[p.GetID()] = &entry[T]{seq: s.seq, rec: *rec}
	return nil
}

func (s *Store[T, P]) Replace(_ context.Context, rec *T) (bool, error) {
	s.queries.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()

	p := P(rec)
	e, ok := s.rows[p.GetID()]
	if !ok {
		return false, nil
	}
	if err := s.checkUnique(rec); err != nil {
		return false, err
	}
	p.Touch(time.Now(), false)
	e.rec = *rec
	return true, nil
}

func (s *Store[T, P]) Delete(_ context.Context, id string) (bool, error) {
	s.queries.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return false, nil
	}
	delete(s.rows, id)
	return true, nil
}

func (s *Store[T, P]) Inspect(_ context.Context, id string) (*record.Inspection, error) {
	s.queries.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.rows[id]
	if !ok {
		return nil, nil
	}

	out := &record.Inspection{Collection: s.name, ID: id, Row: map[string]any{}, Links: map[string]*string{}}
	for _, column := range s.order {
		v, err := s.value(&e.rec, column)
		if err != nil {
			return nil, err
		}
		if t, ok := v.(time.Time); ok {
			v = t.UTC().Format(time.RFC3339Nano)
		}
		out.Row[column] = v
	}
	for _, column := range s.options.Links {
		if str, ok := out.Row[column].(string); ok {
			out.Links[column] = &str
		} else {
			out.Links[column] = nil
		}
	}
	return out, nil
}

// Put stores rec exactly as given, bypassing uniqueness and timestamps. It
// is used to stage records whose links were written by another process.
func (s *Store[T, P]) Put(rec T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.rows[P(&rec).GetID()] = &entry[T]{seq: s.seq, rec: rec}
}

func (s *Store[T, P]) checkUnique(rec *T) error {
	id := P(rec).GetID()
	for _, columns := range s.options.Unique {
		want, err := s.tuple(rec, columns)
		if err != nil {
			return err
		}
		if want == "" {
			continue
		}
		for otherID, e := range s.rows {
			if otherID == id {
				continue
			}
			got, err := s.tuple(&e.rec, columns)
			if err != nil {
				return err
			}
			if got == want {
				return record.ErrConflict
			}
		}
	}
	return nil
}

// tuple renders the values of columns, or "" when any of them is null.
func (s *Store[T, P]) tuple(rec *T, columns []string) (string, error) {
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		v, err := s.value(rec, column)
		if err != nil {
			return "", err
		}
		if v == nil {
			return "", nil
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, "\x00"), nil
}

// value reads a column the way it would be written to a database driver.
func (s *Store[T, P]) value(rec *T, column string) (any, error) {
	index, ok := s.columns[column]
	if !ok {
		return nil, fmt.Errorf("unknown column %s on %s", column, s.name)
	}
	field := reflect.ValueOf(rec).Elem().FieldByIndex(index)
	if valuer, ok := field.Interface().(driver.Valuer); ok {
		return valuer.Value()
	}
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return nil, nil
		}
		field = field.Elem()
	}
	return field.Interface(), nil
}

func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case time.Time:
		return av.Compare(b.(time.Time))
	case string:
		return strings.Compare(av, b.(string))
	case float64:
		return ordered(av, b.(float64))
	case int:
		return ordered(av, b.(int))
	case int64:
		return ordered(av, b.(int64))
	case uint64:
		return ordered(av, b.(uint64))
	case bool:
		return ordered(boolInt(av), boolInt(b.(bool)))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func ordered[N int | int64 | uint64 | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
