package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/reference"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository is the PostgreSQL Store. Columns come from the record's db tags.
type Repository[T any, P Entity[T]] struct {
	db        database.DB
	logger    ectologger.Logger
	table     string
	structure *database.Struct
	columns   []string
	options   Options
}

// NewRepository creates a repository over table.
func NewRepository[T any, P Entity[T]](db database.DB, logger ectologger.Logger, table string, opts ...Option) *Repository[T, P] {
	structure := database.NewStruct(new(T))
	return &Repository[T, P]{
		db:        db,
		logger:    logger,
		table:     table,
		structure: structure,
		columns:   structure.Columns(),
		options:   NewOptions(opts...),
	}
}

func (r *Repository[T, P]) Name() string {
	return r.table
}

func (r *Repository[T, P]) Links() []string {
	return r.options.Links
}

func (r *Repository[T, P]) span(ctx context.Context, op string) (context.Context, func()) {
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("record.Repository[%s].%s", r.table, op))
	return ctx, func() { span.End() }
}

func (r *Repository[T, P]) checkColumn(column string) error {
	if !ectolinq.Contains(r.columns, column) {
		return fmt.Errorf("unknown column %s on %s", column, r.table)
	}
	return nil
}

// Get returns nil, nil when the record does not exist.
func (r *Repository[T, P]) Get(ctx context.Context, id string) (*T, error) {
	ctx, end := r.span(ctx, "Get")
	defer end()

	sb := r.structure.SelectFrom(r.table)
	sb.Where(sb.Equal("id", id))
	query, args := sb.Build()

	var row T
	if err := r.db.Conn(ctx).GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("table", r.table).Error("failed to get record")
		return nil, fmt.Errorf("failed to get %s record: %w", r.table, err)
	}
	return &row, nil
}

func (r *Repository[T, P]) Exists(ctx context.Context, id string) (bool, error) {
	ctx, end := r.span(ctx, "Exists")
	defer end()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(r.table)
	sb.Where(sb.Equal("id", id))
	query, args := sb.Build()

	var count int
	if err := r.db.Conn(ctx).GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("table", r.table).Error("failed to check record")
		return false, fmt.Errorf("failed to check %s record: %w", r.table, err)
	}
	return count > 0, nil
}

// ExistingKeys confirms which ids exist with a single IN query.
func (r *Repository[T, P]) ExistingKeys(ctx context.Context, ids []string) (map[string]bool, error) {
	ctx, end := r.span(ctx, "ExistingKeys")
	defer end()

	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("id")
	sb.From(r.table)
	sb.Where(sb.In("id", toArgs(ids)...))
	query, args := sb.Build()

	var found []string
	if err := r.db.Conn(ctx).SelectContext(ctx, &found, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"table":      r.table,
			"batch_size": len(ids),
		}).Error("failed to confirm record keys")
		return nil, fmt.Errorf("failed to confirm %s keys: %w", r.table, err)
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

type linkValue struct {
	ID    string  `db:"id"`
	Value *string `db:"value"`
}

// LinkValues reads one link column for many records with a single query.
func (r *Repository[T, P]) LinkValues(ctx context.Context, column string, ids []string) (map[string]*string, error) {
	ctx, end := r.span(ctx, "LinkValues")
	defer end()

	if !r.options.IsLink(column) {
		return nil, fmt.Errorf("%s is not a link column of %s", column, r.table)
	}

	out := make(map[string]*string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("id", column+" AS value")
	sb.From(r.table)
	sb.Where(sb.In("id", toArgs(ids)...))
	query, args := sb.Build()

	var rows []linkValue
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("table", r.table).Error("failed to read link values")
		return nil, fmt.Errorf("failed to read %s.%s: %w", r.table, column, err)
	}
	for _, row := range rows {
		out[row.ID] = row.Value
	}
	return out, nil
}

func (r *Repository[T, P]) where(sb *database.SelectBuilder, q Query) error {
	for _, f := range q.Filters {
		if err := r.checkColumn(f.Column); err != nil {
			return err
		}
		sb.Where(sb.Equal(f.Column, f.Value))
	}
	return nil
}

func (r *Repository[T, P]) List(ctx context.Context, q Query) ([]T, error) {
	ctx, end := r.span(ctx, "List")
	defer end()

	sb := r.structure.SelectFrom(r.table)
	if err := r.where(sb, q); err != nil {
		return nil, err
	}

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	if err := r.checkColumn(orderBy); err != nil {
		return nil, err
	}
	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}
	sb.OrderBy(fmt.Sprintf("%s %s", orderBy, direction), "id "+direction)
	if q.Limit > 0 {
		sb.Limit(q.Limit)
	}
	if q.Skip > 0 {
		sb.Offset(q.Skip)
	}
	query, args := sb.Build()

	items := []T{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("table", r.table).Error("failed to list records")
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	return items, nil
}

func (r *Repository[T, P]) Count(ctx context.Context, q Query) (int, error) {
	ctx, end := r.span(ctx, "Count")
	defer end()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(r.table)
	if err := r.where(sb, q); err != nil {
		return 0, err
	}
	query, args := sb.Build()

	var count int
	if err := r.db.Conn(ctx).GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("table", r.table).Error("failed to count records")
		return 0, fmt.Errorf("failed to count %s: %w", r.table, err)
	}
	return count, nil
}

func (r *Repository[T, P]) Insert(ctx context.Context, rec *T) error {
	ctx, end := r.span(ctx, "Insert")
	defer end()

	p := P(rec)
	if p.GetID() == "" {
		p.SetID(reference.NewKey().String())
	}
	p.Touch(time.Now(), true)

	query, args := r.structure.InsertInto(r.table, rec).Build()
	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrConflict
		}
		r.logger.WithContext(ctx).WithError(err).WithField("table", r.table).Error("failed to insert record")
		return fmt.Errorf("failed to insert %s record: %w", r.table, err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"table": r.table,
		"id":    p.GetID(),
	}).Debug("inserted record")
	return nil
}

func (r *Repository[T, P]) Replace(ctx context.Context, rec *T) (bool, error) {
	ctx, end := r.span(ctx, "Replace")
	defer end()

	p := P(rec)
	p.Touch(time.Now(), false)

	ub := r.structure.Update(r.table, rec)
	ub.Where(ub.Equal("id", p.GetID()))
	query, args := ub.Build()

	result, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, ErrConflict
		}
		r.logger.WithContext(ctx).WithError(err).WithField("table", r.table).Error("failed to replace record")
		return false, fmt.Errorf("failed to replace %s record: %w", r.table, err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"table":         r.table,
		"id":            p.GetID(),
		"rows_affected": rowsAffected,
	}).Debug("replaced record")
	return rowsAffected > 0, nil
}

func (r *Repository[T, P]) Delete(ctx context.Context, id string) (bool, error) {
	ctx, end := r.span(ctx, "Delete")
	defer end()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(r.table)
	db.Where(db.Equal("id", id))
	query, args := db.Build()

	result, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("table", r.table).Error("failed to delete record")
		return false, fmt.Errorf("failed to delete %s record: %w", r.table, err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// Inspect reads the raw row with every column as stored.
func (r *Repository[T, P]) Inspect(ctx context.Context, id string) (*Inspection, error) {
	ctx, end := r.span(ctx, "Inspect")
	defer end()

	sb := database.NewSelectBuilder()
	sb.Select("*")
	sb.From(r.table)
	sb.Where(sb.Equal("id", id))
	query, args := sb.Build()

	rows, err := r.db.Conn(ctx).QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s record: %w", r.table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	raw := map[string]any{}
	if err := rows.MapScan(raw); err != nil {
		return nil, fmt.Errorf("failed to scan %s record: %w", r.table, err)
	}

	return newInspection(r.table, id, raw, r.options.Links), nil
}

func newInspection(table, id string, raw map[string]any, links []string) *Inspection {
	row := make(map[string]any, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case []byte:
			row[k] = string(val)
		case time.Time:
			row[k] = val.UTC().Format(time.RFC3339Nano)
		default:
			row[k] = val
		}
	}

	out := &Inspection{Collection: table, ID: id, Row: row, Links: map[string]*string{}}
	for _, column := range links {
		if s, ok := row[column].(string); ok && !strings.EqualFold(s, "") {
			v := s
			out.Links[column] = &v
			continue
		}
		out.Links[column] = nil
	}
	return out
}

func toArgs(ids []string) []any {
	return ectolinq.Map(ids, func(id string) any { return id })
}
