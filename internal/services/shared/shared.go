// Package shared holds the request pipeline steps every record service runs:
// path id parsing, link resolution with metrics, and post-write publishing.
package shared

import (
	"context"
	"errors"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/pkg/assemble"
	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
)

// Rules is the response normalization shared by every collection.
var Rules = assemble.Rules{
	Names: []string{"name", "first_name", "last_name", "title", "subject"},
}

// ParseID validates a path id. A malformed id is reported as
// "Invalid <kind> id: <raw>".
func ParseID(raw, kind string) (string, error) {
	key, err := reference.Validate(raw, strings.ToLower(kind)+" id")
	if err != nil {
		return "", err
	}
	return key.String(), nil
}

// Load reads the record named by a path id or fails with ParentNotFound.
func Load[T any](ctx context.Context, store record.Store[T], kind, rawID string) (*T, error) {
	id, err := ParseID(rawID, kind)
	if err != nil {
		return nil, err
	}
	rec, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &reference.ParentNotFoundError{Kind: kind, ID: id}
	}
	return rec, nil
}

// Replace writes rec back, reporting a record deleted since it was read as
// ParentNotFound.
func Replace[T any](ctx context.Context, store record.Store[T], kind, id string, rec *T) error {
	ok, err := store.Replace(ctx, rec)
	if err != nil {
		return err
	}
	if !ok {
		return &reference.ParentNotFoundError{Kind: kind, ID: id}
	}
	return nil
}

// Remove deletes the record named by a path id.
func Remove[T any](ctx context.Context, logger ectologger.Logger, store record.Store[T], publisher events.Publisher, kind, rawID string) (models.MessageResponse, error) {
	id, err := ParseID(rawID, kind)
	if err != nil {
		return models.MessageResponse{}, err
	}
	ok, err := store.Delete(ctx, id)
	if err != nil {
		return models.MessageResponse{}, err
	}
	if !ok {
		return models.MessageResponse{}, &reference.ParentNotFoundError{Kind: kind, ID: id}
	}

	logger.WithContext(ctx).WithFields(map[string]any{
		"collection": store.Name(),
		"id":         id,
	}).Info("deleted record")

	Publish(ctx, logger, publisher, events.Change{
		Action:     events.Deleted,
		Collection: store.Name(),
		Kind:       kind,
		ID:         id,
	})
	return models.MessageResponse{Message: kind + " deleted successfully"}, nil
}

// Resolve runs reference.ResolveAll and records the outcome of every link.
func Resolve(ctx context.Context, pending ...reference.Pending) ([]reference.Change, error) {
	changes, err := reference.ResolveAll(ctx, pending...)
	if err != nil {
		var invalid *reference.InvalidReferenceFormatError
		var missing *reference.ReferenceTargetNotFoundError
		switch {
		case errors.As(err, &invalid):
			metrics.RecordResolution(invalid.Field, "invalid")
		case errors.As(err, &missing):
			metrics.RecordResolution(missing.Field, "not_found")
		}
		return nil, err
	}
	for _, c := range changes {
		outcome := "set"
		if c.To == nil {
			outcome = "cleared"
		}
		metrics.RecordResolution(c.Field, outcome)
	}
	return changes, nil
}

// FilterKey validates a link filter from a list query. An empty value means
// no filter.
func FilterKey(q record.Query, raw, column string) (record.Query, error) {
	if raw == "" {
		return q, nil
	}
	key, err := reference.Validate(raw, column)
	if err != nil {
		return q, err
	}
	return q.Where(column, key.String()), nil
}

// Window applies pagination to q.
func Window(q record.Query, req models.ListRequest) record.Query {
	q.Skip, q.Limit = req.Window()
	return q
}

// Publish hands a committed write to the publisher. Failures are logged only.
func Publish(ctx context.Context, logger ectologger.Logger, publisher events.Publisher, change events.Change) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, change); err != nil {
		logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"collection": change.Collection,
			"id":         change.ID,
			"action":     change.Action,
		}).Warn("failed to publish record change")
	}
}

// CreatedBy returns the acting user, or nil when the request carried none.
func CreatedBy(ctx context.Context) *string {
	if userID := appctx.GetUserID(ctx); userID != "" {
		return &userID
	}
	return nil
}

// Link pairs a link's public field with its projected value for one batch.
type Link struct {
	Field       string
	Projections map[string]reference.Projection
}

// Refs collects the projected keys of one parent.
func Refs(id string, links ...Link) map[string]*string {
	out := make(map[string]*string, len(links))
	for _, l := range links {
		out[l.Field] = l.Projections[id].Key
	}
	return out
}

// ReportDangling logs and counts dangling links in a projected batch.
func ReportDangling(ctx context.Context, logger ectologger.Logger, collection string, links ...Link) {
	if len(links) > 0 {
		metrics.RecordProjectionBatch(collection, len(links[0].Projections))
	}
	for _, l := range links {
		n := reference.DanglingCount(l.Projections)
		if n == 0 {
			continue
		}
		metrics.RecordDangling(collection, l.Field, n)
		logger.WithContext(ctx).WithFields(map[string]any{
			"collection": collection,
			"field":      l.Field,
			"dangling":   n,
		}).Debug("projected dangling links")
	}
}
