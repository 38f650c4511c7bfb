package note

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/internal/services/shared"
	"github.com/Ramsey-B/fern/pkg/assemble"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const Kind = "Note"

// Service manages notes. A note always names the record it is about through a
// polymorphic pair that is validated for shape but never looked up.
type Service struct {
	logger    ectologger.Logger
	notes     record.Store[models.Note]
	publisher events.Publisher
}

func NewService(logger ectologger.Logger, notes record.Store[models.Note], publisher events.Publisher) *Service {
	return &Service{
		logger:    logger,
		notes:     notes,
		publisher: publisher,
	}
}

func (s *Service) publish(ctx context.Context, action events.Action, n *models.Note, out assemble.Record) {
	shared.Publish(ctx, s.logger, s.publisher, events.Change{
		Action:     action,
		Collection: s.notes.Name(),
		Kind:       Kind,
		ID:         n.ID,
		Record:     out,
		Related:    n.Related(),
	})
}

func (s *Service) Create(ctx context.Context, req models.CreateNoteRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "note.Create")
	defer span.End()

	related, err := reference.ValidatePolymorphic(req.RelatedToType.Value(), req.RelatedToID.Value(), true)
	if err != nil {
		return nil, err
	}

	n := &models.Note{
		Title:     req.Title,
		Content:   req.Content,
		IsPinned:  req.IsPinned,
		CreatedBy: shared.CreatedBy(ctx),
	}
	n.SetRelated(related)

	if err := s.notes.Insert(ctx, n); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"id":              n.ID,
		"related_to_type": n.RelatedToType,
		"related_to_id":   n.RelatedToID,
	}).Info("created note")

	out := assemble.Assemble(n, nil, shared.Rules)
	s.publish(ctx, events.Created, n, out)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "note.Get")
	defer span.End()

	n, err := shared.Load(ctx, s.notes, Kind, id)
	if err != nil {
		return nil, err
	}
	return assemble.Assemble(n, nil, shared.Rules), nil
}

func (s *Service) List(ctx context.Context, req models.ListNotesRequest) ([]assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "note.List")
	defer span.End()

	q := record.Query{OrderBy: "created_at", Desc: true}
	if req.RelatedToType != "" {
		entityType, err := reference.ParseEntityType(req.RelatedToType)
		if err != nil {
			return nil, err
		}
		q = q.Where(reference.RelatedToTypeField, string(entityType))
	}
	if req.RelatedToID != "" {
		q = q.Where(reference.RelatedToIDField, req.RelatedToID)
	}
	q = shared.Window(q, req.ListRequest)

	items, err := s.notes.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return assemble.All(items, func(models.Note) map[string]*string { return nil }, shared.Rules), nil
}

func (s *Service) Update(ctx context.Context, id string, req models.UpdateNoteRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "note.Update")
	defer span.End()

	n, err := shared.Load(ctx, s.notes, Kind, id)
	if err != nil {
		return nil, err
	}

	related, err := reference.MergePolymorphic(n.Related(), req.RelatedToType, req.RelatedToID, true)
	if err != nil {
		return nil, err
	}

	n.SetRelated(related)
	if req.Title != nil {
		n.Title = req.Title
	}
	if req.Content != nil {
		n.Content = *req.Content
	}
	if req.IsPinned != nil {
		n.IsPinned = *req.IsPinned
	}

	if err := shared.Replace(ctx, s.notes, Kind, n.ID, n); err != nil {
		return nil, err
	}

	out := assemble.Assemble(n, nil, shared.Rules)
	s.publish(ctx, events.Updated, n, out)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) (models.MessageResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "note.Delete")
	defer span.End()

	return shared.Remove(ctx, s.logger, s.notes, s.publisher, Kind, id)
}
