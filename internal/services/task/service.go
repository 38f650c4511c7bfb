package task

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

const (
	Kind         = "Task"
	CompanyField = "related_company_id"
	PersonField  = "related_person_id"
)

type Service struct {
	logger    ectologger.Logger
	tasks     record.Store[models.Task]
	companies record.Store[models.Company]
	people    record.Store[models.Person]
	publisher events.Publisher
	company   reference.Link[models.Company]
	person    reference.Link[models.Person]
}

func NewService(logger ectologger.Logger, tasks record.Store[models.Task], companies record.Store[models.Company], people record.Store[models.Person], publisher events.Publisher) *Service {
	return &Service{
		logger:    logger,
		tasks:     tasks,
		companies: companies,
		people:    people,
		publisher: publisher,
		company:   reference.Link[models.Company]{Field: CompanyField, TargetKind: "Company", Targets: companies},
		person:    reference.Link[models.Person]{Field: PersonField, TargetKind: "Person", Targets: people},
	}
}

func refs(t *models.Task) map[string]*string {
	return map[string]*string{
		CompanyField: reference.ResolveForRead(t.RelatedCompany),
		PersonField:  reference.ResolveForRead(t.RelatedPerson),
	}
}

func (s *Service) publish(ctx context.Context, action events.Action, t *models.Task, out assemble.Record, changes []reference.Change) {
	current := refs(t)
	shared.Publish(ctx, s.logger, s.publisher, events.Change{
		Action:     action,
		Collection: s.tasks.Name(),
		Kind:       Kind,
		ID:         t.ID,
		Record:     out,
		Links: []events.LinkState{
			{Field: CompanyField, TargetKind: s.company.TargetKind, Key: current[CompanyField]},
			{Field: PersonField, TargetKind: s.person.TargetKind, Key: current[PersonField]},
		},
		Changes: changes,
		Related: t.Related(),
	})
}

// write validates the polymorphic pair and resolves both typed links before t
// is touched. Nothing is applied unless every check passes.
func (s *Service) write(ctx context.Context, t *models.Task, companyID, personID, relatedType, relatedID reference.Optional) ([]reference.Change, error) {
	related, err := reference.MergePolymorphic(t.Related(), relatedType, relatedID, false)
	if err != nil {
		return nil, err
	}

	changes, err := shared.Resolve(ctx,
		reference.Stage(s.company, &t.RelatedCompany, companyID),
		reference.Stage(s.person, &t.RelatedPerson, personID),
	)
	if err != nil {
		return nil, err
	}

	t.SetRelated(related)
	return changes, nil
}

func (s *Service) Create(ctx context.Context, req models.CreateTaskRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "task.Create")
	defer span.End()

	t := models.NewTask(req.Title)
	req.TaskFields.Apply(t)

	changes, err := s.write(ctx, t, req.RelatedCompanyID, req.RelatedPersonID, req.RelatedToType, req.RelatedToID)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Insert(ctx, t); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"id":              t.ID,
		"related_to_type": t.RelatedToType,
	}).Info("created task")

	out := assemble.Assemble(t, refs(t), shared.Rules)
	s.publish(ctx, events.Created, t, out, changes)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "task.Get")
	defer span.End()

	t, err := shared.Load(ctx, s.tasks, Kind, id)
	if err != nil {
		return nil, err
	}
	return assemble.Assemble(t, refs(t), shared.Rules), nil
}

func (s *Service) List(ctx context.Context, req models.ListTasksRequest) ([]assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "task.List")
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
	if req.Status != "" {
		q = q.Where("status", req.Status)
	}
	q = shared.Window(q, req.ListRequest)

	items, err := s.tasks.List(ctx, q)
	if err != nil {
		return nil, err
	}

	idOf := func(t models.Task) string { return t.ID }
	companies, err := reference.Project(ctx, items, idOf,
		func(t models.Task) reference.Ref[models.Company] { return t.RelatedCompany }, s.companies)
	if err != nil {
		return nil, err
	}
	people, err := reference.Project(ctx, items, idOf,
		func(t models.Task) reference.Ref[models.Person] { return t.RelatedPerson }, s.people)
	if err != nil {
		return nil, err
	}

	links := []shared.Link{
		{Field: CompanyField, Projections: companies},
		{Field: PersonField, Projections: people},
	}
	shared.ReportDangling(ctx, s.logger, s.tasks.Name(), links...)

	return assemble.All(items, func(t models.Task) map[string]*string {
		return shared.Refs(t.ID, links...)
	}, shared.Rules), nil
}

func (s *Service) Update(ctx context.Context, id string, req models.UpdateTaskRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "task.Update")
	defer span.End()

	t, err := shared.Load(ctx, s.tasks, Kind, id)
	if err != nil {
		return nil, err
	}

	changes, err := s.write(ctx, t, req.RelatedCompanyID, req.RelatedPersonID, req.RelatedToType, req.RelatedToID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	req.TaskFields.Apply(t)

	if err := shared.Replace(ctx, s.tasks, Kind, t.ID, t); err != nil {
		return nil, err
	}

	out := assemble.Assemble(t, refs(t), shared.Rules)
	s.publish(ctx, events.Updated, t, out, changes)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) (models.MessageResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "task.Delete")
	defer span.End()

	return shared.Remove(ctx, s.logger, s.tasks, s.publisher, Kind, id)
}
