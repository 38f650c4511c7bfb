package deal

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
	Kind         = "Deal"
	CompanyField = "company_id"
	ContactField = "contact_id"
)

type Service struct {
	logger    ectologger.Logger
	deals     record.Store[models.Deal]
	companies record.Store[models.Company]
	people    record.Store[models.Person]
	publisher events.Publisher
	company   reference.Link[models.Company]
	contact   reference.Link[models.Person]
}

func NewService(logger ectologger.Logger, deals record.Store[models.Deal], companies record.Store[models.Company], people record.Store[models.Person], publisher events.Publisher) *Service {
	return &Service{
		logger:    logger,
		deals:     deals,
		companies: companies,
		people:    people,
		publisher: publisher,
		company:   reference.Link[models.Company]{Field: CompanyField, TargetKind: "Company", Targets: companies},
		contact:   reference.Link[models.Person]{Field: ContactField, TargetKind: "Contact", Targets: people},
	}
}

func refs(d *models.Deal) map[string]*string {
	return map[string]*string{
		CompanyField: reference.ResolveForRead(d.Company),
		ContactField: reference.ResolveForRead(d.Contact),
	}
}

func (s *Service) publish(ctx context.Context, action events.Action, d *models.Deal, out assemble.Record, changes []reference.Change) {
	current := refs(d)
	shared.Publish(ctx, s.logger, s.publisher, events.Change{
		Action:     action,
		Collection: s.deals.Name(),
		Kind:       Kind,
		ID:         d.ID,
		Record:     out,
		Links: []events.LinkState{
			{Field: CompanyField, TargetKind: s.company.TargetKind, Key: current[CompanyField]},
			{Field: ContactField, TargetKind: "Person", Key: current[ContactField]},
		},
		Changes: changes,
	})
}

func (s *Service) stage(d *models.Deal, companyID, contactID reference.Optional) []reference.Pending {
	return []reference.Pending{
		reference.Stage(s.company, &d.Company, companyID),
		reference.Stage(s.contact, &d.Contact, contactID),
	}
}

func (s *Service) Create(ctx context.Context, req models.CreateDealRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "deal.Create")
	defer span.End()

	d := models.NewDeal(req.Title)
	req.DealFields.Apply(d)

	changes, err := shared.Resolve(ctx, s.stage(d, req.CompanyID, req.ContactID)...)
	if err != nil {
		return nil, err
	}

	if err := s.deals.Insert(ctx, d); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         d.ID,
		"company_id": reference.ResolveForRead(d.Company),
		"contact_id": reference.ResolveForRead(d.Contact),
	}).Info("created deal")

	out := assemble.Assemble(d, refs(d), shared.Rules)
	s.publish(ctx, events.Created, d, out, changes)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "deal.Get")
	defer span.End()

	d, err := shared.Load(ctx, s.deals, Kind, id)
	if err != nil {
		return nil, err
	}
	return assemble.Assemble(d, refs(d), shared.Rules), nil
}

// List returns deals newest first. Links are projected with one target query
// per link, however many deals are returned.
func (s *Service) List(ctx context.Context, req models.ListDealsRequest) ([]assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "deal.List")
	defer span.End()

	q, err := shared.FilterKey(record.Query{OrderBy: "created_at", Desc: true}, req.CompanyID, CompanyField)
	if err != nil {
		return nil, err
	}
	if q, err = shared.FilterKey(q, req.ContactID, ContactField); err != nil {
		return nil, err
	}
	q = shared.Window(q, req.ListRequest)

	items, err := s.deals.List(ctx, q)
	if err != nil {
		return nil, err
	}

	idOf := func(d models.Deal) string { return d.ID }
	companies, err := reference.Project(ctx, items, idOf,
		func(d models.Deal) reference.Ref[models.Company] { return d.Company }, s.companies)
	if err != nil {
		return nil, err
	}
	contacts, err := reference.Project(ctx, items, idOf,
		func(d models.Deal) reference.Ref[models.Person] { return d.Contact }, s.people)
	if err != nil {
		return nil, err
	}

	links := []shared.Link{
		{Field: CompanyField, Projections: companies},
		{Field: ContactField, Projections: contacts},
	}
	shared.ReportDangling(ctx, s.logger, s.deals.Name(), links...)

	return assemble.All(items, func(d models.Deal) map[string]*string {
		return shared.Refs(d.ID, links...)
	}, shared.Rules), nil
}

func (s *Service) Update(ctx context.Context, id string, req models.UpdateDealRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "deal.Update")
	defer span.End()

	d, err := shared.Load(ctx, s.deals, Kind, id)
	if err != nil {
		return nil, err
	}

	changes, err := shared.Resolve(ctx, s.stage(d, req.CompanyID, req.ContactID)...)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		d.Title = *req.Title
	}
	req.DealFields.Apply(d)

	if err := shared.Replace(ctx, s.deals, Kind, d.ID, d); err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"id":      d.ID,
			"changes": len(changes),
		}).Info("updated deal links")
	}

	out := assemble.Assemble(d, refs(d), shared.Rules)
	s.publish(ctx, events.Updated, d, out, changes)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) (models.MessageResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "deal.Delete")
	defer span.End()

	return shared.Remove(ctx, s.logger, s.deals, s.publisher, Kind, id)
}
