package person

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/internal/services/shared"
	"github.com/Ramsey-B/fern/pkg/assemble"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/reference"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	Kind         = "Person"
	CompanyField = "company_id"
)

type Service struct {
	logger    ectologger.Logger
	people    record.Store[models.Person]
	companies record.Store[models.Company]
	publisher events.Publisher
	company   reference.Link[models.Company]
}

func NewService(logger ectologger.Logger, people record.Store[models.Person], companies record.Store[models.Company], publisher events.Publisher) *Service {
	return &Service{
		logger:    logger,
		people:    people,
		companies: companies,
		publisher: publisher,
		company:   reference.Link[models.Company]{Field: CompanyField, TargetKind: "Company", Targets: companies},
	}
}

func (s *Service) assemble(p *models.Person) assemble.Record {
	return assemble.Assemble(p, map[string]*string{
		CompanyField: reference.ResolveForRead(p.Company),
	}, shared.Rules)
}

func (s *Service) publish(ctx context.Context, action events.Action, p *models.Person, out assemble.Record, changes []reference.Change) {
	shared.Publish(ctx, s.logger, s.publisher, events.Change{
		Action:     action,
		Collection: s.people.Name(),
		Kind:       Kind,
		ID:         p.ID,
		Record:     out,
		Links:      []events.LinkState{{Field: CompanyField, TargetKind: s.company.TargetKind, Key: reference.ResolveForRead(p.Company)}},
		Changes:    changes,
	})
}

func conflict(err error, email string) error {
	if errors.Is(err, record.ErrConflict) {
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("Person with email already exists: %s", email))
	}
	return err
}

func (s *Service) Create(ctx context.Context, req models.CreatePersonRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Create")
	defer span.End()

	p := &models.Person{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     normalizers.Apply(req.Email, normalizers.NameEmail),
		CreatedBy: shared.CreatedBy(ctx),
	}
	req.PersonFields.Apply(p)

	changes, err := shared.Resolve(ctx, reference.Stage(s.company, &p.Company, req.CompanyID))
	if err != nil {
		return nil, err
	}

	if err := s.people.Insert(ctx, p); err != nil {
		return nil, conflict(err, p.Email)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         p.ID,
		"company_id": reference.ResolveForRead(p.Company),
	}).Info("created person")

	out := s.assemble(p)
	s.publish(ctx, events.Created, p, out, changes)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Get")
	defer span.End()

	p, err := shared.Load(ctx, s.people, Kind, id)
	if err != nil {
		return nil, err
	}
	return s.assemble(p), nil
}

func (s *Service) List(ctx context.Context, req models.ListPeopleRequest) ([]assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "person.List")
	defer span.End()

	q, err := shared.FilterKey(record.Query{}, req.CompanyID, CompanyField)
	if err != nil {
		return nil, err
	}
	q = shared.Window(q, req.ListRequest)

	items, err := s.people.List(ctx, q)
	if err != nil {
		return nil, err
	}

	companies, err := reference.Project(ctx, items,
		func(p models.Person) string { return p.ID },
		func(p models.Person) reference.Ref[models.Company] { return p.Company },
		s.companies)
	if err != nil {
		return nil, err
	}

	links := []shared.Link{{Field: CompanyField, Projections: companies}}
	shared.ReportDangling(ctx, s.logger, s.people.Name(), links...)

	return assemble.All(items, func(p models.Person) map[string]*string {
		return shared.Refs(p.ID, links...)
	}, shared.Rules), nil
}

func (s *Service) Update(ctx context.Context, id string, req models.UpdatePersonRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Update")
	defer span.End()

	p, err := shared.Load(ctx, s.people, Kind, id)
	if err != nil {
		return nil, err
	}

	changes, err := shared.Resolve(ctx, reference.Stage(s.company, &p.Company, req.CompanyID))
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.Email != nil {
		p.Email = normalizers.Apply(*req.Email, normalizers.NameEmail)
	}
	req.PersonFields.Apply(p)

	if err := shared.Replace(ctx, s.people, Kind, p.ID, p); err != nil {
		return nil, conflict(err, p.Email)
	}

	out := s.assemble(p)
	s.publish(ctx, events.Updated, p, out, changes)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) (models.MessageResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Delete")
	defer span.End()

	return shared.Remove(ctx, s.logger, s.people, s.publisher, Kind, id)
}
