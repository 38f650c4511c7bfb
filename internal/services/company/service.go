package company

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/internal/services/shared"
	"github.com/Ramsey-B/fern/pkg/assemble"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const Kind = "Company"

type Service struct {
	logger    ectologger.Logger
	companies record.Store[models.Company]
	publisher events.Publisher
}

func NewService(logger ectologger.Logger, companies record.Store[models.Company], publisher events.Publisher) *Service {
	return &Service{
		logger:    logger,
		companies: companies,
		publisher: publisher,
	}
}

func (s *Service) assemble(c *models.Company) assemble.Record {
	return assemble.Assemble(c, nil, shared.Rules)
}

func (s *Service) publish(ctx context.Context, action events.Action, c *models.Company, out assemble.Record) {
	shared.Publish(ctx, s.logger, s.publisher, events.Change{
		Action:     action,
		Collection: s.companies.Name(),
		Kind:       Kind,
		ID:         c.ID,
		Record:     out,
	})
}

func (s *Service) Create(ctx context.Context, req models.CreateCompanyRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "company.Create")
	defer span.End()

	c := &models.Company{Name: req.Name, CreatedBy: shared.CreatedBy(ctx)}
	req.CompanyFields.Apply(c)

	if err := s.companies.Insert(ctx, c); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   c.ID,
		"name": c.Name,
	}).Info("created company")

	out := s.assemble(c)
	s.publish(ctx, events.Created, c, out)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "company.Get")
	defer span.End()

	c, err := shared.Load(ctx, s.companies, Kind, id)
	if err != nil {
		return nil, err
	}
	return s.assemble(c), nil
}

func (s *Service) List(ctx context.Context, req models.ListCompaniesRequest) ([]assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "company.List")
	defer span.End()

	q := shared.Window(record.Query{}, req.ListRequest)
	if req.Industry != "" {
		q = q.Where("industry", req.Industry)
	}

	items, err := s.companies.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return assemble.All(items, func(models.Company) map[string]*string { return nil }, shared.Rules), nil
}

func (s *Service) Update(ctx context.Context, id string, req models.UpdateCompanyRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "company.Update")
	defer span.End()

	c, err := shared.Load(ctx, s.companies, Kind, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	req.CompanyFields.Apply(c)

	if err := shared.Replace(ctx, s.companies, Kind, c.ID, c); err != nil {
		return nil, err
	}

	out := s.assemble(c)
	s.publish(ctx, events.Updated, c, out)
	return out, nil
}

// Delete leaves links held by people, deals and tasks in place.
func (s *Service) Delete(ctx context.Context, id string) (models.MessageResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "company.Delete")
	defer span.End()

	return shared.Remove(ctx, s.logger, s.companies, s.publisher, Kind, id)
}
