package product

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

const Kind = "Product"

type Service struct {
	logger    ectologger.Logger
	products  record.Store[models.Product]
	publisher events.Publisher
}

func NewService(logger ectologger.Logger, products record.Store[models.Product], publisher events.Publisher) *Service {
	return &Service{logger: logger, products: products, publisher: publisher}
}

func (s *Service) publish(ctx context.Context, action events.Action, p *models.Product, out assemble.Record) {
	shared.Publish(ctx, s.logger, s.publisher, events.Change{
		Action:     action,
		Collection: s.products.Name(),
		Kind:       Kind,
		ID:         p.ID,
		Record:     out,
	})
}

func (s *Service) Create(ctx context.Context, req models.CreateProductRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Create")
	defer span.End()

	p := models.NewProduct(req.Name, req.Code)
	req.ProductFields.Apply(p)

	if err := s.products.Insert(ctx, p); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   p.ID,
		"code": p.Code,
	}).Info("created product")

	out := assemble.Assemble(p, nil, shared.Rules)
	s.publish(ctx, events.Created, p, out)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Get")
	defer span.End()

	p, err := shared.Load(ctx, s.products, Kind, id)
	if err != nil {
		return nil, err
	}
	return assemble.Assemble(p, nil, shared.Rules), nil
}

// List returns active products unless status names another one. Status "all"
// lists every product.
func (s *Service) List(ctx context.Context, req models.ListProductsRequest) ([]assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "product.List")
	defer span.End()

	q := record.Query{}
	switch req.Status {
	case "":
		q = q.Where("status", models.ProductStatusActive)
	case models.ProductStatusAll:
	default:
		q = q.Where("status", req.Status)
	}
	if req.Category != "" {
		q = q.Where("category", req.Category)
	}
	q = shared.Window(q, req.ListRequest)

	items, err := s.products.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return assemble.All(items, func(models.Product) map[string]*string { return nil }, shared.Rules), nil
}

func (s *Service) Update(ctx context.Context, id string, req models.UpdateProductRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Update")
	defer span.End()

	p, err := shared.Load(ctx, s.products, Kind, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Code != nil {
		p.Code = *req.Code
	}
	req.ProductFields.Apply(p)

	if err := shared.Replace(ctx, s.products, Kind, p.ID, p); err != nil {
		return nil, err
	}

	out := assemble.Assemble(p, nil, shared.Rules)
	s.publish(ctx, events.Updated, p, out)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) (models.MessageResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Delete")
	defer span.End()

	return shared.Remove(ctx, s.logger, s.products, s.publisher, Kind, id)
}
