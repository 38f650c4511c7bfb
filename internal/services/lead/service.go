package lead

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	Kind       = "Lead"
	ThreadKind = "LeadThread"
	LeadField  = "lead_id"

	syncLockTTL = 30 * time.Second
)

type mockThread struct {
	subject     string
	lastMessage string
	snippet     string
}

// mockThreads stand in for a mailbox provider.
var mockThreads = []mockThread{
	{
		subject:     "Requirement Discussion",
		lastMessage: "Can we meet tomorrow?",
		snippet:     "Hey, I wanted to discuss the requirements for our project...",
	},
	{
		subject:     "Pricing Inquiry",
		lastMessage: "Please send the brochure",
		snippet:     "Hi, we are interested in your services and would like to know...",
	},
}

type Service struct {
	logger    ectologger.Logger
	leads     record.Store[models.Lead]
	threads   record.Store[models.LeadThread]
	publisher events.Publisher
	locker    Locker
	lead      reference.Link[models.Lead]
}

// NewService builds the lead service. A nil locker serializes mail syncs
// in-process only.
func NewService(logger ectologger.Logger, leads record.Store[models.Lead], threads record.Store[models.LeadThread], publisher events.Publisher, locker Locker) *Service {
	if locker == nil {
		locker = newLocalLocker()
	}
	return &Service{
		logger:    logger,
		leads:     leads,
		threads:   threads,
		publisher: publisher,
		locker:    locker,
		lead:      reference.Link[models.Lead]{Field: LeadField, TargetKind: Kind, Targets: leads},
	}
}

func (s *Service) publish(ctx context.Context, action events.Action, l *models.Lead, out assemble.Record) {
	shared.Publish(ctx, s.logger, s.publisher, events.Change{
		Action:     action,
		Collection: s.leads.Name(),
		Kind:       Kind,
		ID:         l.ID,
		Record:     out,
	})
}

func (s *Service) Create(ctx context.Context, req models.CreateLeadRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Create")
	defer span.End()

	l := models.NewLead(req.FirstName, req.LastName, normalizers.Apply(req.Email, normalizers.NameEmail))
	req.LeadFields.Apply(l)

	if err := s.leads.Insert(ctx, l); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"id":     l.ID,
		"status": l.Status,
	}).Info("created lead")

	out := assemble.Assemble(l, nil, shared.Rules)
	s.publish(ctx, events.Created, l, out)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Get")
	defer span.End()

	l, err := shared.Load(ctx, s.leads, Kind, id)
	if err != nil {
		return nil, err
	}
	return assemble.Assemble(l, nil, shared.Rules), nil
}

func (s *Service) List(ctx context.Context, req models.ListLeadsRequest) ([]assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.List")
	defer span.End()

	q := record.Query{}
	if req.Status != "" {
		q = q.Where("status", req.Status)
	}
	q = shared.Window(q, req.ListRequest)

	items, err := s.leads.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return assemble.All(items, func(models.Lead) map[string]*string { return nil }, shared.Rules), nil
}

func (s *Service) Update(ctx context.Context, id string, req models.UpdateLeadRequest) (assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Update")
	defer span.End()

	l, err := shared.Load(ctx, s.leads, Kind, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		l.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		l.LastName = *req.LastName
	}
	if req.Email != nil {
		l.Email = normalizers.Apply(*req.Email, normalizers.NameEmail)
	}
	req.LeadFields.Apply(l)

	if err := shared.Replace(ctx, s.leads, Kind, l.ID, l); err != nil {
		return nil, err
	}

	out := assemble.Assemble(l, nil, shared.Rules)
	s.publish(ctx, events.Updated, l, out)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) (models.MessageResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Delete")
	defer span.End()

	return shared.Remove(ctx, s.logger, s.leads, s.publisher, Kind, id)
}

// SyncMail creates the mock threads the lead does not have yet. Syncs of the
// same lead run one at a time so a subject is never inserted twice.
func (s *Service) SyncMail(ctx context.Context, id string) (models.SyncMailResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.SyncMail")
	defer span.End()

	l, err := shared.Load(ctx, s.leads, Kind, id)
	if err != nil {
		return models.SyncMailResponse{}, err
	}

	synced := 0
	err = s.locker.WithLock(ctx, "lead-sync:"+l.ID, syncLockTTL, func(ctx context.Context) error {
		existing, err := s.threads.List(ctx, record.Query{}.Where(LeadField, l.ID))
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(existing))
		for _, t := range existing {
			have[t.Subject] = true
		}

		for _, mt := range mockThreads {
			if have[mt.subject] {
				continue
			}
			created, err := s.insertThread(ctx, l, mt)
			if err != nil {
				return err
			}
			if created {
				synced++
			}
		}
		return nil
	})
	if err != nil {
		return models.SyncMailResponse{}, fmt.Errorf("failed to sync mail for lead %s: %w", l.ID, err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"id":             l.ID,
		"threads_synced": synced,
	}).Info("synced lead mail")

	return models.SyncMailResponse{
		ThreadsSynced: synced,
		Message:       fmt.Sprintf("Successfully synced %d new threads.", synced),
	}, nil
}

// insertThread reports false when another writer created the same subject
// first. The lead link is resolved like any API write, so a lead deleted
// mid-sync fails with 404.
func (s *Service) insertThread(ctx context.Context, l *models.Lead, mt mockThread) (bool, error) {
	snippet := mt.snippet
	t := &models.LeadThread{
		Subject:       mt.subject,
		LastMessage:   mt.lastMessage,
		Status:        models.DefaultThreadStatus,
		LastMessageAt: time.Now().UTC(),
		Snippet:       &snippet,
	}
	changes, err := shared.Resolve(ctx, reference.Stage(s.lead, &t.Lead, reference.Set(l.ID)))
	if err != nil {
		return false, err
	}
	if err := s.threads.Insert(ctx, t); err != nil {
		if errors.Is(err, record.ErrConflict) {
			return false, nil
		}
		return false, err
	}

	shared.Publish(ctx, s.logger, s.publisher, events.Change{
		Action:     events.Created,
		Collection: s.threads.Name(),
		Kind:       ThreadKind,
		ID:         t.ID,
		Record:     assembleThread(t),
		Links:      []events.LinkState{{Field: LeadField, TargetKind: s.lead.TargetKind, Key: reference.ResolveForRead(t.Lead)}},
		Changes:    changes,
	})
	return true, nil
}

func assembleThread(t *models.LeadThread) assemble.Record {
	return assemble.Assemble(t, map[string]*string{LeadField: reference.ResolveForRead(t.Lead)}, shared.Rules)
}

// MailThreads lists the threads linked to a lead.
func (s *Service) MailThreads(ctx context.Context, id string) ([]assemble.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.MailThreads")
	defer span.End()

	l, err := shared.Load(ctx, s.leads, Kind, id)
	if err != nil {
		return nil, err
	}

	items, err := s.threads.List(ctx, record.Query{}.Where(LeadField, l.ID))
	if err != nil {
		return nil, err
	}
	return assemble.All(items, func(t models.LeadThread) map[string]*string {
		return map[string]*string{LeadField: reference.ResolveForRead(t.Lead)}
	}, shared.Rules), nil
}
