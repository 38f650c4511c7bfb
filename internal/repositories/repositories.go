// Package repositories assembles the store of every collection.
package repositories

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/memory"
	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	Companies   = "companies"
	People      = "people"
	Deals       = "deals"
	Tasks       = "tasks"
	Notes       = "notes"
	Products    = "products"
	Leads       = "leads"
	LeadThreads = "lead_threads"
)

// Stores holds one store per collection.
type Stores struct {
	Companies   record.Store[models.Company]
	People      record.Store[models.Person]
	Deals       record.Store[models.Deal]
	Tasks       record.Store[models.Task]
	Notes       record.Store[models.Note]
	Products    record.Store[models.Product]
	Leads       record.Store[models.Lead]
	LeadThreads record.Store[models.LeadThread]
}

var (
	peopleOptions = []record.Option{record.WithLinks("company_id"), record.WithUnique("email")}
	dealOptions   = []record.Option{record.WithLinks("company_id", "contact_id")}
	taskOptions   = []record.Option{record.WithLinks("related_company_id", "related_person_id")}
	threadOptions = []record.Option{record.WithLinks("lead_id"), record.WithUnique("lead_id", "subject")}
)

// NewPostgresStores backs every collection with its table.
func NewPostgresStores(db database.DB, logger ectologger.Logger) *Stores {
	return &Stores{
		Companies:   record.NewRepository[models.Company](db, logger, Companies),
		People:      record.NewRepository[models.Person](db, logger, People, peopleOptions...),
		Deals:       record.NewRepository[models.Deal](db, logger, Deals, dealOptions...),
		Tasks:       record.NewRepository[models.Task](db, logger, Tasks, taskOptions...),
		Notes:       record.NewRepository[models.Note](db, logger, Notes),
		Products:    record.NewRepository[models.Product](db, logger, Products),
		Leads:       record.NewRepository[models.Lead](db, logger, Leads),
		LeadThreads: record.NewRepository[models.LeadThread](db, logger, LeadThreads, threadOptions...),
	}
}

// MemoryStores is the in-process store set. The typed fields keep the memory
// API (Put, Queries) reachable for tests and seeding.
type MemoryStores struct {
	Companies   *memory.Store[models.Company, *models.Company]
	People      *memory.Store[models.Person, *models.Person]
	Deals       *memory.Store[models.Deal, *models.Deal]
	Tasks       *memory.Store[models.Task, *models.Task]
	Notes       *memory.Store[models.Note, *models.Note]
	Products    *memory.Store[models.Product, *models.Product]
	Leads       *memory.Store[models.Lead, *models.Lead]
	LeadThreads *memory.Store[models.LeadThread, *models.LeadThread]
}

func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		Companies:   memory.NewStore[models.Company](Companies),
		People:      memory.NewStore[models.Person](People, peopleOptions...),
		Deals:       memory.NewStore[models.Deal](Deals, dealOptions...),
		Tasks:       memory.NewStore[models.Task](Tasks, taskOptions...),
		Notes:       memory.NewStore[models.Note](Notes),
		Products:    memory.NewStore[models.Product](Products),
		Leads:       memory.NewStore[models.Lead](Leads),
		LeadThreads: memory.NewStore[models.LeadThread](LeadThreads, threadOptions...),
	}
}

func (m *MemoryStores) Stores() *Stores {
	return &Stores{
		Companies:   m.Companies,
		People:      m.People,
		Deals:       m.Deals,
		Tasks:       m.Tasks,
		Notes:       m.Notes,
		Products:    m.Products,
		Leads:       m.Leads,
		LeadThreads: m.LeadThreads,
	}
}

// ResetQueries zeroes the query counters of every memory store.
func (m *MemoryStores) ResetQueries() {
	m.Companies.ResetQueries()
	m.People.ResetQueries()
	m.Deals.ResetQueries()
	m.Tasks.ResetQueries()
	m.Notes.ResetQueries()
	m.Products.ResetQueries()
	m.Leads.ResetQueries()
	m.LeadThreads.ResetQueries()
}
