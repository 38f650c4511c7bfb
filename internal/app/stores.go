package app

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/internal/services/company"
	"github.com/Ramsey-B/fern/internal/services/deal"
	"github.com/Ramsey-B/fern/internal/services/inspect"
	"github.com/Ramsey-B/fern/internal/services/lead"
	"github.com/Ramsey-B/fern/internal/services/note"
	"github.com/Ramsey-B/fern/internal/services/person"
	"github.com/Ramsey-B/fern/internal/services/product"
	"github.com/Ramsey-B/fern/internal/services/task"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
)

func connectionConfig(cfg *config.Config) database.ConnectionConfig {
	return database.ConnectionConfig{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}
}

// OpenDatabase connects to postgres and verifies the connection.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger ectologger.Logger) (database.DB, error) {
	db, err := database.Open(ctx, connectionConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the schema migrations to db.
func Migrate(cfg *config.Config, db database.DB, logger ectologger.Logger) error {
	instance, ok := db.(*database.DatabaseInstance)
	if !ok {
		return fmt.Errorf("migrations need a *database.DatabaseInstance, got %T", db)
	}
	return migrate(cfg, instance.DB, logger)
}

func migrate(cfg *config.Config, conn *sqlx.DB, logger ectologger.Logger) error {
	svc := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             cfg.DatabaseMigrationVersion,
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	return svc.Migrate(cfg.DatabaseName, conn)
}

// OpenStores returns the store set for the configured driver. closeFn releases
// whatever OpenStores opened.
func OpenStores(ctx context.Context, cfg *config.Config, logger ectologger.Logger) (stores *repositories.Stores, db database.DB, closeFn func(), err error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return repositories.NewMemoryStores().Stores(), nil, func() {}, nil
	}

	db, err = OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.DatabaseMigrateOnStart {
		if err := Migrate(cfg, db, logger); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
	}
	return repositories.NewPostgresStores(db, logger), db, func() { _ = db.Close() }, nil
}

// NewInspectService exposes every collection to the link inspector.
func NewInspectService(logger ectologger.Logger, stores *repositories.Stores) *inspect.Service {
	return inspect.NewService(logger,
		inspect.NewCollection(stores.Companies, company.Kind, func(c models.Company) string { return c.ID }, nil),
		inspect.NewCollection(stores.People, person.Kind, func(p models.Person) string { return p.ID },
			map[string]reference.KeySet{person.CompanyField: stores.Companies}),
		inspect.NewCollection(stores.Deals, deal.Kind, func(d models.Deal) string { return d.ID },
			map[string]reference.KeySet{deal.CompanyField: stores.Companies, deal.ContactField: stores.People}),
		inspect.NewCollection(stores.Tasks, task.Kind, func(t models.Task) string { return t.ID },
			map[string]reference.KeySet{task.CompanyField: stores.Companies, task.PersonField: stores.People}),
		inspect.NewCollection(stores.Notes, note.Kind, func(n models.Note) string { return n.ID }, nil),
		inspect.NewCollection(stores.Products, product.Kind, func(p models.Product) string { return p.ID }, nil),
		inspect.NewCollection(stores.Leads, lead.Kind, func(l models.Lead) string { return l.ID }, nil),
		inspect.NewCollection(stores.LeadThreads, lead.ThreadKind, func(t models.LeadThread) string { return t.ID },
			map[string]reference.KeySet{lead.LeadField: stores.Leads}),
	)
}
