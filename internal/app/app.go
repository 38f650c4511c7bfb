// Package app wires configuration, stores, publishers and routes into a
// running server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories"
	companysvc "github.com/Ramsey-B/fern/internal/services/company"
	dealsvc "github.com/Ramsey-B/fern/internal/services/deal"
	leadsvc "github.com/Ramsey-B/fern/internal/services/lead"
	notesvc "github.com/Ramsey-B/fern/internal/services/note"
	personsvc "github.com/Ramsey-B/fern/internal/services/person"
	productsvc "github.com/Ramsey-B/fern/internal/services/product"
	tasksvc "github.com/Ramsey-B/fern/internal/services/task"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/routes/company"
	"github.com/Ramsey-B/fern/pkg/routes/deal"
	graphroutes "github.com/Ramsey-B/fern/pkg/routes/graph"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/inspect"
	"github.com/Ramsey-B/fern/pkg/routes/lead"
	"github.com/Ramsey-B/fern/pkg/routes/note"
	"github.com/Ramsey-B/fern/pkg/routes/person"
	"github.com/Ramsey-B/fern/pkg/routes/product"
	"github.com/Ramsey-B/fern/pkg/routes/task"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

const (
	depTracing  = "tracing"
	depDatabase = "database"
	depRedis    = "redis"
	depKafka    = "kafka"
	depGraph    = "graph"
	depHTTP     = "http"
)

type App struct {
	cfg     *config.Config
	logger  ectologger.Logger
	startup *startup.Startup
	health  *health.Checker
	echo    *echo.Echo

	tracer   *tracing.Provider
	db       database.DB
	stores   *repositories.Stores
	redis    *redis.Client
	producer *kafka.Producer
	graph    *graph.Client
	mirror   *graph.Mirror
}

func New(cfg *config.Config, logger ectologger.Logger) *App {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		startup: startup.NewStartup(logger, cfg.StartupMaxAttempts),
		health:  health.NewChecker(cfg.Version),
	}

	a.startup.AddDependency(&startup.Dependency{
		Name:      depTracing,
		StartFunc: a.startTracing,
		StopFunc: func(ctx context.Context) error {
			return a.tracer.Shutdown(ctx)
		},
	})
	a.startup.AddDependency(&startup.Dependency{
		Name:      depDatabase,
		StartFunc: a.startStores,
		StopFunc: func(context.Context) error {
			if a.db == nil {
				return nil
			}
			return a.db.Close()
		},
	})

	requires := []string{depTracing, depDatabase}
	if cfg.RedisEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name:      depRedis,
			StartFunc: a.startRedis,
			StopFunc: func(context.Context) error {
				return a.redis.Close()
			},
		})
		requires = append(requires, depRedis)
	}
	if cfg.KafkaEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name:      depKafka,
			StartFunc: a.startKafka,
			StopFunc: func(context.Context) error {
				return a.producer.Close()
			},
		})
		requires = append(requires, depKafka)
	}
	if cfg.GraphEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name:      depGraph,
			StartFunc: a.startGraph,
			StopFunc: func(ctx context.Context) error {
				return a.graph.Close(ctx)
			},
		})
		requires = append(requires, depGraph)
	}

	a.startup.AddDependency(&startup.Dependency{
		Name:      depHTTP,
		Requires:  requires,
		StartFunc: a.startHTTP,
		StopFunc: func(ctx context.Context) error {
			a.health.SetReady(false)
			return a.echo.Shutdown(ctx)
		},
	})
	return a
}

// Run starts every dependency and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	stopCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.Background(), 15*time.Second)
	}

	if err := a.startup.Start(ctx); err != nil {
		sctx, cancel := stopCtx()
		defer cancel()
		_ = a.startup.Stop(sctx)
		return err
	}
	<-ctx.Done()
	a.logger.Info("shutting down")

	sctx, cancel := stopCtx()
	defer cancel()
	return a.startup.Stop(sctx)
}

func (a *App) startTracing(ctx context.Context) error {
	tp, err := tracing.NewProvider(ctx, tracing.ProviderConfig{
		ServiceName: a.cfg.AppName,
		Enabled:     a.cfg.TracingEnabled,
		SampleRatio: a.cfg.TracingSampleRatio,
		OTLP: exporters.OTLPConfig{
			Endpoint: a.cfg.OTLPEndpoint,
			Protocol: a.cfg.OTLPProtocol,
			Insecure: a.cfg.OTLPInsecure,
			Timeout:  a.cfg.OTLPTimeout,
			Headers:  a.cfg.OTLPHeaders,
		},
	}, a.logger)
	if err != nil {
		return err
	}
	a.tracer = tp
	return nil
}

func (a *App) startStores(ctx context.Context) error {
	stores, db, _, err := OpenStores(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.stores, a.db = stores, db
	if db != nil {
		a.health.AddCheck(depDatabase, db.PingContext)
	}
	return nil
}

func (a *App) startRedis(ctx context.Context) error {
	client, err := redis.NewClient(ctx, redis.Config{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	a.health.AddCheck(depRedis, client.Ping)
	return nil
}

func (a *App) startKafka(context.Context) error {
	cfg := kafka.DefaultProducerConfig()
	cfg.Brokers = a.cfg.KafkaBrokers
	cfg.Topic = a.cfg.KafkaOutputTopic
	cfg.BatchSize = a.cfg.KafkaBatchSize
	cfg.BatchTimeout = time.Duration(a.cfg.KafkaBatchTimeout) * time.Millisecond
	cfg.RequiredAcks = a.cfg.KafkaRequiredAcks
	cfg.Compression = a.cfg.KafkaCompression

	a.producer = kafka.NewProducer(cfg, a.logger)
	return nil
}

func (a *App) startGraph(ctx context.Context) error {
	client, err := graph.NewClient(graph.Config{
		Host:     a.cfg.GraphDBHost,
		Port:     a.cfg.GraphDBPort,
		Username: a.cfg.GraphDBUser,
		Password: a.cfg.GraphDBPassword,
	}, a.logger)
	if err != nil {
		return err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return fmt.Errorf("failed to reach graph database: %w", err)
	}
	if err := client.EnsureIndexes(ctx, graph.Labels()...); err != nil {
		_ = client.Close(ctx)
		return err
	}
	a.graph = client
	a.mirror = graph.NewMirror(client, a.logger)
	a.health.AddCheck(depGraph, client.VerifyConnectivity)
	return nil
}

func (a *App) publisher() events.Publisher {
	var fanout events.Fanout
	if a.producer != nil {
		fanout = append(fanout, events.NewEmitter(a.producer, a.logger))
	}
	if a.mirror != nil {
		fanout = append(fanout, a.mirror)
	}
	if len(fanout) == 0 {
		return events.Discard{}
	}
	return fanout
}

func (a *App) locker() leadsvc.Locker {
	if a.redis == nil {
		return nil
	}
	return redis.NewLocker(a.redis, "")
}

func (a *App) neighborReader() graphroutes.NeighborReader {
	if a.mirror == nil {
		return nil
	}
	return a.mirror
}

// Handler builds the echo instance with every route registered.
func (a *App) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(a.logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: a.cfg.AllowOrigins,
		AllowMethods: a.cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(a.cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.logger))
	if a.cfg.MetricsEnabled {
		e.Use(metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	a.health.RegisterRoutes(e)

	publisher := a.publisher()
	s := a.stores
	api := e.Group("/api/v1")
	company.NewHandler(companysvc.NewService(a.logger, s.Companies, publisher)).Register(api.Group("/companies"))
	person.NewHandler(personsvc.NewService(a.logger, s.People, s.Companies, publisher)).Register(api.Group("/people"))
	deal.NewHandler(dealsvc.NewService(a.logger, s.Deals, s.Companies, s.People, publisher)).Register(api.Group("/deals"))
	task.NewHandler(tasksvc.NewService(a.logger, s.Tasks, s.Companies, s.People, publisher)).Register(api.Group("/tasks"))
	note.NewHandler(notesvc.NewService(a.logger, s.Notes, publisher)).Register(api.Group("/notes"))
	product.NewHandler(productsvc.NewService(a.logger, s.Products, publisher)).Register(api.Group("/products"))
	lead.NewHandler(leadsvc.NewService(a.logger, s.Leads, s.LeadThreads, publisher, a.locker())).Register(api.Group("/leads"))
	inspect.NewHandler(NewInspectService(a.logger, s)).Register(api.Group("/inspect"))
	graphroutes.NewHandler(a.neighborReader()).Register(api.Group("/graph"))

	return e
}

func (a *App) startHTTP(ctx context.Context) error {
	a.echo = a.Handler()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		ReadTimeout:       time.Duration(a.cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(a.cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(a.cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(a.cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	go func() {
		if err := a.echo.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("http server stopped")
		}
	}()

	a.health.SetReady(true)
	a.logger.WithContext(ctx).WithFields(map[string]any{"port": a.cfg.Port}).Info("http server started")
	return nil
}
