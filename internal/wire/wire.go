// Package wire provides dependency injection for the BrewQuest application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	cliadapter "github.com/example/brewquest/internal/adapters/cli"
	"github.com/example/brewquest/internal/adapters/email"
	"github.com/example/brewquest/internal/adapters/httpapi"
	"github.com/example/brewquest/internal/adapters/postgres"
	"github.com/example/brewquest/internal/adapters/sqlite"
	"github.com/example/brewquest/internal/app"
	"github.com/example/brewquest/internal/config"
	"github.com/example/brewquest/internal/db"
	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/ports/secondary"
	"github.com/example/brewquest/internal/scheduler"
	"github.com/example/brewquest/internal/telemetry"
)

var (
	configPath string

	cfg            *config.Config
	logger         *slog.Logger
	metrics        *telemetry.Metrics
	database       *sql.DB
	journeyService primary.JourneyService
	publishService primary.PublishService
	contentService primary.ContentService
	once           sync.Once
)

// repositories groups the secondary adapters for one database driver.
type repositories struct {
	states      secondary.StateRepository
	posts       secondary.PostRepository
	reviews     secondary.ReviewRepository
	subscribers secondary.SubscriberRepository
	runs        secondary.TransitionRunRepository
	analytics   secondary.AnalyticsSink
	events      secondary.AnalyticsReader
}

// SetConfigPath selects the config file. It must be called before any
// service accessor; an empty path reads ./brewquest.yaml when present.
func SetConfigPath(path string) {
	configPath = path
}

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the process logger.
func Logger() *slog.Logger {
	once.Do(initServices)
	return logger
}

// DB returns the open database handle.
func DB() *sql.DB {
	once.Do(initServices)
	return database
}

// JourneyService returns the singleton JourneyService instance.
func JourneyService() primary.JourneyService {
	once.Do(initServices)
	return journeyService
}

// PublishService returns the singleton PublishService instance.
func PublishService() primary.PublishService {
	once.Do(initServices)
	return publishService
}

// ContentService returns the singleton ContentService instance.
func ContentService() primary.ContentService {
	once.Do(initServices)
	return contentService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger = telemetry.NewLogger(os.Stderr, telemetry.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	slog.SetDefault(logger)
	metrics = telemetry.NewMetrics()

	var repos repositories
	database, repos, err = openStore(cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	retry := app.RetryPolicy{
		MaxAttempts:    cfg.SideEffects.MaxAttempts,
		InitialBackoff: cfg.SideEffects.InitialBackoff,
	}

	// Create effect executor with injected repositories
	digest := app.NewDigestService(repos.subscribers, newMailer(cfg.Email), retry, logger)
	executor := app.NewEffectExecutor(repos.posts, repos.analytics, digest, retry, logger, metrics)

	// Create services (primary ports implementation)
	journeyService = app.NewJourneyService(repos.states, repos.runs, executor, logger, metrics)
	publishService = app.NewPublishService(repos.states, repos.reviews, repos.posts, repos.analytics, retry, logger, metrics)
	contentService = app.NewContentService(repos.states, repos.reviews, repos.posts, repos.subscribers, repos.events)
}

func openStore(dbCfg config.DatabaseConfig) (*sql.DB, repositories, error) {
	if dbCfg.Driver == config.DriverPostgres {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pg, err := postgres.Open(ctx, dbCfg.URL)
		if err != nil {
			return nil, repositories{}, err
		}
		sink := postgres.NewAnalyticsSink(pg)
		return pg, repositories{
			states:      postgres.NewStateRepository(pg),
			posts:       postgres.NewPostRepository(pg),
			reviews:     postgres.NewReviewRepository(pg),
			subscribers: postgres.NewSubscriberRepository(pg),
			runs:        postgres.NewTransitionRunRepository(pg),
			analytics:   sink,
			events:      sink,
		}, nil
	}

	lite, err := db.Open(dbCfg.Path)
	if err != nil {
		return nil, repositories{}, err
	}
	sink := sqlite.NewAnalyticsSink(lite)
	return lite, repositories{
		states:      sqlite.NewStateRepository(lite),
		posts:       sqlite.NewPostRepository(lite),
		reviews:     sqlite.NewReviewRepository(lite),
		subscribers: sqlite.NewSubscriberRepository(lite),
		runs:        sqlite.NewTransitionRunRepository(lite),
		analytics:   sink,
		events:      sink,
	}, nil
}

// newMailer sends through the HTTP API when a key is configured and logs
// digests otherwise.
func newMailer(emailCfg config.EmailConfig) secondary.Mailer {
	if emailCfg.APIKey == "" {
		return email.NewLogMailer(logger)
	}
	var opts []email.Option
	if emailCfg.BaseURL != "" {
		opts = append(opts, email.WithBaseURL(emailCfg.BaseURL))
	}
	return email.NewHTTPMailer(emailCfg.APIKey, emailCfg.From, opts...)
}

// Server returns a new HTTP server over the singleton services.
func Server() *httpapi.Server {
	once.Do(initServices)
	return httpapi.NewServer(journeyService, publishService, cfg.Server.CronSecret,
		httpapi.WithLogger(logger),
		httpapi.WithPinger(database),
		httpapi.WithMetricsHandler(metrics.Handler()),
		httpapi.WithTimeOverride(cfg.Server.AllowTimeOverride),
		httpapi.WithTimeout(cfg.Server.RequestTimeout),
	)
}

// Scheduler returns a new scheduler with the weekly and daily jobs registered.
func Scheduler() (*scheduler.Scheduler, error) {
	once.Do(initServices)
	s := scheduler.New(cfg.Location(), cfg.Server.RequestTimeout, logger)
	if err := scheduler.RegisterJourneyJobs(s, cfg.Schedule.Weekly, cfg.Schedule.Daily, journeyService, publishService); err != nil {
		return nil, err
	}
	return s, nil
}

// JourneyAdapter returns a new JourneyAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func JourneyAdapter() *cliadapter.JourneyAdapter {
	return JourneyAdapterWithOutput(os.Stdout)
}

// JourneyAdapterWithOutput returns a new JourneyAdapter writing to the given output.
func JourneyAdapterWithOutput(out io.Writer) *cliadapter.JourneyAdapter {
	once.Do(initServices)
	return cliadapter.NewJourneyAdapter(journeyService, out)
}

// ContentAdapter returns a new ContentAdapter writing to stdout.
func ContentAdapter() *cliadapter.ContentAdapter {
	once.Do(initServices)
	return cliadapter.NewContentAdapter(contentService, os.Stdout)
}

// PublishAdapter returns a new PublishAdapter writing to stdout.
func PublishAdapter() *cliadapter.PublishAdapter {
	once.Do(initServices)
	return cliadapter.NewPublishAdapter(publishService, os.Stdout)
}

// Close releases the database handle if it was opened.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}
