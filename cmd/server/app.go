package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/ideabox/handler"
	"github.com/dmitrymomot/ideabox/modules/account"
	"github.com/dmitrymomot/ideabox/modules/billing"
	"github.com/dmitrymomot/ideabox/modules/ideas"
	"github.com/dmitrymomot/ideabox/pkg/clientip"
	"github.com/dmitrymomot/ideabox/pkg/environment"
	"github.com/dmitrymomot/ideabox/pkg/httpserver"
	"github.com/dmitrymomot/ideabox/pkg/logger"
	"github.com/dmitrymomot/ideabox/pkg/metrics"
	"github.com/dmitrymomot/ideabox/pkg/pg"
	"github.com/dmitrymomot/ideabox/pkg/redis"
	"github.com/dmitrymomot/ideabox/pkg/requestid"
	"github.com/dmitrymomot/ideabox/pkg/subscription"
	"github.com/dmitrymomot/ideabox/svc/auth"
	"github.com/dmitrymomot/ideabox/svc/datastore"
	"github.com/dmitrymomot/ideabox/svc/idea"
)

// store is what both domain services need from a backend.
type store interface {
	idea.Store
	subscription.Store
}

type app struct {
	cfg      appConfig
	env      environment.Environment
	log      *slog.Logger
	metrics  *metrics.Metrics
	store    store
	events   subscription.EventLog
	gateway  subscription.Gateway
	resolver auth.Resolver
	checks   []httpserver.Check
	closers  []func()
}

// newApp connects the configured backends. Missing configuration is not
// fatal: the affected component is replaced by its unconfigured variant and
// requests that need it fail with a configuration error.
func newApp(ctx context.Context, cfg appConfig, log *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		env:     environment.Parse(cfg.Env),
		log:     log,
		metrics: metrics.New(),
	}

	if err := a.setupStore(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.setupEventLog(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.setupGateway()
	a.setupAuth()

	return a, nil
}

func (a *app) setupStore(ctx context.Context) error {
	switch a.cfg.DatastoreDriver {
	case driverMemory:
		a.log.Warn("using in-memory datastore, data is lost on restart", logger.Component("datastore"))
		a.store = datastore.NewMemory()
		return nil
	case driverPostgres, "":
	default:
		return fmt.Errorf("unknown DATASTORE_DRIVER %q", a.cfg.DatastoreDriver)
	}

	if !a.cfg.Postgres.Configured() {
		a.log.Warn("PG_CONN_URL is not set, idea and subscription requests will fail", logger.Component("datastore"))
		a.store = datastore.Unconfigured{}
		return nil
	}

	pool, err := pg.Connect(ctx, a.cfg.Postgres)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, pool.Close)
	a.checks = append(a.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})

	if a.cfg.Postgres.AutoMigrate {
		if err := pg.Migrate(ctx, pool, datastore.Migrations, datastore.MigrationsDir, a.cfg.Postgres, a.log); err != nil {
			return err
		}
	}

	a.store = datastore.NewPostgres(pool)
	return nil
}

func (a *app) setupEventLog(ctx context.Context) error {
	if !a.cfg.Redis.Configured() {
		return nil
	}

	client, err := redis.Connect(ctx, a.cfg.Redis)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.checks = append(a.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	a.events = datastore.NewEventLog(client, datastore.DefaultEventTTL)
	return nil
}

func (a *app) setupGateway() {
	var (
		gw  subscription.Gateway
		err error
	)
	switch a.cfg.BillingProvider {
	case billing.ProviderPaddle:
		gw, err = subscription.NewPaddleGateway(a.cfg.Paddle)
	default:
		gw, err = subscription.NewStripeGateway(a.cfg.Stripe)
	}
	if err != nil {
		a.log.Warn("payment gateway is not configured", logger.Error(err), slog.String("provider", a.cfg.BillingProvider))
		gw = subscription.UnconfiguredGateway{}
	}
	a.gateway = gw
}

func (a *app) setupAuth() {
	resolver, err := auth.NewSupabaseResolver(a.cfg.Auth)
	if err != nil {
		a.log.Warn("identity provider is not configured", logger.Error(err))
		a.resolver = auth.Unconfigured{}
		return
	}
	a.resolver = resolver
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// router assembles the HTTP surface.
func (a *app) router() http.Handler {
	subOpts := []subscription.ServiceOption{
		subscription.WithCatalog(subscription.NewCatalog(a.cfg.Prices)),
		subscription.WithRecorder(a.metrics),
		subscription.WithLogger(a.log),
		subscription.WithRedirects(a.cfg.BaseURL),
	}
	if a.events != nil {
		subOpts = append(subOpts, subscription.WithEventLog(a.events))
	}
	subs := subscription.NewService(a.gateway, a.store, subOpts...)
	ideaSvc := idea.NewService(a.store, subs, idea.WithLogger(a.log), idea.WithRecorder(a.metrics))

	errorHandler := handler.NewErrorHandler(a.log)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		requestid.Middleware,
		clientip.New(a.cfg.TrustedProxyHeaders...).Middleware,
		environment.Middleware(a.env),
		logger.Middleware(a.log),
	)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(a.log, a.checks...))
	r.Handle("/metrics", a.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(a.resolver, nil, a.log))

		r.Mount("/api/ideas", ideas.NewService(ideaSvc, errorHandler).Handle())
		r.Mount("/api", billing.NewService(subs, ideaSvc, a.cfg.BillingProvider, errorHandler).Handle())
		r.Mount("/", account.Router(account.RouterOptions{
			Supabase: account.NewSupabaseService(a.cfg.Auth, a.cfg.BaseURL, a.resolver, a.env.IsProduction(), errorHandler),
		}))
	})

	return r
}

// run blocks until ctx is cancelled or the server fails.
func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
	if err := srv.Run(ctx, a.router()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
