package main

import (
	"github.com/dmitrymomot/ideabox/pkg/httpserver"
	"github.com/dmitrymomot/ideabox/pkg/pg"
	"github.com/dmitrymomot/ideabox/pkg/redis"
	"github.com/dmitrymomot/ideabox/pkg/subscription"
	"github.com/dmitrymomot/ideabox/svc/auth"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Name    string `env:"APP_NAME" envDefault:"ideabox"`
	BaseURL string `env:"APP_URL" envDefault:"http://localhost:8080"`

	// DatastoreDriver selects postgres or memory. Postgres without
	// PG_CONN_URL falls back to the unconfigured store.
	DatastoreDriver string `env:"DATASTORE_DRIVER" envDefault:"postgres"`
	// BillingProvider selects stripe or paddle.
	BillingProvider string `env:"BILLING_PROVIDER" envDefault:"stripe"`
	// TrustedProxyHeaders carry the client address, in priority order.
	TrustedProxyHeaders []string `env:"TRUSTED_PROXY_HEADERS" envSeparator:"," envDefault:"CF-Connecting-IP,X-Forwarded-For,X-Real-IP"`

	HTTP     httpserver.Config
	Postgres pg.Config
	Redis    redis.Config
	Auth     auth.Config
	Stripe   subscription.StripeConfig
	Paddle   subscription.PaddleConfig
	Prices   subscription.PriceIDs
}
