package main

import (
	"context"
	"os"

	"github.com/dmitrymomot/ideabox/pkg/clientip"
	"github.com/dmitrymomot/ideabox/pkg/config"
	"github.com/dmitrymomot/ideabox/pkg/environment"
	"github.com/dmitrymomot/ideabox/pkg/logger"
	"github.com/dmitrymomot/ideabox/pkg/requestid"
	"github.com/dmitrymomot/ideabox/svc/auth"
)

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(environment.Parse(cfg.Env), cfg.Name),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			auth.LoggerExtractor(),
		),
	)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}
