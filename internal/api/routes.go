package api

import (
	"net/http"

	"github.com/JaimeStill/courier/internal/config"
	"github.com/JaimeStill/courier/internal/pipeline"
	"github.com/JaimeStill/courier/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	pipelineHandler := pipeline.NewHandler(
		domain.Orchestrator,
		domain.Coordinator,
		&cfg.Pipeline,
		runtime.Logger,
	)

	routes.Register(
		mux,
		domain.Queue.Handler().Routes(),
		domain.Failures.Handler().Routes(),
		pipelineHandler.Routes(),
	)
}
