package api

import (
	"github.com/JaimeStill/courier/internal/analysis"
	"github.com/JaimeStill/courier/internal/config"
	"github.com/JaimeStill/courier/internal/failures"
	"github.com/JaimeStill/courier/internal/ocr"
	"github.com/JaimeStill/courier/internal/paperless"
	"github.com/JaimeStill/courier/internal/pipeline"
	"github.com/JaimeStill/courier/internal/queue"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Queue        queue.System
	Failures     failures.System
	Backend      paperless.Client
	OCR          ocr.Client
	Runner       *analysis.Runner
	Orchestrator *pipeline.Orchestrator
	Coordinator  *pipeline.Coordinator
}

// NewDomain creates all domain systems from the API runtime. The analysis
// runner is only assembled when analysis is enabled in configuration.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	queueSystem := queue.New(db, runtime.Logger, runtime.Pagination)
	failureSystem := failures.New(db, runtime.Logger, runtime.Pagination)
	backend := paperless.New(&cfg.Paperless, runtime.Logger)
	ocrClient := ocr.New(&cfg.OCR, runtime.Logger)

	var runner *analysis.Runner
	if cfg.Analysis.IsEnabled() {
		runner = analysis.NewRunner(
			&cfg.Analysis,
			analysis.NewClient(&cfg.Analysis, runtime.Logger),
			backend,
			analysis.NewStore(db, runtime.Logger),
			runtime.Logger,
		)
	}

	orchestrator := pipeline.NewOrchestrator(
		queueSystem,
		failureSystem,
		backend,
		ocrClient,
		runner,
		runtime.Storage,
		runtime.Logger,
	)

	coordinator := pipeline.NewCoordinator(orchestrator, queueSystem, runtime.Logger)

	return &Domain{
		Queue:        queueSystem,
		Failures:     failureSystem,
		Backend:      backend,
		OCR:          ocrClient,
		Runner:       runner,
		Orchestrator: orchestrator,
		Coordinator:  coordinator,
	}
}
