package app

import (
	"context"
	"fmt"

	"github.com/scholarbridge/awards/internal/app/services/catalog"
	"github.com/scholarbridge/awards/internal/app/services/documents"
	"github.com/scholarbridge/awards/internal/app/services/intake"
	"github.com/scholarbridge/awards/internal/app/services/projection"
	"github.com/scholarbridge/awards/internal/app/services/settlement"
	"github.com/scholarbridge/awards/internal/app/services/workflow"
	"github.com/scholarbridge/awards/internal/app/storage"
	"github.com/scholarbridge/awards/internal/app/storage/memory"
	"github.com/scholarbridge/awards/internal/app/system"
	"github.com/scholarbridge/awards/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Scholarships storage.ScholarshipStore
	Applications storage.ApplicationStore
	Documents    storage.DocumentStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Catalog     *catalog.Service
	Intake      *intake.Service
	Workflow    *workflow.Service
	Settlement  *settlement.Service
	Projections *projection.Service
	Documents   *documents.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Scholarships == nil {
		stores.Scholarships = mem
	}
	if stores.Applications == nil {
		stores.Applications = mem
	}
	if stores.Documents == nil {
		stores.Documents = mem
	}

	manager := system.NewManager()

	catalogService := catalog.New(stores.Scholarships, log)
	intakeService := intake.New(stores.Scholarships, stores.Applications, stores.Documents, log)
	workflowService := workflow.New(stores.Applications, log)
	settlementService := settlement.New(stores.Applications, log)
	projectionService := projection.New(stores.Applications, stores.Scholarships, log)
	documentService := documents.New(stores.Documents, log)

	for _, name := range []string{"catalog", "intake", "workflow", "settlement"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	refresher := projection.NewRefresher(projectionService, log)
	if err := manager.Register(refresher); err != nil {
		return nil, fmt.Errorf("register %s: %w", refresher.Name(), err)
	}

	return &Application{
		manager:     manager,
		log:         log,
		Catalog:     catalogService,
		Intake:      intakeService,
		Workflow:    workflowService,
		Settlement:  settlementService,
		Projections: projectionService,
		Documents:   documentService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
