package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/domain/identity"
	"github.com/scholarbridge/awards/internal/app/metrics"
	"github.com/scholarbridge/awards/internal/app/storage"
	"github.com/scholarbridge/awards/pkg/logger"
)

// Service is the status transition engine. It owns every status change except
// settlement, which the settlement service commits through the same edge
// table.
type Service struct {
	store storage.ApplicationStore
	log   *logger.Logger
}

// New constructs a transition engine.
func New(store storage.ApplicationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("workflow")
	}
	return &Service{store: store, log: log}
}

// Transition moves an application to the target status. Remarks are mandatory
// for a rejection and forbidden influence on any other edge; they are written
// atomically with the status. Either the whole update commits or the record
// is unchanged.
func (s *Service) Transition(ctx context.Context, actor identity.Actor, appID string, target application.Status, remarks []string) (application.Application, error) {
	if !actor.IsAdmin() {
		return application.Application{}, fmt.Errorf("only administrators may change application status: %w", storage.ErrValidation)
	}
	if !target.Valid() {
		return application.Application{}, fmt.Errorf("unknown target status %q: %w", target, storage.ErrValidation)
	}
	if target == application.StatusAwarded {
		return application.Application{}, fmt.Errorf("awarded is set by settlement, not by a direct status change: %w", storage.ErrValidation)
	}

	app, err := s.store.GetApplication(ctx, appID)
	if err != nil {
		return application.Application{}, err
	}
	if app.Status.Terminal() {
		return application.Application{}, fmt.Errorf("application %s is already %s: %w", appID, app.Status, storage.ErrPrecondition)
	}
	if !app.Status.CanTransition(target) {
		return application.Application{}, fmt.Errorf("cannot move from %s to %s: %w", app.Status, target, storage.ErrValidation)
	}

	var cleaned []string
	if target == application.StatusRejected {
		cleaned = cleanRemarks(remarks)
		if len(cleaned) == 0 {
			return application.Application{}, fmt.Errorf("rejection requires at least one remark: %w", storage.ErrValidation)
		}
	} else {
		// Non-rejection edges never carry remarks; the source state is
		// non-terminal so none exist to preserve.
		cleaned = nil
	}

	updated, err := s.store.UpdateApplicationStatus(ctx, appID, target, cleaned)
	if err != nil {
		return application.Application{}, err
	}

	metrics.TransitionApplied(string(app.Status), string(target))
	s.log.WithField("application_id", appID).
		WithField("admin_id", actor.ID).
		WithField("from", string(app.Status)).
		WithField("to", string(target)).
		Info("application status changed")
	return updated, nil
}

// RecordVerification overwrites the advisory per-document review result. It
// never changes status; an administrator acts on it explicitly via
// Transition.
func (s *Service) RecordVerification(ctx context.Context, actor identity.Actor, appID string, valid bool, reasons []string) (application.Application, error) {
	if !actor.IsAdmin() {
		return application.Application{}, fmt.Errorf("only administrators may record verification results: %w", storage.ErrValidation)
	}

	result := application.Verification{
		DocumentsValid:     valid,
		ReasonForRejection: cleanRemarks(reasons),
		RecordedAt:         time.Now().UTC(),
	}
	if !valid && len(result.ReasonForRejection) == 0 {
		return application.Application{}, fmt.Errorf("failing verification requires at least one reason: %w", storage.ErrValidation)
	}

	updated, err := s.store.SetVerification(ctx, appID, result)
	if err != nil {
		return application.Application{}, err
	}
	s.log.WithField("application_id", appID).
		WithField("admin_id", actor.ID).
		WithField("documents_valid", valid).
		Info("verification result recorded")
	return updated, nil
}

// Get retrieves one application record.
func (s *Service) Get(ctx context.Context, appID string) (application.Application, error) {
	return s.store.GetApplication(ctx, appID)
}

func cleanRemarks(remarks []string) []string {
	var cleaned []string
	for _, remark := range remarks {
		if trimmed := strings.TrimSpace(remark); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
