package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/domain/identity"
	"github.com/scholarbridge/awards/internal/app/metrics"
	"github.com/scholarbridge/awards/internal/app/storage"
	"github.com/scholarbridge/awards/pkg/logger"
)

// Service converts an accepted application into a funded award. Settlement is
// deliberately not idempotent: a second call fails with a precondition error
// instead of issuing a second payment reference.
type Service struct {
	store storage.ApplicationStore
	log   *logger.Logger
	now   func() time.Time
}

// New constructs a settlement service.
func New(store storage.ApplicationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("settlement")
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Settle stamps the payment block and moves the application to Awarded in one
// atomic store write. The payment reference comes from a per-year monotonic
// sequence, so concurrent settlements in the same year can never collide; a
// lost compare-and-set race surfaces as a conflict error and the generated
// reference is discarded.
func (s *Service) Settle(ctx context.Context, actor identity.Actor, appID string) (application.Application, error) {
	if !actor.IsAdmin() {
		return application.Application{}, fmt.Errorf("only administrators may settle awards: %w", storage.ErrValidation)
	}

	app, err := s.store.GetApplication(ctx, appID)
	if err != nil {
		return application.Application{}, err
	}
	if app.Settled() {
		return application.Application{}, fmt.Errorf("application %s already settled with reference %s: %w", appID, app.Payment.Reference, storage.ErrPrecondition)
	}
	if app.Status != application.StatusAccepted {
		return application.Application{}, fmt.Errorf("application %s is %s, not %s: %w", appID, app.Status, application.StatusAccepted, storage.ErrPrecondition)
	}
	if !app.Status.CanTransition(application.StatusAwarded) {
		return application.Application{}, fmt.Errorf("cannot award from %s: %w", app.Status, storage.ErrPrecondition)
	}

	commitTime := s.now().UTC()
	reference, err := s.nextReference(ctx, commitTime.Year())
	if err != nil {
		return application.Application{}, fmt.Errorf("allocate payment reference: %w", err)
	}

	pay := application.Payment{
		Status:    application.PaymentCompleted,
		Date:      commitTime,
		Reference: reference,
	}

	settled, err := s.store.SettleApplication(ctx, appID, application.StatusAccepted, pay)
	if err != nil {
		metrics.SettlementRecorded("failed")
		return application.Application{}, err
	}

	metrics.SettlementRecorded("completed")
	s.log.WithField("application_id", appID).
		WithField("admin_id", actor.ID).
		WithField("payment_reference", reference).
		Info("award settled")
	return settled, nil
}

func (s *Service) nextReference(ctx context.Context, year int) (string, error) {
	seq, err := s.store.NextPaymentSequence(ctx, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PAY-%d-%03d", year, seq), nil
}
