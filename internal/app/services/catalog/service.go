package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/scholarbridge/awards/internal/app/domain/identity"
	"github.com/scholarbridge/awards/internal/app/domain/scholarship"
	"github.com/scholarbridge/awards/internal/app/storage"
	"github.com/scholarbridge/awards/pkg/logger"
)

// Service manages the scholarship catalog. The workflow treats it as a lookup
// table; administrators maintain it.
type Service struct {
	store storage.ScholarshipStore
	log   *logger.Logger
}

// New constructs a catalog service.
func New(store storage.ScholarshipStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{store: store, log: log}
}

// Create registers a new scholarship posting.
func (s *Service) Create(ctx context.Context, actor identity.Actor, sch scholarship.Scholarship) (scholarship.Scholarship, error) {
	if !actor.IsAdmin() {
		return scholarship.Scholarship{}, fmt.Errorf("only administrators may create scholarships: %w", storage.ErrValidation)
	}
	if err := validate(&sch); err != nil {
		return scholarship.Scholarship{}, err
	}

	sch.ID = ""
	created, err := s.store.CreateScholarship(ctx, sch)
	if err != nil {
		return scholarship.Scholarship{}, err
	}
	s.log.WithField("scholarship_id", created.ID).
		WithField("title", created.Title).
		Info("scholarship created")
	return created, nil
}

// Update replaces the mutable fields of a posting. Identity is immutable.
func (s *Service) Update(ctx context.Context, actor identity.Actor, id string, sch scholarship.Scholarship) (scholarship.Scholarship, error) {
	if !actor.IsAdmin() {
		return scholarship.Scholarship{}, fmt.Errorf("only administrators may update scholarships: %w", storage.ErrValidation)
	}
	if err := validate(&sch); err != nil {
		return scholarship.Scholarship{}, err
	}

	sch.ID = id
	updated, err := s.store.UpdateScholarship(ctx, sch)
	if err != nil {
		return scholarship.Scholarship{}, err
	}
	s.log.WithField("scholarship_id", id).Info("scholarship updated")
	return updated, nil
}

// Delete removes a posting. Existing applications keep their reference and
// degrade to placeholder display values in the applicant view.
func (s *Service) Delete(ctx context.Context, actor identity.Actor, id string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("only administrators may delete scholarships: %w", storage.ErrValidation)
	}
	if err := s.store.DeleteScholarship(ctx, id); err != nil {
		return err
	}
	s.log.WithField("scholarship_id", id).Info("scholarship deleted")
	return nil
}

// Get retrieves one posting.
func (s *Service) Get(ctx context.Context, id string) (scholarship.Scholarship, error) {
	return s.store.GetScholarship(ctx, id)
}

// List returns every posting.
func (s *Service) List(ctx context.Context) ([]scholarship.Scholarship, error) {
	return s.store.ListScholarships(ctx)
}

func validate(sch *scholarship.Scholarship) error {
	sch.Title = strings.TrimSpace(sch.Title)
	sch.Provider = strings.TrimSpace(sch.Provider)
	sch.Amount = strings.TrimSpace(sch.Amount)
	sch.Deadline = strings.TrimSpace(sch.Deadline)

	if sch.Title == "" || sch.Provider == "" {
		return fmt.Errorf("title and provider are required: %w", storage.ErrValidation)
	}
	if !sch.Category.Valid() {
		return fmt.Errorf("unknown category %q: %w", sch.Category, storage.ErrValidation)
	}

	seen := make(map[string]struct{}, len(sch.RequiredDocuments))
	docs := make([]string, 0, len(sch.RequiredDocuments))
	for _, name := range sch.RequiredDocuments {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("required document names cannot be blank: %w", storage.ErrValidation)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate required document %q: %w", name, storage.ErrValidation)
		}
		seen[name] = struct{}{}
		docs = append(docs, name)
	}
	sch.RequiredDocuments = docs
	return nil
}
