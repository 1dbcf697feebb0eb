package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/domain/scholarship"
	"github.com/scholarbridge/awards/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	scholarships map[string]scholarship.Scholarship
	applications map[string]application.Application
	documents    map[string]storage.StoredDocument
	paymentSeq   map[int]int
	usedRefs     map[string]struct{}
}

var _ storage.ScholarshipStore = (*Store)(nil)
var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.DocumentStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:       1,
		scholarships: make(map[string]scholarship.Scholarship),
		applications: make(map[string]application.Application),
		documents:    make(map[string]storage.StoredDocument),
		paymentSeq:   make(map[int]int),
		usedRefs:     make(map[string]struct{}),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// ScholarshipStore implementation ---------------------------------------------

func (s *Store) CreateScholarship(_ context.Context, sch scholarship.Scholarship) (scholarship.Scholarship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sch.ID == "" {
		sch.ID = s.nextIDLocked()
	} else if _, exists := s.scholarships[sch.ID]; exists {
		return scholarship.Scholarship{}, fmt.Errorf("scholarship %s: %w", sch.ID, storage.ErrConflict)
	}

	now := time.Now().UTC()
	sch.CreatedAt = now
	sch.UpdatedAt = now
	sch.RequiredDocuments = append([]string(nil), sch.RequiredDocuments...)

	s.scholarships[sch.ID] = sch
	return cloneScholarship(sch), nil
}

func (s *Store) UpdateScholarship(_ context.Context, sch scholarship.Scholarship) (scholarship.Scholarship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.scholarships[sch.ID]
	if !ok {
		return scholarship.Scholarship{}, fmt.Errorf("scholarship %s: %w", sch.ID, storage.ErrNotFound)
	}

	sch.CreatedAt = original.CreatedAt
	sch.UpdatedAt = time.Now().UTC()
	sch.RequiredDocuments = append([]string(nil), sch.RequiredDocuments...)

	s.scholarships[sch.ID] = sch
	return cloneScholarship(sch), nil
}

func (s *Store) GetScholarship(_ context.Context, id string) (scholarship.Scholarship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sch, ok := s.scholarships[id]
	if !ok {
		return scholarship.Scholarship{}, fmt.Errorf("scholarship %s: %w", id, storage.ErrNotFound)
	}
	return cloneScholarship(sch), nil
}

func (s *Store) ListScholarships(_ context.Context) ([]scholarship.Scholarship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]scholarship.Scholarship, 0, len(s.scholarships))
	for _, sch := range s.scholarships {
		result = append(result, cloneScholarship(sch))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) DeleteScholarship(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scholarships[id]; !ok {
		return fmt.Errorf("scholarship %s: %w", id, storage.ErrNotFound)
	}
	delete(s.scholarships, id)
	return nil
}

// ApplicationStore implementation ---------------------------------------------

func (s *Store) CreateApplication(_ context.Context, app application.Application) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ID == "" {
		app.ID = s.nextIDLocked()
	} else if _, exists := s.applications[app.ID]; exists {
		return application.Application{}, fmt.Errorf("application %s: %w", app.ID, storage.ErrConflict)
	}

	now := time.Now().UTC()
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = now
	}
	app.UpdatedAt = now

	stored := cloneApplication(app)
	s.applications[app.ID] = stored
	return cloneApplication(stored), nil
}

func (s *Store) GetApplication(_ context.Context, id string) (application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return application.Application{}, fmt.Errorf("application %s: %w", id, storage.ErrNotFound)
	}
	return cloneApplication(app), nil
}

func (s *Store) ListApplications(_ context.Context) ([]application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(application.Application) bool { return true }), nil
}

func (s *Store) ListApplicationsByScholarship(_ context.Context, scholarshipID string) ([]application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(app application.Application) bool {
		return app.ScholarshipID == scholarshipID
	}), nil
}

func (s *Store) ListApplicationsByUser(_ context.Context, userID string) ([]application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(app application.Application) bool {
		return app.UserID == userID
	}), nil
}

func (s *Store) ListApplicationsByStatus(_ context.Context, statuses ...application.Status) ([]application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(app application.Application) bool {
		for _, status := range statuses {
			if app.Status == status {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) listLocked(match func(application.Application) bool) []application.Application {
	result := make([]application.Application, 0)
	for _, app := range s.applications {
		if match(app) {
			result = append(result, cloneApplication(app))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SubmittedAt.Equal(result[j].SubmittedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].SubmittedAt.Before(result[j].SubmittedAt)
	})
	return result
}

func (s *Store) DeleteApplication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[id]; !ok {
		return fmt.Errorf("application %s: %w", id, storage.ErrNotFound)
	}
	delete(s.applications, id)
	return nil
}

func (s *Store) UpdateApplicationStatus(_ context.Context, id string, status application.Status, remarks []string) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return application.Application{}, fmt.Errorf("application %s: %w", id, storage.ErrNotFound)
	}

	app.Status = status
	app.Remarks = append([]string(nil), remarks...)
	app.UpdatedAt = time.Now().UTC()

	s.applications[id] = app
	return cloneApplication(app), nil
}

func (s *Store) SetVerification(_ context.Context, id string, result application.Verification) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return application.Application{}, fmt.Errorf("application %s: %w", id, storage.ErrNotFound)
	}

	result.ReasonForRejection = append([]string(nil), result.ReasonForRejection...)
	app.Verification = &result
	app.UpdatedAt = time.Now().UTC()

	s.applications[id] = app
	return cloneApplication(app), nil
}

func (s *Store) SettleApplication(_ context.Context, id string, from application.Status, pay application.Payment) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return application.Application{}, fmt.Errorf("application %s: %w", id, storage.ErrNotFound)
	}
	if app.Status != from || app.Payment != nil {
		return application.Application{}, fmt.Errorf("application %s not payable: %w", id, storage.ErrPrecondition)
	}
	if _, used := s.usedRefs[pay.Reference]; used {
		return application.Application{}, fmt.Errorf("payment reference %s already issued: %w", pay.Reference, storage.ErrConflict)
	}

	s.usedRefs[pay.Reference] = struct{}{}
	app.Status = application.StatusAwarded
	app.Payment = &pay
	app.UpdatedAt = time.Now().UTC()

	s.applications[id] = app
	return cloneApplication(app), nil
}

func (s *Store) NextPaymentSequence(_ context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paymentSeq[year]++
	return s.paymentSeq[year], nil
}

// DocumentStore implementation -------------------------------------------------

func (s *Store) SaveDocument(_ context.Context, name, contentType string, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileID := s.nextIDLocked()
	s.documents[fileID] = storage.StoredDocument{
		FileID:      fileID,
		Name:        name,
		ContentType: contentType,
		Content:     append([]byte(nil), content...),
	}
	return fileID, nil
}

func (s *Store) GetDocument(_ context.Context, fileID string) (storage.StoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[fileID]
	if !ok {
		return storage.StoredDocument{}, fmt.Errorf("document %s: %w", fileID, storage.ErrNotFound)
	}
	doc.Content = append([]byte(nil), doc.Content...)
	return doc, nil
}

func (s *Store) DeleteDocument(_ context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[fileID]; !ok {
		return fmt.Errorf("document %s: %w", fileID, storage.ErrNotFound)
	}
	delete(s.documents, fileID)
	return nil
}

// Helpers ----------------------------------------------------------------------

func cloneScholarship(sch scholarship.Scholarship) scholarship.Scholarship {
	sch.RequiredDocuments = append([]string(nil), sch.RequiredDocuments...)
	return sch
}

func cloneApplication(app application.Application) application.Application {
	app.Documents = append([]application.Document(nil), app.Documents...)
	app.Remarks = append([]string(nil), app.Remarks...)
	if app.Verification != nil {
		v := *app.Verification
		v.ReasonForRejection = append([]string(nil), v.ReasonForRejection...)
		app.Verification = &v
	}
	if app.Payment != nil {
		p := *app.Payment
		app.Payment = &p
	}
	return app
}
