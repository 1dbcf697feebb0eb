package projection

import (
	"context"
	"errors"

	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/domain/scholarship"
	"github.com/scholarbridge/awards/internal/app/storage"
	"github.com/scholarbridge/awards/pkg/logger"
)

// Placeholder display values used when a joined scholarship cannot be
// resolved (deleted or inaccessible).
const (
	UnknownScholarshipTitle = "Unknown Scholarship"
	UnknownDisplayValue     = "N/A"
)

// UserApplication is an application joined with display fields from its
// scholarship, for the applicant's own status view. The application record
// does not denormalize these.
type UserApplication struct {
	application.Application
	ScholarshipTitle    string `json:"scholarship_title"`
	ScholarshipProvider string `json:"scholarship_provider"`
	ScholarshipAmount   string `json:"scholarship_amount"`
	ScholarshipDeadline string `json:"scholarship_deadline"`
}

// Service computes the read views. Every view is a pure query over the
// current record set; consumers re-issue queries after each mutation they
// initiate rather than caching results.
type Service struct {
	applications storage.ApplicationStore
	scholarships storage.ScholarshipStore
	log          *logger.Logger
}

// New constructs a projection service.
func New(applications storage.ApplicationStore, scholarships storage.ScholarshipStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("projection")
	}
	return &Service{
		applications: applications,
		scholarships: scholarships,
		log:          log,
	}
}

// All returns the unfiltered administrator review queue.
func (s *Service) All(ctx context.Context) ([]application.Application, error) {
	return s.applications.ListApplications(ctx)
}

// ByScholarship returns the applications submitted against one scholarship.
func (s *Service) ByScholarship(ctx context.Context, scholarshipID string) ([]application.Application, error) {
	return s.applications.ListApplicationsByScholarship(ctx, scholarshipID)
}

// ByUser returns the caller's applications joined with scholarship display
// fields. A join that fails to resolve degrades to placeholder values rather
// than failing the whole query.
func (s *Service) ByUser(ctx context.Context, userID string) ([]UserApplication, error) {
	apps, err := s.applications.ListApplicationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]UserApplication, 0, len(apps))
	for _, app := range apps {
		view := UserApplication{
			Application:         app,
			ScholarshipTitle:    UnknownScholarshipTitle,
			ScholarshipProvider: UnknownDisplayValue,
			ScholarshipAmount:   UnknownDisplayValue,
			ScholarshipDeadline: UnknownDisplayValue,
		}
		sch, err := s.scholarships.GetScholarship(ctx, app.ScholarshipID)
		switch {
		case err == nil:
			view.ScholarshipTitle = sch.Title
			view.ScholarshipProvider = sch.Provider
			view.ScholarshipAmount = sch.Amount
			view.ScholarshipDeadline = sch.Deadline
		case errors.Is(err, storage.ErrNotFound):
			s.log.WithField("application_id", app.ID).
				WithField("scholarship_id", app.ScholarshipID).
				Warn("scholarship missing for application; using placeholders")
		default:
			return nil, err
		}
		result = append(result, view)
	}
	return result, nil
}

// Approved returns the finance view: applications in the approved-or-awarded
// set, payment block included once settlement has run.
func (s *Service) Approved(ctx context.Context) ([]application.Application, error) {
	return s.applications.ListApplicationsByStatus(ctx, application.ApprovedSet...)
}

// HasApplied reports whether the user already has an application against the
// scholarship.
func (s *Service) HasApplied(ctx context.Context, userID, scholarshipID string) (bool, error) {
	apps, err := s.applications.ListApplicationsByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, app := range apps {
		if app.ScholarshipID == scholarshipID {
			return true, nil
		}
	}
	return false, nil
}

// Lookup exposes the scholarship join used by ByUser for single records.
func (s *Service) Lookup(ctx context.Context, scholarshipID string) (scholarship.Scholarship, error) {
	return s.scholarships.GetScholarship(ctx, scholarshipID)
}
