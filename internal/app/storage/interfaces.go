package storage

import (
	"context"

	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/domain/scholarship"
)

// ScholarshipStore persists catalog postings.
type ScholarshipStore interface {
	CreateScholarship(ctx context.Context, sch scholarship.Scholarship) (scholarship.Scholarship, error)
	UpdateScholarship(ctx context.Context, sch scholarship.Scholarship) (scholarship.Scholarship, error)
	GetScholarship(ctx context.Context, id string) (scholarship.Scholarship, error)
	ListScholarships(ctx context.Context) ([]scholarship.Scholarship, error)
	DeleteScholarship(ctx context.Context, id string) error
}

// ApplicationStore persists application records. Mutations are atomic: either
// the full update (status, remarks, payment block) commits or the record is
// left unchanged.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app application.Application) (application.Application, error)
	GetApplication(ctx context.Context, id string) (application.Application, error)
	ListApplications(ctx context.Context) ([]application.Application, error)
	ListApplicationsByScholarship(ctx context.Context, scholarshipID string) ([]application.Application, error)
	ListApplicationsByUser(ctx context.Context, userID string) ([]application.Application, error)
	ListApplicationsByStatus(ctx context.Context, statuses ...application.Status) ([]application.Application, error)
	DeleteApplication(ctx context.Context, id string) error

	// UpdateApplicationStatus writes status and remarks together.
	UpdateApplicationStatus(ctx context.Context, id string, status application.Status, remarks []string) (application.Application, error)

	// SetVerification overwrites the advisory verification result.
	SetVerification(ctx context.Context, id string, result application.Verification) (application.Application, error)

	// SettleApplication commits the payment block and the Awarded status in
	// one compare-and-set write. The record must still be in `from` status
	// with no payment issued, and the payment reference must be unused;
	// otherwise ErrPrecondition or ErrConflict is returned and nothing is
	// written.
	SettleApplication(ctx context.Context, id string, from application.Status, pay application.Payment) (application.Application, error)

	// NextPaymentSequence returns the next value of the per-year settlement
	// counter backing payment reference generation.
	NextPaymentSequence(ctx context.Context, year int) (int, error)
}

// DocumentStore persists uploaded file content by opaque reference.
type DocumentStore interface {
	SaveDocument(ctx context.Context, name, contentType string, content []byte) (string, error)
	GetDocument(ctx context.Context, fileID string) (StoredDocument, error)
	DeleteDocument(ctx context.Context, fileID string) error
}

// StoredDocument is file content as returned by document storage.
type StoredDocument struct {
	FileID      string
	Name        string
	ContentType string
	Content     []byte
}
