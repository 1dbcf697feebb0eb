package intake

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/domain/identity"
	"github.com/scholarbridge/awards/internal/app/storage"
	"github.com/scholarbridge/awards/pkg/logger"
)

// Banking fields are captured at submission time because settlement needs
// them unmodified later; they are format-checked here, once.
var (
	accountNumberPattern = regexp.MustCompile(`^\d{8,20}$`)
	ifscPattern          = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

const (
	minAge = 15
	maxAge = 100
)

// FileUpload is one document attached to a submission.
type FileUpload struct {
	ContentType string
	Content     []byte
}

// Submission is the student's form input plus one uploaded file per required
// document name.
type Submission struct {
	ScholarshipID string
	StudentName   string
	StudentEmail  string
	Age           int
	Gender        string
	DOB           string
	FatherName    string
	MotherName    string
	AnnualIncome  float64

	BankAccountNumber string
	IFSCCode          string
	BankName          string

	Documents map[string]FileUpload
}

// Service validates submissions and creates application records.
type Service struct {
	scholarships storage.ScholarshipStore
	applications storage.ApplicationStore
	documents    storage.DocumentStore
	log          *logger.Logger
}

// New constructs an intake service.
func New(scholarships storage.ScholarshipStore, applications storage.ApplicationStore, documents storage.DocumentStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("intake")
	}
	return &Service{
		scholarships: scholarships,
		applications: applications,
		documents:    documents,
		log:          log,
	}
}

// Submit validates the submission against its scholarship's requirements,
// stores the uploaded files and creates the record with status Submitted.
// Nothing is persisted when validation fails.
func (s *Service) Submit(ctx context.Context, actor identity.Actor, sub Submission) (application.Application, error) {
	if actor.ID == "" {
		return application.Application{}, fmt.Errorf("caller identity required: %w", storage.ErrValidation)
	}

	sch, err := s.scholarships.GetScholarship(ctx, strings.TrimSpace(sub.ScholarshipID))
	if err != nil {
		return application.Application{}, fmt.Errorf("scholarship lookup: %w", err)
	}

	if err := validateFields(&sub); err != nil {
		return application.Application{}, err
	}
	if err := validateDocuments(sch.RequiredDocuments, sub.Documents); err != nil {
		return application.Application{}, err
	}

	// Upload in required-document order so document sets stay ordered the
	// same way the scholarship declares them.
	docs := make([]application.Document, 0, len(sch.RequiredDocuments))
	for _, name := range sch.RequiredDocuments {
		upload := sub.Documents[name]
		fileID, err := s.documents.SaveDocument(ctx, name, upload.ContentType, upload.Content)
		if err != nil {
			return application.Application{}, fmt.Errorf("store document %q: %w", name, err)
		}
		docs = append(docs, application.Document{Name: name, FileID: fileID})
	}

	app := application.Application{
		ScholarshipID:     sch.ID,
		UserID:            actor.ID,
		StudentName:       sub.StudentName,
		StudentEmail:      sub.StudentEmail,
		Age:               sub.Age,
		Gender:            sub.Gender,
		DOB:               sub.DOB,
		FatherName:        sub.FatherName,
		MotherName:        sub.MotherName,
		AnnualIncome:      sub.AnnualIncome,
		BankAccountNumber: sub.BankAccountNumber,
		IFSCCode:          sub.IFSCCode,
		BankName:          sub.BankName,
		Status:            application.StatusSubmitted,
		Documents:         docs,
	}

	created, err := s.applications.CreateApplication(ctx, app)
	if err != nil {
		return application.Application{}, err
	}
	s.log.WithField("application_id", created.ID).
		WithField("scholarship_id", sch.ID).
		WithField("user_id", actor.ID).
		Info("application submitted")
	return created, nil
}

// Withdraw deletes the caller's own application while it is still in a
// non-terminal, unpaid state.
func (s *Service) Withdraw(ctx context.Context, actor identity.Actor, appID string) error {
	app, err := s.applications.GetApplication(ctx, appID)
	if err != nil {
		return err
	}
	if app.UserID != actor.ID {
		return fmt.Errorf("application %s not owned by caller: %w", appID, storage.ErrValidation)
	}
	if app.Status.Terminal() || app.Settled() {
		return fmt.Errorf("application %s can no longer be withdrawn: %w", appID, storage.ErrPrecondition)
	}

	if err := s.applications.DeleteApplication(ctx, appID); err != nil {
		return err
	}
	for _, doc := range app.Documents {
		if err := s.documents.DeleteDocument(ctx, doc.FileID); err != nil {
			s.log.WithError(err).Warnf("orphaned document %s after withdrawal", doc.FileID)
		}
	}
	s.log.WithField("application_id", appID).
		WithField("user_id", actor.ID).
		Info("application withdrawn")
	return nil
}

func validateFields(sub *Submission) error {
	sub.StudentName = strings.TrimSpace(sub.StudentName)
	sub.StudentEmail = strings.TrimSpace(sub.StudentEmail)
	sub.Gender = strings.TrimSpace(sub.Gender)
	sub.DOB = strings.TrimSpace(sub.DOB)
	sub.FatherName = strings.TrimSpace(sub.FatherName)
	sub.MotherName = strings.TrimSpace(sub.MotherName)
	sub.BankAccountNumber = strings.TrimSpace(sub.BankAccountNumber)
	sub.IFSCCode = strings.ToUpper(strings.TrimSpace(sub.IFSCCode))
	sub.BankName = strings.TrimSpace(sub.BankName)

	if sub.StudentName == "" {
		return fmt.Errorf("student_name is required: %w", storage.ErrValidation)
	}
	if _, err := mail.ParseAddress(sub.StudentEmail); err != nil {
		return fmt.Errorf("student_email is invalid: %w", storage.ErrValidation)
	}
	if sub.Age < minAge || sub.Age > maxAge {
		return fmt.Errorf("age must be between %d and %d: %w", minAge, maxAge, storage.ErrValidation)
	}
	if sub.DOB == "" {
		return fmt.Errorf("dob is required: %w", storage.ErrValidation)
	}
	if sub.AnnualIncome < 0 {
		return fmt.Errorf("annual_income cannot be negative: %w", storage.ErrValidation)
	}
	if !accountNumberPattern.MatchString(sub.BankAccountNumber) {
		return fmt.Errorf("bank_account_number must be 8-20 digits: %w", storage.ErrValidation)
	}
	if !ifscPattern.MatchString(sub.IFSCCode) {
		return fmt.Errorf("ifsc_code is invalid: %w", storage.ErrValidation)
	}
	if sub.BankName == "" {
		return fmt.Errorf("bank_name is required: %w", storage.ErrValidation)
	}
	return nil
}

func validateDocuments(required []string, supplied map[string]FileUpload) error {
	var missing []string
	for _, name := range required {
		upload, ok := supplied[name]
		if !ok || len(upload.Content) == 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required documents: %s: %w", strings.Join(missing, ", "), storage.ErrValidation)
	}

	for name := range supplied {
		if !contains(required, name) {
			return fmt.Errorf("document %q is not required by this scholarship: %w", name, storage.ErrValidation)
		}
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
