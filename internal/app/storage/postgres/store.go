package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/domain/scholarship"
	"github.com/scholarbridge/awards/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.ScholarshipStore = (*Store)(nil)
var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.DocumentStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// --- ScholarshipStore -------------------------------------------------------

func (s *Store) CreateScholarship(ctx context.Context, sch scholarship.Scholarship) (scholarship.Scholarship, error) {
	if sch.ID == "" {
		sch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sch.CreatedAt = now
	sch.UpdatedAt = now

	docsJSON, err := json.Marshal(sch.RequiredDocuments)
	if err != nil {
		return scholarship.Scholarship{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scholarships (id, title, provider, amount, deadline, category, description, age_range, income_range, required_documents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, sch.ID, sch.Title, sch.Provider, sch.Amount, sch.Deadline, string(sch.Category), sch.Description, sch.AgeRange, sch.IncomeRange, docsJSON, sch.CreatedAt, sch.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return scholarship.Scholarship{}, fmt.Errorf("scholarship %s: %w", sch.ID, storage.ErrConflict)
		}
		return scholarship.Scholarship{}, err
	}
	return sch, nil
}

func (s *Store) UpdateScholarship(ctx context.Context, sch scholarship.Scholarship) (scholarship.Scholarship, error) {
	existing, err := s.GetScholarship(ctx, sch.ID)
	if err != nil {
		return scholarship.Scholarship{}, err
	}

	sch.CreatedAt = existing.CreatedAt
	sch.UpdatedAt = time.Now().UTC()

	docsJSON, err := json.Marshal(sch.RequiredDocuments)
	if err != nil {
		return scholarship.Scholarship{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE scholarships
		SET title = $2, provider = $3, amount = $4, deadline = $5, category = $6, description = $7, age_range = $8, income_range = $9, required_documents = $10, updated_at = $11
		WHERE id = $1
	`, sch.ID, sch.Title, sch.Provider, sch.Amount, sch.Deadline, string(sch.Category), sch.Description, sch.AgeRange, sch.IncomeRange, docsJSON, sch.UpdatedAt)
	if err != nil {
		return scholarship.Scholarship{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return scholarship.Scholarship{}, fmt.Errorf("scholarship %s: %w", sch.ID, storage.ErrNotFound)
	}
	return sch, nil
}

const scholarshipColumns = `id, title, provider, amount, deadline, category, description, age_range, income_range, required_documents, created_at, updated_at`

func scanScholarship(row interface{ Scan(...any) error }) (scholarship.Scholarship, error) {
	var (
		sch      scholarship.Scholarship
		category string
		docsRaw  []byte
	)
	if err := row.Scan(&sch.ID, &sch.Title, &sch.Provider, &sch.Amount, &sch.Deadline, &category, &sch.Description, &sch.AgeRange, &sch.IncomeRange, &docsRaw, &sch.CreatedAt, &sch.UpdatedAt); err != nil {
		return scholarship.Scholarship{}, err
	}
	sch.Category = scholarship.Category(category)
	if len(docsRaw) > 0 {
		_ = json.Unmarshal(docsRaw, &sch.RequiredDocuments)
	}
	return sch, nil
}

func (s *Store) GetScholarship(ctx context.Context, id string) (scholarship.Scholarship, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+scholarshipColumns+`
		FROM scholarships
		WHERE id = $1
	`, id)

	sch, err := scanScholarship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return scholarship.Scholarship{}, fmt.Errorf("scholarship %s: %w", id, storage.ErrNotFound)
	}
	return sch, err
}

func (s *Store) ListScholarships(ctx context.Context) ([]scholarship.Scholarship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scholarshipColumns+`
		FROM scholarships
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []scholarship.Scholarship
	for rows.Next() {
		sch, err := scanScholarship(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sch)
	}
	return result, rows.Err()
}

func (s *Store) DeleteScholarship(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM scholarships WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("scholarship %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- ApplicationStore -------------------------------------------------------

const applicationColumns = `id, scholarship_id, user_id, student_name, student_email, age, gender, dob, father_name, mother_name, annual_income,
	bank_account_number, ifsc_code, bank_name, status, submitted_at, documents, verification, remarks,
	payment_status, payment_date, payment_reference, updated_at`

func (s *Store) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	if app.ScholarshipID == "" || app.UserID == "" {
		return application.Application{}, fmt.Errorf("scholarship_id and user_id required: %w", storage.ErrValidation)
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = now
	}
	app.UpdatedAt = now

	docsJSON, err := json.Marshal(app.Documents)
	if err != nil {
		return application.Application{}, err
	}
	remarksJSON, err := json.Marshal(app.Remarks)
	if err != nil {
		return application.Application{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (id, scholarship_id, user_id, student_name, student_email, age, gender, dob, father_name, mother_name, annual_income,
			bank_account_number, ifsc_code, bank_name, status, submitted_at, documents, remarks, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, app.ID, app.ScholarshipID, app.UserID, app.StudentName, app.StudentEmail, app.Age, app.Gender, app.DOB, app.FatherName, app.MotherName, app.AnnualIncome,
		app.BankAccountNumber, app.IFSCCode, app.BankName, string(app.Status), app.SubmittedAt, docsJSON, remarksJSON, app.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return application.Application{}, fmt.Errorf("application %s: %w", app.ID, storage.ErrConflict)
		}
		return application.Application{}, err
	}
	return app, nil
}

func scanApplication(row interface{ Scan(...any) error }) (application.Application, error) {
	var (
		app             application.Application
		status          string
		docsRaw         []byte
		verificationRaw []byte
		remarksRaw      []byte
		payStatus       sql.NullString
		payDate         sql.NullTime
		payRef          sql.NullString
	)
	if err := row.Scan(&app.ID, &app.ScholarshipID, &app.UserID, &app.StudentName, &app.StudentEmail, &app.Age, &app.Gender, &app.DOB,
		&app.FatherName, &app.MotherName, &app.AnnualIncome, &app.BankAccountNumber, &app.IFSCCode, &app.BankName,
		&status, &app.SubmittedAt, &docsRaw, &verificationRaw, &remarksRaw, &payStatus, &payDate, &payRef, &app.UpdatedAt); err != nil {
		return application.Application{}, err
	}
	app.Status = application.Status(status)
	if len(docsRaw) > 0 {
		_ = json.Unmarshal(docsRaw, &app.Documents)
	}
	if len(verificationRaw) > 0 {
		var v application.Verification
		if err := json.Unmarshal(verificationRaw, &v); err == nil {
			app.Verification = &v
		}
	}
	if len(remarksRaw) > 0 {
		_ = json.Unmarshal(remarksRaw, &app.Remarks)
	}
	if payStatus.Valid && payRef.Valid {
		app.Payment = &application.Payment{
			Status:    payStatus.String,
			Date:      payDate.Time.UTC(),
			Reference: payRef.String,
		}
	}
	return app, nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (application.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE id = $1
	`, id)

	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return application.Application{}, fmt.Errorf("application %s: %w", id, storage.ErrNotFound)
	}
	return app, err
}

func (s *Store) listApplications(ctx context.Context, where string, args ...any) ([]application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY submitted_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []application.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}

func (s *Store) ListApplications(ctx context.Context) ([]application.Application, error) {
	return s.listApplications(ctx, "")
}

func (s *Store) ListApplicationsByScholarship(ctx context.Context, scholarshipID string) ([]application.Application, error) {
	return s.listApplications(ctx, "scholarship_id = $1", scholarshipID)
}

func (s *Store) ListApplicationsByUser(ctx context.Context, userID string) ([]application.Application, error) {
	return s.listApplications(ctx, "user_id = $1", userID)
}

func (s *Store) ListApplicationsByStatus(ctx context.Context, statuses ...application.Status) ([]application.Application, error) {
	labels := make([]string, 0, len(statuses))
	for _, status := range statuses {
		labels = append(labels, string(status))
	}
	return s.listApplications(ctx, "status = ANY($1)", pq.Array(labels))
}

func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM applications WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("application %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, status application.Status, remarks []string) (application.Application, error) {
	remarksJSON, err := json.Marshal(remarks)
	if err != nil {
		return application.Application{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, remarks = $3, updated_at = $4
		WHERE id = $1
	`, id, string(status), remarksJSON, time.Now().UTC())
	if err != nil {
		return application.Application{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return application.Application{}, fmt.Errorf("application %s: %w", id, storage.ErrNotFound)
	}
	return s.GetApplication(ctx, id)
}

func (s *Store) SetVerification(ctx context.Context, id string, verification application.Verification) (application.Application, error) {
	verificationJSON, err := json.Marshal(verification)
	if err != nil {
		return application.Application{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET verification = $2, updated_at = $3
		WHERE id = $1
	`, id, verificationJSON, time.Now().UTC())
	if err != nil {
		return application.Application{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return application.Application{}, fmt.Errorf("application %s: %w", id, storage.ErrNotFound)
	}
	return s.GetApplication(ctx, id)
}

// SettleApplication commits the payment block with compare-and-set semantics:
// the row must still be in the `from` status with no reference issued, and the
// reference column carries a unique index, so a concurrent settlement loses
// with ErrConflict instead of double-paying.
func (s *Store) SettleApplication(ctx context.Context, id string, from application.Status, pay application.Payment) (application.Application, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, payment_status = $3, payment_date = $4, payment_reference = $5, updated_at = $6
		WHERE id = $1 AND status = $7 AND payment_reference IS NULL
	`, id, string(application.StatusAwarded), pay.Status, pay.Date, pay.Reference, time.Now().UTC(), string(from))
	if err != nil {
		if isUniqueViolation(err) {
			return application.Application{}, fmt.Errorf("payment reference %s already issued: %w", pay.Reference, storage.ErrConflict)
		}
		return application.Application{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetApplication(ctx, id); err != nil {
			return application.Application{}, err
		}
		return application.Application{}, fmt.Errorf("application %s not payable: %w", id, storage.ErrPrecondition)
	}
	return s.GetApplication(ctx, id)
}

func (s *Store) NextPaymentSequence(ctx context.Context, year int) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO payment_sequences (year, value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET value = payment_sequences.value + 1
		RETURNING value
	`, year)

	var value int
	if err := row.Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

// --- DocumentStore ----------------------------------------------------------

func (s *Store) SaveDocument(ctx context.Context, name, contentType string, content []byte) (string, error) {
	fileID := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (file_id, name, content_type, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, fileID, name, contentType, content, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return fileID, nil
}

func (s *Store) GetDocument(ctx context.Context, fileID string) (storage.StoredDocument, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT file_id, name, content_type, content
		FROM documents
		WHERE file_id = $1
	`, fileID)

	var doc storage.StoredDocument
	if err := row.Scan(&doc.FileID, &doc.Name, &doc.ContentType, &doc.Content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.StoredDocument{}, fmt.Errorf("document %s: %w", fileID, storage.ErrNotFound)
		}
		return storage.StoredDocument{}, err
	}
	return doc, nil
}

func (s *Store) DeleteDocument(ctx context.Context, fileID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE file_id = $1
	`, fileID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("document %s: %w", fileID, storage.ErrNotFound)
	}
	return nil
}
