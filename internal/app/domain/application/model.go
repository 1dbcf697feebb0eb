package application

import "time"

// Document is one uploaded attachment, keyed by the required-document name it
// satisfies. FileID is an opaque reference into document storage.
type Document struct {
	Name   string `json:"name"`
	FileID string `json:"file_id"`
}

// Verification is the reviewer's advisory per-document assessment. It never
// drives a transition on its own; an administrator reads it and then rejects
// or accepts explicitly.
type Verification struct {
	DocumentsValid     bool      `json:"documents_valid"`
	ReasonForRejection []string  `json:"reason_for_rejection,omitempty"`
	RecordedAt         time.Time `json:"recorded_at"`
}

// Payment records a completed settlement. Present if and only if settlement
// has run successfully; once written it is never cleared.
type Payment struct {
	Status    string    `json:"payment_status"`
	Date      time.Time `json:"payment_date"`
	Reference string    `json:"payment_reference"`
}

// PaymentCompleted is the only payment status the workflow writes.
const PaymentCompleted = "completed"

// Application is one student's submission against one scholarship. Created by
// intake, mutated only through the transition engine and settlement, and read
// by the projections.
type Application struct {
	ID            string `json:"id"`
	ScholarshipID string `json:"scholarship_id"`
	UserID        string `json:"user_id"`

	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	DOB          string `json:"dob"`
	FatherName   string `json:"father_name"`
	MotherName   string `json:"mother_name"`
	AnnualIncome float64 `json:"annual_income"`

	BankAccountNumber string `json:"bank_account_number"`
	IFSCCode          string `json:"ifsc_code"`
	BankName          string `json:"bank_name"`

	Status      Status     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Documents   []Document `json:"documents"`

	Verification *Verification `json:"verification_result,omitempty"`
	Remarks      []string      `json:"remarks,omitempty"`
	Payment      *Payment      `json:"payment_info,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Settled reports whether a payment has been issued for this application.
func (a Application) Settled() bool {
	return a.Payment != nil && a.Payment.Status == PaymentCompleted
}
