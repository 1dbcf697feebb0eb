package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	app "github.com/scholarbridge/awards/internal/app"
	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/domain/identity"
	"github.com/scholarbridge/awards/internal/app/domain/scholarship"
	"github.com/scholarbridge/awards/internal/app/services/intake"
	"github.com/scholarbridge/awards/internal/app/storage"
)

const maxUploadBytes = 32 << 20

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	audit *auditLog
}

// NewHandler returns a mux exposing the workflow REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application, audit: newAuditLog(200, nil)}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scholarships", h.scholarships)
	mux.HandleFunc("/api/scholarships/", h.scholarshipResource)
	mux.HandleFunc("/api/applications", h.applications)
	mux.HandleFunc("/api/applications/", h.applicationResources)
	mux.HandleFunc("/api/documents/", h.document)
	mux.HandleFunc("/api/audit", h.auditEntries)
	mux.HandleFunc("/healthz", h.health)
	return h.withAudit(mux)
}

// actorFrom resolves the caller identity forwarded by the auth proxy.
func actorFrom(r *http.Request) identity.Actor {
	role := identity.RoleStudent
	if strings.EqualFold(strings.TrimSpace(r.Header.Get("X-User-Role")), string(identity.RoleAdmin)) {
		role = identity.RoleAdmin
	}
	return identity.Actor{
		ID:   strings.TrimSpace(r.Header.Get("X-User-ID")),
		Role: role,
	}
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- scholarships -----------------------------------------------------------

type scholarshipPayload struct {
	Title             string   `json:"title"`
	Provider          string   `json:"provider"`
	Amount            string   `json:"amount"`
	Deadline          string   `json:"deadline"`
	Category          string   `json:"category"`
	Description       string   `json:"description"`
	AgeRange          string   `json:"age_range"`
	IncomeRange       string   `json:"income_range"`
	RequiredDocuments []string `json:"required_documents"`
}

func (p scholarshipPayload) toDomain() scholarship.Scholarship {
	return scholarship.Scholarship{
		Title:             p.Title,
		Provider:          p.Provider,
		Amount:            p.Amount,
		Deadline:          p.Deadline,
		Category:          scholarship.Category(p.Category),
		Description:       p.Description,
		AgeRange:          p.AgeRange,
		IncomeRange:       p.IncomeRange,
		RequiredDocuments: p.RequiredDocuments,
	}
}

func (h *handler) scholarships(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := h.app.Catalog.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		var payload scholarshipPayload
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, fmt.Errorf("%v: %w", err, storage.ErrValidation))
			return
		}
		created, err := h.app.Catalog.Create(r.Context(), actorFrom(r), payload.toDomain())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) scholarshipResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/scholarships"), "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		sch, err := h.app.Catalog.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sch)

	case http.MethodPut:
		var payload scholarshipPayload
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, fmt.Errorf("%v: %w", err, storage.ErrValidation))
			return
		}
		updated, err := h.app.Catalog.Update(r.Context(), actorFrom(r), id, payload.toDomain())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := h.app.Catalog.Delete(r.Context(), actorFrom(r), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// --- applications -----------------------------------------------------------

func (h *handler) applications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !actorFrom(r).IsAdmin() {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		list, err := h.app.Projections.All(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		h.createApplication(w, r)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// createApplication accepts a multipart form: all application fields plus one
// file part per required document, field name equal to the document name.
func (h *handler) createApplication(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("invalid multipart form: %w", storage.ErrValidation))
		return
	}

	age, _ := strconv.Atoi(r.FormValue("age"))
	income, _ := strconv.ParseFloat(r.FormValue("annual_income"), 64)

	sub := intake.Submission{
		ScholarshipID:     r.FormValue("scholarship_id"),
		StudentName:       r.FormValue("student_name"),
		StudentEmail:      r.FormValue("student_email"),
		Age:               age,
		Gender:            r.FormValue("gender"),
		DOB:               r.FormValue("dob"),
		FatherName:        r.FormValue("father_name"),
		MotherName:        r.FormValue("mother_name"),
		AnnualIncome:      income,
		BankAccountNumber: r.FormValue("bank_account_number"),
		IFSCCode:          r.FormValue("ifsc_code"),
		BankName:          r.FormValue("bank_name"),
		Documents:         make(map[string]intake.FileUpload),
	}

	for field, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		file, err := headers[0].Open()
		if err != nil {
			writeError(w, fmt.Errorf("read document %q: %w", field, storage.ErrValidation))
			return
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			writeError(w, fmt.Errorf("read document %q: %w", field, storage.ErrValidation))
			return
		}
		sub.Documents[field] = intake.FileUpload{
			ContentType: headers[0].Header.Get("Content-Type"),
			Content:     content,
		}
	}

	created, err := h.app.Intake.Submit(r.Context(), actorFrom(r), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) applicationResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/applications"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch parts[0] {
	case "scholarship":
		if len(parts) != 2 || r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if !actorFrom(r).IsAdmin() {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		list, err := h.app.Projections.ByScholarship(r.Context(), parts[1])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case "user":
		h.userApplications(w, r, parts[1:])

	default:
		h.applicationByID(w, r, parts)
	}
}

func (h *handler) userApplications(w http.ResponseWriter, r *http.Request, rest []string) {
	if r.Method != http.MethodGet || len(rest) == 0 || rest[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	userID := rest[0]

	actor := actorFrom(r)
	if !actor.IsAdmin() && actor.ID != userID {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	switch len(rest) {
	case 1:
		views, err := h.app.Projections.ByUser(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)

	case 3:
		if rest[1] != "scholarship" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		applied, err := h.app.Projections.HasApplied(r.Context(), userID, rest[2])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"hasApplied": applied})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type statusUpdatePayload struct {
	Status      string   `json:"status"`
	Remarks     []string `json:"remarks"`
	PaymentInfo *struct {
		PaymentStatus    string `json:"payment_status"`
		PaymentDate      string `json:"payment_date"`
		PaymentReference string `json:"payment_reference"`
	} `json:"payment_info"`
}

func (h *handler) applicationByID(w http.ResponseWriter, r *http.Request, parts []string) {
	appID := parts[0]

	if len(parts) == 2 && parts[1] == "verification" {
		h.recordVerification(w, r, appID)
		return
	}
	if len(parts) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := h.app.Workflow.Get(r.Context(), appID)
		if err != nil {
			writeError(w, err)
			return
		}
		actor := actorFrom(r)
		if !actor.IsAdmin() && actor.ID != record.UserID {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, record)

	case http.MethodPut:
		var payload statusUpdatePayload
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, fmt.Errorf("%v: %w", err, storage.ErrValidation))
			return
		}

		status, err := application.ParseStatus(payload.Status)
		if err != nil {
			writeError(w, fmt.Errorf("%v: %w", err, storage.ErrValidation))
			return
		}

		// A payment_info block routes to settlement. The server allocates
		// its own reference; any client-supplied one is ignored.
		if payload.PaymentInfo != nil {
			if status != application.StatusAccepted && status != application.StatusAwarded {
				writeError(w, fmt.Errorf("payment_info requires an approved status: %w", storage.ErrValidation))
				return
			}
			settled, err := h.app.Settlement.Settle(r.Context(), actorFrom(r), appID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, settled)
			return
		}

		updated, err := h.app.Workflow.Transition(r.Context(), actorFrom(r), appID, status, payload.Remarks)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := h.app.Intake.Withdraw(r.Context(), actorFrom(r), appID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) recordVerification(w http.ResponseWriter, r *http.Request, appID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		DocumentsValid     bool     `json:"documents_valid"`
		ReasonForRejection []string `json:"reason_for_rejection"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, fmt.Errorf("%v: %w", err, storage.ErrValidation))
		return
	}

	updated, err := h.app.Workflow.RecordVerification(r.Context(), actorFrom(r), appID, payload.DocumentsValid, payload.ReasonForRejection)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// --- documents --------------------------------------------------------------

func (h *handler) document(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	fileID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/documents"), "/")
	if fileID == "" || strings.Contains(fileID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	doc, err := h.app.Documents.Fetch(r.Context(), fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}

// --- audit ------------------------------------------------------------------

func (h *handler) auditEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !actorFrom(r).IsAdmin() {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, h.audit.list())
}

// withAudit records every mutating request against the workflow.
func (h *handler) withAudit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		actor := actorFrom(r)
		h.audit.add(auditEntry{
			Time:   timeNow(),
			User:   actor.ID,
			Role:   string(actor.Role),
			Path:   r.URL.Path,
			Method: r.Method,
			Status: rec.status,
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// --- helpers ----------------------------------------------------------------

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrPrecondition), errors.Is(err, storage.ErrConflict):
		status = http.StatusConflict
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
