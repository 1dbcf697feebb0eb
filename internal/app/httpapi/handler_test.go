package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	app "github.com/scholarbridge/awards/internal/app"
	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/domain/scholarship"
	"github.com/scholarbridge/awards/internal/app/storage/memory"
)

func newTestHandler(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.New()
	application, err := app.New(app.Stores{
		Scholarships: store,
		Applications: store,
		Documents:    store,
	}, nil)
	require.NoError(t, err)
	return NewHandler(application), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var (
	adminHeaders   = map[string]string{"X-User-ID": "admin-1", "X-User-Role": "admin"}
	studentHeaders = map[string]string{"X-User-ID": "student-1", "X-User-Role": "student"}
)

func createScholarship(t *testing.T, h http.Handler) scholarship.Scholarship {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/scholarships", map[string]interface{}{
		"title":              "National Merit Scholarship",
		"provider":           "Ministry of Education",
		"amount":             "50000",
		"deadline":           "2026-03-31",
		"category":           "Merit-based",
		"required_documents": []string{"Transcript", "ID Proof"},
	}, adminHeaders)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sch scholarship.Scholarship
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sch))
	require.NotEmpty(t, sch.ID)
	return sch
}

func submitApplication(t *testing.T, h http.Handler, scholarshipID string) application.Application {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"scholarship_id":      scholarshipID,
		"student_name":        "Asha Verma",
		"student_email":       "asha@example.com",
		"age":                 "19",
		"gender":              "female",
		"dob":                 "2006-07-14",
		"father_name":         "Ravi Verma",
		"mother_name":         "Meena Verma",
		"annual_income":       "240000",
		"bank_account_number": "123456789012",
		"ifsc_code":           "SBIN0001234",
		"bank_name":           "State Bank",
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, doc := range []string{"Transcript", "ID Proof"} {
		part, err := mw.CreateFormFile(doc, doc+".pdf")
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 " + doc))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/applications", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range studentHeaders {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created application.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	return created
}

func TestScholarshipCRUD(t *testing.T) {
	h, _ := newTestHandler(t)
	sch := createScholarship(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/scholarships", nil, studentHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []scholarship.Scholarship
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = doJSON(t, h, http.MethodGet, "/api/scholarships/"+sch.ID, nil, studentHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/scholarships", map[string]interface{}{
		"title": "x", "provider": "y", "category": "Merit-based",
	}, studentHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code, "student create must be rejected")

	rec = doJSON(t, h, http.MethodDelete, "/api/scholarships/"+sch.ID, nil, adminHeaders)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/scholarships/"+sch.ID, nil, studentHeaders)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplicationLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)
	sch := createScholarship(t, h)
	created := submitApplication(t, h, sch.ID)
	require.Equal(t, application.StatusSubmitted, created.Status)
	require.Len(t, created.Documents, 2)

	// Admin review queue; students are kept out.
	rec := doJSON(t, h, http.MethodGet, "/api/applications", nil, studentHeaders)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/api/applications", nil, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	// Move through review to acceptance, using the legacy label on the way.
	rec = doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{"status": "Under Review"}, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{"status": "approved"}, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated application.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, application.StatusAccepted, updated.Status)

	// Settlement via payment_info; the client reference is ignored.
	rec = doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{
			"status": "approved",
			"payment_info": map[string]string{
				"payment_status":    "completed",
				"payment_reference": "CLIENT-REF",
			},
		}, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var settled application.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settled))
	require.Equal(t, application.StatusAwarded, settled.Status)
	require.NotNil(t, settled.Payment)
	require.Equal(t, fmt.Sprintf("PAY-%d-001", time.Now().UTC().Year()), settled.Payment.Reference)

	// Settlement is not idempotent.
	rec = doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{
			"status":       "approved",
			"payment_info": map[string]string{"payment_status": "completed"},
		}, adminHeaders)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestTransitionErrors(t *testing.T) {
	h, _ := newTestHandler(t)
	sch := createScholarship(t, h)
	created := submitApplication(t, h, sch.ID)

	// Students cannot transition.
	rec := doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{"status": "Under Review"}, studentHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown labels are rejected at the boundary.
	rec = doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{"status": "completed"}, adminHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Skipping review is off the whitelist.
	rec = doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{"status": "Accepted"}, adminHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Awarded is not a direct target.
	rec = doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{"status": "Awarded"}, adminHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/applications/missing",
		map[string]interface{}{"status": "Under Review"}, adminHeaders)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRejectionRemarks(t *testing.T) {
	h, _ := newTestHandler(t)
	sch := createScholarship(t, h)
	created := submitApplication(t, h, sch.ID)

	rec := doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{"status": "Under Review"}, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{"status": "Rejected"}, adminHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code, "rejection without remarks")

	rec = doJSON(t, h, http.MethodPut, "/api/applications/"+created.ID,
		map[string]interface{}{"status": "Rejected", "remarks": []string{"income proof expired"}}, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rejected application.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejected))
	require.Equal(t, application.StatusRejected, rejected.Status)
	require.Equal(t, []string{"income proof expired"}, rejected.Remarks)
}

func TestVerificationEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	sch := createScholarship(t, h)
	created := submitApplication(t, h, sch.ID)

	rec := doJSON(t, h, http.MethodPost, "/api/applications/"+created.ID+"/verification",
		map[string]interface{}{"documents_valid": false, "reason_for_rejection": []string{"transcript illegible"}}, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated application.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.Verification)
	require.False(t, updated.Verification.DocumentsValid)
	require.Equal(t, application.StatusSubmitted, updated.Status, "verification must not change status")

	rec = doJSON(t, h, http.MethodPost, "/api/applications/"+created.ID+"/verification",
		map[string]interface{}{"documents_valid": true}, studentHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserViews(t *testing.T) {
	h, _ := newTestHandler(t)
	sch := createScholarship(t, h)
	submitApplication(t, h, sch.ID)

	rec := doJSON(t, h, http.MethodGet, "/api/applications/user/student-1", nil, studentHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	require.Equal(t, sch.Title, views[0]["scholarship_title"])

	// Another student cannot read someone else's applications.
	other := map[string]string{"X-User-ID": "student-2", "X-User-Role": "student"}
	rec = doJSON(t, h, http.MethodGet, "/api/applications/user/student-1", nil, other)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/applications/user/student-1/scholarship/"+sch.ID, nil, studentHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	var applied map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &applied))
	require.True(t, applied["hasApplied"])

	rec = doJSON(t, h, http.MethodGet, "/api/applications/user/student-1/scholarship/other", nil, studentHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &applied))
	require.False(t, applied["hasApplied"])

	rec = doJSON(t, h, http.MethodGet, "/api/applications/scholarship/"+sch.ID, nil, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/api/applications/scholarship/"+sch.ID, nil, studentHeaders)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWithdraw(t *testing.T) {
	h, store := newTestHandler(t)
	sch := createScholarship(t, h)
	created := submitApplication(t, h, sch.ID)

	// Only the owner may withdraw.
	other := map[string]string{"X-User-ID": "student-2", "X-User-Role": "student"}
	rec := doJSON(t, h, http.MethodDelete, "/api/applications/"+created.ID, nil, other)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/applications/"+created.ID, nil, studentHeaders)
	require.Equal(t, http.StatusNoContent, rec.Code)

	apps, err := store.ListApplications(context.Background())
	require.NoError(t, err)
	require.Empty(t, apps)
}

func TestDocumentFetch(t *testing.T) {
	h, _ := newTestHandler(t)
	sch := createScholarship(t, h)
	created := submitApplication(t, h, sch.ID)
	require.NotEmpty(t, created.Documents)

	doc := created.Documents[0]
	rec := doJSON(t, h, http.MethodGet, "/api/documents/"+doc.FileID, nil, studentHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), doc.Name))
	require.Contains(t, rec.Header().Get("Content-Disposition"), doc.Name)

	rec = doJSON(t, h, http.MethodGet, "/api/documents/missing", nil, studentHeaders)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditTrail(t *testing.T) {
	h, _ := newTestHandler(t)
	sch := createScholarship(t, h)
	submitApplication(t, h, sch.ID)

	rec := doJSON(t, h, http.MethodGet, "/api/audit", nil, studentHeaders)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/audit", nil, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []auditEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2, "one entry per mutating request")
	require.Equal(t, http.MethodPost, entries[0].Method)
	require.Equal(t, "/api/scholarships", entries[0].Path)
	require.Equal(t, "admin-1", entries[0].User)
	require.Equal(t, "/api/applications", entries[1].Path)
	require.Equal(t, "student-1", entries[1].User)
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}
