package projection

import (
	"context"
	"testing"

	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/domain/scholarship"
	"github.com/scholarbridge/awards/internal/app/storage/memory"
)

func seed(t *testing.T, store *memory.Store) (scholarship.Scholarship, application.Application) {
	t.Helper()
	sch, err := store.CreateScholarship(context.Background(), scholarship.Scholarship{
		Title:    "National Merit Scholarship",
		Provider: "Ministry of Education",
		Amount:   "50000",
		Deadline: "2026-03-31",
		Category: scholarship.CategoryMeritBased,
	})
	if err != nil {
		t.Fatalf("seed scholarship: %v", err)
	}
	app, err := store.CreateApplication(context.Background(), application.Application{
		ScholarshipID: sch.ID,
		UserID:        "student-1",
		Status:        application.StatusSubmitted,
	})
	if err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return sch, app
}

func TestByUserJoinsScholarship(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	sch, _ := seed(t, store)

	views, err := svc.ByUser(context.Background(), "student-1")
	if err != nil {
		t.Fatalf("by user: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
	view := views[0]
	if view.ScholarshipTitle != sch.Title {
		t.Fatalf("title = %q, want %q", view.ScholarshipTitle, sch.Title)
	}
	if view.ScholarshipProvider != sch.Provider || view.ScholarshipAmount != sch.Amount || view.ScholarshipDeadline != sch.Deadline {
		t.Fatalf("joined fields = %+v", view)
	}
}

func TestByUserPlaceholdersForDeletedScholarship(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	sch, _ := seed(t, store)

	if err := store.DeleteScholarship(context.Background(), sch.ID); err != nil {
		t.Fatalf("delete scholarship: %v", err)
	}

	views, err := svc.ByUser(context.Background(), "student-1")
	if err != nil {
		t.Fatalf("by user: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
	view := views[0]
	if view.ScholarshipTitle != UnknownScholarshipTitle {
		t.Fatalf("title = %q, want %q", view.ScholarshipTitle, UnknownScholarshipTitle)
	}
	if view.ScholarshipProvider != UnknownDisplayValue || view.ScholarshipAmount != UnknownDisplayValue || view.ScholarshipDeadline != UnknownDisplayValue {
		t.Fatalf("placeholders missing: %+v", view)
	}
}

func TestApprovedView(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)

	statuses := []application.Status{
		application.StatusSubmitted,
		application.StatusUnderReview,
		application.StatusAccepted,
		application.StatusRejected,
		application.StatusAwarded,
	}
	for _, status := range statuses {
		if _, err := store.CreateApplication(context.Background(), application.Application{
			UserID: "student-1",
			Status: status,
		}); err != nil {
			t.Fatalf("seed %s: %v", status, err)
		}
	}

	approved, err := svc.Approved(context.Background())
	if err != nil {
		t.Fatalf("approved: %v", err)
	}
	if len(approved) != 2 {
		t.Fatalf("approved view has %d entries, want 2", len(approved))
	}
	for _, app := range approved {
		if !app.Status.Approved() {
			t.Fatalf("status %s leaked into approved view", app.Status)
		}
	}
}

func TestHasApplied(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	sch, _ := seed(t, store)

	applied, err := svc.HasApplied(context.Background(), "student-1", sch.ID)
	if err != nil {
		t.Fatalf("has applied: %v", err)
	}
	if !applied {
		t.Fatal("existing application not detected")
	}

	applied, err = svc.HasApplied(context.Background(), "student-2", sch.ID)
	if err != nil {
		t.Fatalf("has applied: %v", err)
	}
	if applied {
		t.Fatal("application reported for a different user")
	}

	applied, err = svc.HasApplied(context.Background(), "student-1", "other")
	if err != nil {
		t.Fatalf("has applied: %v", err)
	}
	if applied {
		t.Fatal("application reported for a different scholarship")
	}
}

func TestAllAndByScholarship(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	sch, _ := seed(t, store)

	if _, err := store.CreateApplication(context.Background(), application.Application{
		ScholarshipID: "other",
		UserID:        "student-2",
		Status:        application.StatusSubmitted,
	}); err != nil {
		t.Fatalf("seed second application: %v", err)
	}

	all, err := svc.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d, want 2", len(all))
	}

	scoped, err := svc.ByScholarship(context.Background(), sch.ID)
	if err != nil {
		t.Fatalf("by scholarship: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ScholarshipID != sch.ID {
		t.Fatalf("by scholarship = %+v", scoped)
	}
}
