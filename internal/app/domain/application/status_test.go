package application

import "testing"

func TestParseStatusCanonical(t *testing.T) {
	for _, status := range Statuses {
		parsed, err := ParseStatus(string(status))
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", status, err)
		}
		if parsed != status {
			t.Fatalf("ParseStatus(%q) = %q", status, parsed)
		}
	}
}

func TestParseStatusLegacyAliases(t *testing.T) {
	cases := map[string]Status{
		"pending":  StatusSubmitted,
		"Pending":  StatusSubmitted,
		"approved": StatusAccepted,
		"APPROVED": StatusAccepted,
		"rejected": StatusRejected,
		" pending ": StatusSubmitted,
	}
	for raw, want := range cases {
		got, err := ParseStatus(raw)
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseStatusUnknown(t *testing.T) {
	for _, raw := range []string{"", "completed", "in progress", "awarded!"} {
		if _, err := ParseStatus(raw); err == nil {
			t.Fatalf("ParseStatus(%q) accepted an unknown label", raw)
		}
	}
}

func TestCanTransitionWhitelist(t *testing.T) {
	allowed := map[Status][]Status{
		StatusSubmitted:   {StatusUnderReview},
		StatusUnderReview: {StatusAccepted, StatusRejected},
		StatusAccepted:    {StatusAwarded, StatusRejected},
		StatusRejected:    nil,
		StatusAwarded:     nil,
	}

	for _, from := range Statuses {
		for _, to := range Statuses {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Fatalf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, status := range Statuses {
		want := status == StatusRejected || status == StatusAwarded
		if got := status.Terminal(); got != want {
			t.Fatalf("Terminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestApproved(t *testing.T) {
	for _, status := range Statuses {
		want := status == StatusAccepted || status == StatusAwarded
		if got := status.Approved(); got != want {
			t.Fatalf("Approved(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestSettled(t *testing.T) {
	var app Application
	if app.Settled() {
		t.Fatal("empty application reports settled")
	}
	app.Payment = &Payment{Status: PaymentCompleted, Reference: "PAY-2025-001"}
	if !app.Settled() {
		t.Fatal("application with completed payment reports unsettled")
	}
}
