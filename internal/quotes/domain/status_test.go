package domain

import (
	"testing"
	"time"
)

func TestCanTransitionAllowedPairs(t *testing.T) {
	allowed := [][2]string{
		{StatusDraft, StatusSent},
		{StatusDraft, StatusDeclined},
		{StatusSent, StatusAccepted},
		{StatusSent, StatusDeclined},
		{StatusSent, StatusExpired},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Errorf("CanTransition(%q, %q) = false, want true", pair[0], pair[1])
		}
	}
}

func TestCanTransitionRejectsEverythingElse(t *testing.T) {
	statuses := []string{StatusDraft, StatusSent, StatusAccepted, StatusDeclined, StatusExpired}
	allowed := map[[2]string]bool{
		{StatusDraft, StatusSent}:     true,
		{StatusDraft, StatusDeclined}: true,
		{StatusSent, StatusAccepted}:  true,
		{StatusSent, StatusDeclined}:  true,
		{StatusSent, StatusExpired}:   true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]string{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	if CanTransition("bogus", StatusSent) {
		t.Error("unknown from-status must not transition")
	}
	if CanTransition(StatusDraft, "bogus") {
		t.Error("unknown to-status must not transition")
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []string{StatusAccepted, StatusDeclined, StatusExpired} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = false, want true", s)
		}
	}
	for _, s := range []string{StatusDraft, StatusSent} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = true, want false", s)
		}
	}
}

func TestStampStatusSetsMatchingTimestamp(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	q := &Quote{Status: StatusSent}
	q.StampStatus(StatusAccepted, now)

	if q.Status != StatusAccepted {
		t.Fatalf("status = %q", q.Status)
	}
	if q.AcceptedAt == nil || !q.AcceptedAt.Equal(now) {
		t.Error("accepted_at not stamped")
	}
	if q.SentAt != nil || q.DeclinedAt != nil || q.ExpiredAt != nil {
		t.Error("unrelated timestamps must stay nil")
	}
	if !q.UpdatedAt.Equal(now) {
		t.Error("updated_at not stamped")
	}
}

func TestIsExpired(t *testing.T) {
	validUntil := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)
	q := &Quote{ValidUntil: validUntil}

	if q.IsExpired(validUntil.Add(-time.Hour)) {
		t.Error("quote inside its window reported expired")
	}
	if !q.IsExpired(validUntil.Add(time.Second)) {
		t.Error("quote past valid_until not reported expired")
	}
}
