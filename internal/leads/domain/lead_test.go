package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestStatusTransitionsAreForwardOnly(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusNew, StatusContacted, true},
		{StatusNew, StatusQualified, true},
		{StatusNew, StatusClosed, true},
		{StatusContacted, StatusQualified, true},
		{StatusContacted, StatusClosed, true},
		{StatusQualified, StatusClosed, true},

		{StatusContacted, StatusNew, false},
		{StatusQualified, StatusNew, false},
		{StatusQualified, StatusContacted, false},
		{StatusClosed, StatusNew, false},
		{StatusClosed, StatusContacted, false},
		{StatusClosed, StatusQualified, false},
		{StatusNew, StatusNew, false},
		{StatusClosed, StatusClosed, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestValidStatusRejectsUnknown(t *testing.T) {
	for _, s := range []string{StatusNew, StatusContacted, StatusQualified, StatusClosed} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false", s)
		}
	}
	if ValidStatus("archived") {
		t.Error("ValidStatus accepted unknown status")
	}
}

func TestMeasuredSurfacesSkipsMentionsWithoutArea(t *testing.T) {
	area := 500.0
	zero := 0.0
	lead := &Lead{ExtractedSurfaces: map[string]SurfaceMention{
		"driveway": {Mentioned: true, Area: &area},
		"deck":     {Mentioned: true},
		"roof":     {Mentioned: true, Area: &zero},
	}}

	measured := lead.MeasuredSurfaces()
	if len(measured) != 1 {
		t.Fatalf("got %d measured surfaces, want 1", len(measured))
	}
	if measured["driveway"] != 500.0 {
		t.Errorf("driveway area = %v, want 500", measured["driveway"])
	}
}

func TestPlaceholderEmail(t *testing.T) {
	id := uuid.New()

	lead := &Lead{ID: id, ContactName: "John Smith"}
	got := lead.PlaceholderEmail()
	want := "john.smith@lead-" + id.String() + ".temp"
	if got != want {
		t.Errorf("PlaceholderEmail() = %q, want %q", got, want)
	}

	anon := &Lead{ID: id}
	if !strings.HasPrefix(anon.PlaceholderEmail(), "customer@lead-") {
		t.Errorf("anonymous placeholder = %q, want customer@lead-... form", anon.PlaceholderEmail())
	}
}

func TestPriorityScoreOrdersLeadsByActionability(t *testing.T) {
	area := 500.0

	hot := &Lead{
		PricingIntent:     IntentQuoteRequest,
		ContactName:       "Jane",
		ContactEmail:      "jane@example.com",
		ContactPhone:      "+15551234567",
		RequestedServices: []string{"pressure_wash"},
		ExtractedSurfaces: map[string]SurfaceMention{
			"driveway": {Mentioned: true, Area: &area},
		},
	}
	cold := &Lead{PricingIntent: IntentOther}

	hotScore := PriorityScore(hot)
	coldScore := PriorityScore(cold)
	if hotScore <= coldScore {
		t.Errorf("hot lead scored %d, cold %d; want hot > cold", hotScore, coldScore)
	}
	if coldScore >= baseScore {
		t.Errorf("cold lead scored %d, want below base %d", coldScore, baseScore)
	}
}

func TestPriorityScoreStaysInRange(t *testing.T) {
	area := 10000.0
	maxed := &Lead{
		PricingIntent:     IntentQuoteRequest,
		ContactName:       "Max",
		ContactEmail:      "max@example.com",
		ContactPhone:      "+15551230000",
		RequestedServices: []string{"pressure_wash", "roof_wash", "deck_cleaning"},
		ExtractedSurfaces: map[string]SurfaceMention{
			"driveway": {Mentioned: true, Area: &area},
			"deck":     {Mentioned: true, Area: &area},
			"roof":     {Mentioned: true, Area: &area},
			"siding":   {Mentioned: true, Area: &area},
		},
	}
	if got := PriorityScore(maxed); got > 100 {
		t.Errorf("score %d exceeds 100", got)
	}
	if got := PriorityScore(&Lead{}); got < 0 {
		t.Errorf("score %d below 0", got)
	}
}
