package domain

const (
	// Leads start at 50 and factors add to or subtract from this.
	baseScore = 50

	// Bounded contributions per factor category keep the score in 0-100.
	maxIntentContribution  = 20
	maxSurfaceContribution = 15
	maxContactContribution = 10
	maxServiceContribution = 5
)

// PriorityScore grades how actionable a lead is. Buyers with a clear quote
// request, measured surfaces and reachable contact details score highest;
// a bare mention with no intent scores below the base.
func PriorityScore(l *Lead) int {
	score := baseScore

	switch l.PricingIntent {
	case IntentQuoteRequest:
		score += maxIntentContribution
	case IntentPriceInquiry:
		score += 15
	case IntentBooking:
		score += 10
	case IntentGeneralQuestion:
		score += 5
	default:
		score -= 10
	}

	surfaces := 0
	for _, s := range l.ExtractedSurfaces {
		if s.Area != nil && *s.Area > 0 {
			surfaces += 5
		} else if s.Mentioned {
			surfaces += 2
		}
	}
	if surfaces > maxSurfaceContribution {
		surfaces = maxSurfaceContribution
	}
	score += surfaces

	contact := 0
	if l.ContactEmail != "" {
		contact += 4
	}
	if l.ContactPhone != "" {
		contact += 4
	}
	if l.ContactName != "" {
		contact += 2
	}
	if contact > maxContactContribution {
		contact = maxContactContribution
	}
	score += contact

	if len(l.RequestedServices) > 0 {
		score += maxServiceContribution
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
