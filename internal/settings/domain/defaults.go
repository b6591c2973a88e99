package domain

// DefaultSettings returns the compiled-in plan defaults. Every resolution
// starts from this snapshot; it is also the fallback when a namespace fails
// validation or the data layer is unavailable.
func DefaultSettings() Settings {
	return Settings{
		Pricing:    DefaultPricing(),
		Weather:    DefaultWeather(),
		DM:         DefaultDM(),
		Scheduling: DefaultScheduling(),
	}
}

// DefaultPricing returns the compiled-in pricing namespace defaults.
func DefaultPricing() PricingSettings {
	return PricingSettings{
		MinimumJobPrice:   150.0,
		TaxRatePercent:    8.25,
		QuoteValidityDays: 30,
		Currency:          "USD",
		BaseRates: map[string]float64{
			"concrete": 0.15,
			"brick":    0.18,
			"wood":     0.22,
			"vinyl":    0.20,
			"roof":     0.30,
		},
		SeasonalMultipliers: map[string]float64{
			"spring": 1.1,
			"summer": 1.0,
			"fall":   1.05,
			"winter": 0.9,
		},
	}
}

// DefaultWeather returns the compiled-in weather namespace defaults.
func DefaultWeather() WeatherSettings {
	return WeatherSettings{
		RainThresholdInches:   0.25,
		WindSpeedLimitMph:     25,
		MinTemperatureF:       40,
		AutoRescheduleEnabled: true,
		ForecastLookaheadDays: 3,
	}
}

// DefaultDM returns the compiled-in DM namespace defaults.
func DefaultDM() DMSettings {
	return DMSettings{
		AutoResponseEnabled:     true,
		ResponseDelaySeconds:    60,
		QuoteRequestKeywords:    []string{"quote", "price", "cost", "estimate", "how much"},
		MaxAutoRepliesPerThread: 3,
		BusinessHoursOnly:       true,
	}
}

// DefaultScheduling returns the compiled-in scheduling namespace defaults.
func DefaultScheduling() SchedulingSettings {
	return SchedulingSettings{
		WorkingDays:      []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		DayStart:         "08:00",
		DayEnd:           "17:00",
		JobBufferMinutes: 30,
		MaxJobsPerDay:    8,
		AllowWeekendRush: false,
	}
}
