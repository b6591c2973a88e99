// Package domain defines the typed, validated organization configuration
// consumed by pricing, weather, DM and scheduling behavior, together with the
// deep-merge and validation rules used when resolving layered overrides.
package domain

import "github.com/google/uuid"

// Namespace names. Each namespace is validated independently: a bad override
// reverts only that namespace to its defaults, never the whole snapshot.
const (
	NamespacePricing    = "pricing"
	NamespaceWeather    = "weather"
	NamespaceDM         = "dm"
	NamespaceScheduling = "scheduling"
)

// Namespaces lists all valid namespace names.
var Namespaces = []string{NamespacePricing, NamespaceWeather, NamespaceDM, NamespaceScheduling}

// PricingSettings configures quote computation defaults.
type PricingSettings struct {
	MinimumJobPrice     float64            `json:"minimum_job_price" validate:"min=50,max=1000"`
	TaxRatePercent      float64            `json:"tax_rate_percent" validate:"min=0,max=30"`
	QuoteValidityDays   int                `json:"quote_validity_days" validate:"min=1,max=90"`
	Currency            string             `json:"currency" validate:"len=3"`
	BaseRates           map[string]float64 `json:"base_rates" validate:"dive,gt=0"`
	SeasonalMultipliers map[string]float64 `json:"seasonal_multipliers"`
}

// WeatherSettings configures weather-aware job handling.
type WeatherSettings struct {
	RainThresholdInches   float64 `json:"rain_threshold_inches" validate:"min=0,max=5"`
	WindSpeedLimitMph     float64 `json:"wind_speed_limit_mph" validate:"min=0,max=100"`
	MinTemperatureF       float64 `json:"min_temperature_f" validate:"min=-20,max=60"`
	AutoRescheduleEnabled bool    `json:"auto_reschedule_enabled"`
	ForecastLookaheadDays int     `json:"forecast_lookahead_days" validate:"min=1,max=14"`
}

// DMSettings configures direct-message automation.
type DMSettings struct {
	AutoResponseEnabled     bool     `json:"auto_response_enabled"`
	ResponseDelaySeconds    int      `json:"response_delay_seconds" validate:"min=0,max=3600"`
	QuoteRequestKeywords    []string `json:"quote_request_keywords" validate:"dive,min=1"`
	MaxAutoRepliesPerThread int      `json:"max_auto_replies_per_thread" validate:"min=1,max=20"`
	BusinessHoursOnly       bool     `json:"business_hours_only"`
}

// SchedulingSettings configures job scheduling windows.
type SchedulingSettings struct {
	WorkingDays      []string `json:"working_days" validate:"min=1,dive,weekday"`
	DayStart         string   `json:"day_start" validate:"hhmm"`
	DayEnd           string   `json:"day_end" validate:"hhmm"`
	JobBufferMinutes int      `json:"job_buffer_minutes" validate:"min=0,max=240"`
	MaxJobsPerDay    int      `json:"max_jobs_per_day" validate:"min=1,max=50"`
	AllowWeekendRush bool     `json:"allow_weekend_rush"`
}

// Settings is a fully resolved, validated snapshot of all four namespaces.
type Settings struct {
	Pricing    PricingSettings    `json:"pricing"`
	Weather    WeatherSettings    `json:"weather"`
	DM         DMSettings         `json:"dm"`
	Scheduling SchedulingSettings `json:"scheduling"`
}

// Ref identifies whose settings to resolve. OrganizationID is required; the
// optional fields select increasingly specific override layers.
type Ref struct {
	OrganizationID uuid.UUID
	TeamID         *uuid.UUID
	IntegrationID  *uuid.UUID
	UserID         *uuid.UUID
}

// LegacyUserRecord carries the handful of fields still sourced from the old
// flat per-user settings row. Only the dm and scheduling namespaces have a
// legacy user-level source; pricing and weather do not.
type LegacyUserRecord struct {
	BusinessHoursStart  *string
	BusinessHoursEnd    *string
	WorkingDays         []string
	AutoResponseEnabled *bool
}

// seasons that SeasonalMultipliers must cover.
var seasons = []string{"spring", "summer", "fall", "winter"}
