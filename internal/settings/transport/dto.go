// Package transport defines HTTP request and response shapes for settings.
package transport

// UpdateOverridesRequest replaces an override layer's stored document.
// Top-level keys are namespace names; values are partial documents that are
// deep-merged over the less specific layers at resolution time.
type UpdateOverridesRequest struct {
	Overrides map[string]any `json:"overrides" validate:"required"`
}

// OverridesResponse returns a stored override document.
type OverridesResponse struct {
	Overrides map[string]any `json:"overrides"`
}
