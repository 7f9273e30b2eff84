// Package condition models recoverable planning problems as values. A
// condition rides inside a normal turn response; it is never a Go error.
// Hard failures are reserved for infrastructure (see errno).
package condition

type Code string

const (
	ExtractionAmbiguous     Code = "extraction_ambiguous"
	PendingClarification    Code = "pending_clarification"
	NoFeasibleAccommodation Code = "no_feasible_accommodation"
	DurationInsufficient    Code = "duration_insufficient"
	SingleRouteRisk         Code = "single_route_risk"
	ProviderTimeout         Code = "provider_timeout"
	ProviderError           Code = "provider_error"
)

type Condition struct {
	Code       Code           `json:"code"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

func New(code Code, message string) Condition {
	return Condition{Code: code, Message: message}
}

func (c Condition) WithSuggestion(s string) Condition {
	c.Suggestion = s
	return c
}

func (c Condition) WithMeta(key string, value any) Condition {
	if c.Meta == nil {
		c.Meta = make(map[string]any)
	}
	c.Meta[key] = value
	return c
}
