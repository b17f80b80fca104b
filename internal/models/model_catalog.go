package models

import "time"

// ModelProvider identifies which upstream API serves a model. The set is
// closed; unknown providers are rejected at the configuration boundary.
type ModelProvider string

const (
	ModelProviderOpenAI    ModelProvider = "openai"
	ModelProviderAnthropic ModelProvider = "anthropic"
)

// Valid reports whether the provider is one of the supported values
func (p ModelProvider) Valid() bool {
	switch p {
	case ModelProviderOpenAI, ModelProviderAnthropic:
		return true
	default:
		return false
	}
}

// ModelDescriptor describes one entry in the model catalog. The catalog
// is reference data: end users read it, administrators manage it with
// the configure CLI.
type ModelDescriptor struct {
	ModelName        string        `json:"model_name"`
	ModelDescription string        `json:"model_description"`
	Provider         ModelProvider `json:"provider"`
	OrderNumber      int           `json:"order_number"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
