package config

// DatabaseOverride is the optional "database" object of an analyze request.
type DatabaseOverride struct {
	URL    string `json:"url"`
	Schema string `json:"schema"`
}

// APIOverride is the optional "api" object of an analyze request. Present
// fields replace the configured value, even when empty.
type APIOverride struct {
	Provider         *string  `json:"provider,omitempty"`
	BaseURL          *string  `json:"base_url,omitempty"`
	APIKey           *string  `json:"api_key,omitempty"`
	DeploymentID     *string  `json:"deployment_id,omitempty"`
	APIVersion       *string  `json:"api_version,omitempty"`
	Model            *string  `json:"model,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	Timeout          *float64 `json:"timeout,omitempty"`
	MaxRetries       *int     `json:"max_retries,omitempty"`
	PromptTemplate   *string  `json:"prompt_template,omitempty"`
}

// Apply returns a copy of a with the override's present fields applied.
func (a APIConfig) Apply(o *APIOverride) APIConfig {
	if o == nil {
		return a
	}
	setString(&a.Provider, o.Provider)
	setString(&a.BaseURL, o.BaseURL)
	setString(&a.APIKey, o.APIKey)
	setString(&a.DeploymentID, o.DeploymentID)
	setString(&a.APIVersion, o.APIVersion)
	setString(&a.Model, o.Model)
	setString(&a.PromptTemplate, o.PromptTemplate)
	if o.MaxTokens != nil {
		a.MaxTokens = *o.MaxTokens
	}
	if o.MaxRetries != nil {
		a.MaxRetries = *o.MaxRetries
	}
	setFloat(&a.Temperature, o.Temperature)
	setFloat(&a.TopP, o.TopP)
	setFloat(&a.FrequencyPenalty, o.FrequencyPenalty)
	setFloat(&a.PresencePenalty, o.PresencePenalty)
	setFloat(&a.Timeout, o.Timeout)
	return a
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
