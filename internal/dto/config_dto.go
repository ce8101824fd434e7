package dto

// UpdateConfigRequest overrides a policy value.
type UpdateConfigRequest struct {
	Value       string `json:"value" validate:"required,numeric"`
	Description string `json:"description" validate:"omitempty,max=512"`
}

// ConfigEntryResponse reports the effective value of a policy key.
type ConfigEntryResponse struct {
	Key          string `json:"key"`
	Value        string `json:"value"`
	DefaultValue string `json:"default_value"`
	Description  string `json:"description"`
	Overridden   bool   `json:"overridden"`
}
