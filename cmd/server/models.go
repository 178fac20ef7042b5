package main

import "github.com/liamcoop/expectations/expectations"

// API request and response models

// RegisterValidationRequest is the body for registering externally produced
// validation results.
type RegisterValidationRequest struct {
	RunID  string                         `json:"run_id,omitempty"`
	Result *expectations.ValidationResult `json:"result"`
}

// RegisterValidationResponse reports what one registration stored.
type RegisterValidationResponse struct {
	RunID    string                 `json:"run_id"`
	Stored   int                    `json:"stored"`
	Warnings []expectations.Warning `json:"warnings,omitempty"`
}

// ValidateResponse is returned from validating a CSV dataset.
type ValidateResponse struct {
	RunID    string                         `json:"run_id"`
	Result   *expectations.ValidationResult `json:"result"`
	Warnings []expectations.Warning         `json:"warnings,omitempty"`
}

// ParametersResponse carries the evaluation parameters bound for a run.
type ParametersResponse struct {
	RunID      string         `json:"run_id"`
	Parameters map[string]any `json:"parameters"`
}

// AssetsListResponse lists the known data asset config names.
type AssetsListResponse struct {
	DataAssets []string `json:"data_assets"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}
