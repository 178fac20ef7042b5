package expectations

import (
	"encoding/json"
	"fmt"
)

// SchemaVersion is written into the meta block of freshly created
// data asset configs.
const SchemaVersion = "0.4.0"

// DataAssetConfig is the named collection of expectations for one data asset.
type DataAssetConfig struct {
	DataAssetName string         `json:"data_asset_name"`
	Meta          map[string]any `json:"meta,omitempty"`
	Expectations  []Expectation  `json:"expectations"`
}

// Expectation is a single validation check: a kind plus keyword arguments.
type Expectation struct {
	Kind   string                   `json:"expectation_type"`
	Kwargs map[string]ArgumentValue `json:"kwargs"`
}

// ArgumentKind discriminates the two cases of ArgumentValue.
type ArgumentKind int

const (
	// Literal arguments carry their value directly.
	Literal ArgumentKind = iota
	// Reference arguments carry a URN resolved from a previous
	// validation run at evaluation time.
	Reference
)

// ArgumentValue is one expectation keyword argument: either a literal value
// or a reference to a previously produced validation value.
type ArgumentValue struct {
	Kind      ArgumentKind
	Value     any
	Reference string
}

// LiteralValue wraps a plain value as a literal argument.
func LiteralValue(v any) ArgumentValue {
	return ArgumentValue{Kind: Literal, Value: v}
}

// ReferenceValue wraps a URN as a reference argument.
func ReferenceValue(urn string) ArgumentValue {
	return ArgumentValue{Kind: Reference, Reference: urn}
}

// parameterKey is the wire marker for reference arguments.
const parameterKey = "$PARAMETER"

// MarshalJSON serializes a reference as {"$PARAMETER": "<urn>"} and a literal
// as its raw JSON value.
func (a ArgumentValue) MarshalJSON() ([]byte, error) {
	if a.Kind == Reference {
		return json.Marshal(map[string]string{parameterKey: a.Reference})
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON recognizes the {"$PARAMETER": ...} wire form as a reference;
// everything else is a literal.
func (a *ArgumentValue) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		if raw, ok := probe[parameterKey]; ok && len(probe) == 1 {
			var urn string
			if err := json.Unmarshal(raw, &urn); err != nil {
				return fmt.Errorf("invalid %s value: %w", parameterKey, err)
			}
			*a = ReferenceValue(urn)
			return nil
		}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = LiteralValue(v)
	return nil
}

// ValidationResult is the output of one validation run against a data asset.
type ValidationResult struct {
	Meta    ValidationMeta          `json:"meta"`
	Results []ValidationEntryResult `json:"results"`
	Success bool                    `json:"success"`
}

// ValidationMeta carries run-level metadata.
type ValidationMeta struct {
	DataAssetName    string `json:"data_asset_name,omitempty"`
	RunID            string `json:"run_id,omitempty"`
	DatasetReference string `json:"dataset_reference,omitempty"`
}

// ValidationEntryResult is the outcome of evaluating one expectation.
type ValidationEntryResult struct {
	ExpectationConfig Expectation    `json:"expectation_config"`
	Result            map[string]any `json:"result,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
	Success           bool           `json:"success"`
}

// WarningCode classifies a warning record.
type WarningCode string

const (
	WarnMalformedURN       WarningCode = "malformed_urn"
	WarnUnknownAsset       WarningCode = "unknown_asset"
	WarnUnresolvedKey      WarningCode = "unresolved_key"
	WarnMissingAssetName   WarningCode = "missing_asset_name"
	WarnUnknownExpectation WarningCode = "unknown_expectation"
	WarnUnboundParameter   WarningCode = "unbound_parameter"
	WarnMissingColumn      WarningCode = "missing_column"
	WarnEvaluationError    WarningCode = "evaluation_error"
)

// Warning is a structured record of a problem that was absorbed rather than
// raised. Operations that can skip work return the accumulated warnings so
// callers can inspect what was skipped.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	URN     string      `json:"urn,omitempty"`
}
