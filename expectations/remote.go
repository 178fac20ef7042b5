package expectations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/liamcoop/expectations/dataset"
)

// ErrMissingDatasetReference is returned when a validation result carries no
// dataset_reference in its meta block and a re-fetch is requested.
var ErrMissingDatasetReference = errors.New("validation result has no dataset_reference in meta")

// ReviewValidationResult fetches a stored validation result document and
// optionally filters it down to the failed entries.
func ReviewValidationResult(ctx context.Context, fetcher dataset.BlobFetcher, url string, failedOnly bool) (*ValidationResult, error) {
	raw, err := fetcher.Fetch(ctx, strings.TrimSpace(url))
	if err != nil {
		return nil, err
	}

	var result ValidationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("invalid validation result document: %w", err)
	}

	if failedOnly {
		failed := make([]ValidationEntryResult, 0, len(result.Results))
		for _, entry := range result.Results {
			if !entry.Success {
				failed = append(failed, entry)
			}
		}
		result.Results = failed
	}
	return &result, nil
}

// FetchFailedDataset follows a validation result's dataset_reference and
// retrieves the data that was validated. References naming tabular content
// (.csv) are materialized as a dataset; anything else comes back as raw
// bytes. A result without a dataset_reference is a hard failure.
func FetchFailedDataset(ctx context.Context, fetcher dataset.BlobFetcher, result *ValidationResult) (*dataset.Dataset, []byte, error) {
	ref := result.Meta.DatasetReference
	if ref == "" {
		return nil, nil, ErrMissingDatasetReference
	}

	raw, err := fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	if strings.HasSuffix(strings.ToLower(ref), ".csv") {
		ds, err := dataset.ReadCSV(bytes.NewReader(raw))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to materialize dataset from %s: %w", ref, err)
		}
		return ds, nil, nil
	}
	return nil, raw, nil
}
