package expectations

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// fakeFetcher serves canned bytes keyed by URL.
type fakeFetcher struct {
	blobs   map[string][]byte
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	f.fetched = append(f.fetched, rawURL)
	blob, ok := f.blobs[rawURL]
	if !ok {
		return nil, errors.New("no such object")
	}
	return blob, nil
}

func storedResult(t *testing.T) []byte {
	t.Helper()
	result := &ValidationResult{
		Meta: ValidationMeta{
			DataAssetName:    "orders",
			RunID:            "run-1",
			DatasetReference: "s3://bucket/datasets/orders.csv",
		},
		Results: []ValidationEntryResult{
			{ExpectationConfig: Expectation{Kind: "expect_column_values_to_not_be_null"}, Success: true},
			{ExpectationConfig: Expectation{Kind: "expect_column_values_to_be_between"}, Success: false},
		},
	}
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestReviewValidationResult(t *testing.T) {
	url := "s3://bucket/validations/run-1.json"
	fetcher := &fakeFetcher{blobs: map[string][]byte{url: storedResult(t)}}

	result, err := ReviewValidationResult(context.Background(), fetcher, url, false)
	if err != nil {
		t.Fatalf("ReviewValidationResult() failed: %v", err)
	}
	if len(result.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2", len(result.Results))
	}
	if result.Meta.RunID != "run-1" {
		t.Errorf("RunID = %s, want run-1", result.Meta.RunID)
	}
}

func TestReviewValidationResultFailedOnly(t *testing.T) {
	url := "s3://bucket/validations/run-1.json"
	fetcher := &fakeFetcher{blobs: map[string][]byte{url: storedResult(t)}}

	result, err := ReviewValidationResult(context.Background(), fetcher, url, true)
	if err != nil {
		t.Fatalf("ReviewValidationResult() failed: %v", err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("len(Results) = %d, want only the failed entry", len(result.Results))
	}
	if result.Results[0].Success {
		t.Error("the surviving entry should be the failed one")
	}
}

func TestReviewValidationResultTrimsURL(t *testing.T) {
	url := "s3://bucket/validations/run-1.json"
	fetcher := &fakeFetcher{blobs: map[string][]byte{url: storedResult(t)}}

	if _, err := ReviewValidationResult(context.Background(), fetcher, "  "+url+"\n", false); err != nil {
		t.Fatalf("ReviewValidationResult() failed: %v", err)
	}
	if len(fetcher.fetched) != 1 || fetcher.fetched[0] != url {
		t.Errorf("fetched %v, want the trimmed url", fetcher.fetched)
	}
}

func TestReviewValidationResultBadDocument(t *testing.T) {
	url := "s3://bucket/validations/run-1.json"
	fetcher := &fakeFetcher{blobs: map[string][]byte{url: []byte("not json")}}

	if _, err := ReviewValidationResult(context.Background(), fetcher, url, false); err == nil {
		t.Error("an undecodable document should fail")
	}
}

func TestFetchFailedDatasetMaterializesCSV(t *testing.T) {
	ref := "s3://bucket/datasets/orders.csv"
	fetcher := &fakeFetcher{blobs: map[string][]byte{
		ref: []byte("amount,status\n5,ok\n,missing\n"),
	}}

	result := &ValidationResult{Meta: ValidationMeta{DatasetReference: ref}}
	ds, raw, err := FetchFailedDataset(context.Background(), fetcher, result)
	if err != nil {
		t.Fatalf("FetchFailedDataset() failed: %v", err)
	}
	if raw != nil {
		t.Error("csv references should come back as a dataset, not raw bytes")
	}
	if ds.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2", ds.RowCount())
	}

	amounts, err := ds.Column("amount")
	if err != nil {
		t.Fatalf("Column() failed: %v", err)
	}
	if amounts[0] != float64(5) || amounts[1] != nil {
		t.Errorf("amount column = %v, want [5 nil]", amounts)
	}
}

func TestFetchFailedDatasetRawFallback(t *testing.T) {
	ref := "s3://bucket/datasets/orders.parquet"
	fetcher := &fakeFetcher{blobs: map[string][]byte{ref: {0x50, 0x41, 0x52}}}

	result := &ValidationResult{Meta: ValidationMeta{DatasetReference: ref}}
	ds, raw, err := FetchFailedDataset(context.Background(), fetcher, result)
	if err != nil {
		t.Fatalf("FetchFailedDataset() failed: %v", err)
	}
	if ds != nil {
		t.Error("non-csv references should not be materialized")
	}
	if len(raw) != 3 {
		t.Errorf("raw = %v, want the fetched bytes", raw)
	}
}

func TestFetchFailedDatasetMissingReference(t *testing.T) {
	result := &ValidationResult{Meta: ValidationMeta{DataAssetName: "orders"}}

	_, _, err := FetchFailedDataset(context.Background(), &fakeFetcher{}, result)
	if !errors.Is(err, ErrMissingDatasetReference) {
		t.Errorf("err = %v, want ErrMissingDatasetReference", err)
	}
}
