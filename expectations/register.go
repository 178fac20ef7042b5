package expectations

import "fmt"

// registerParameters scans one validation result against the compiled index
// and stores every wanted value under runID. It returns the number of stored
// parameters and the warnings accumulated along the way.
//
// A result without a data asset name cannot be registered and is a warned
// no-op. A result for an asset nothing depends on is a silent short-circuit.
// For every entry whose expectation kind is indexed, both the column-scoped
// sets (when the entry carries a matching column kwarg) and the non-column
// sets are resolved; a missing leaf key warns and skips that one parameter.
func registerParameters(runID string, result *ValidationResult, idx *CompiledParameterIndex, store ParameterStore) (int, []Warning) {
	if result.Meta.DataAssetName == "" {
		return 0, []Warning{{
			Code:    WarnMissingAssetName,
			Message: "no data_asset_name in validation result meta; evaluation parameters cannot be registered",
		}}
	}

	kinds, ok := idx.DataAssets[result.Meta.DataAssetName]
	if !ok {
		return 0, nil
	}

	var (
		stored   int
		warnings []Warning
	)
	for _, entry := range result.Results {
		ki, ok := kinds[entry.ExpectationConfig.Kind]
		if !ok {
			continue
		}

		if column, ok := columnKwarg(entry.ExpectationConfig.Kwargs); ok {
			if cb, ok := ki.Columns[column]; ok {
				n, ws := resolveBranchSets(runID, cb, entry, store)
				stored += n
				warnings = append(warnings, ws...)
			}
		}

		n, ws := resolveBranchSets(runID, &ki.BranchSets, entry, store)
		stored += n
		warnings = append(warnings, ws...)
	}

	return stored, warnings
}

// resolveBranchSets extracts the declared result and details values from one
// entry and stores them. Parameters whose leaf key is absent warn and are
// skipped for this round.
func resolveBranchSets(runID string, b *BranchSets, entry ValidationEntryResult, store ParameterStore) (int, []Warning) {
	var (
		stored   int
		warnings []Warning
	)
	for urn := range b.Result {
		key := leafKey(urn)
		if v, ok := entry.Result[key]; ok {
			store.Put(runID, urn, v)
			stored++
		} else {
			warnings = append(warnings, unresolvedKeyWarning(urn, key, "result"))
		}
	}
	for urn := range b.Details {
		key := leafKey(urn)
		if v, ok := entry.Details[key]; ok {
			store.Put(runID, urn, v)
			stored++
		} else {
			warnings = append(warnings, unresolvedKeyWarning(urn, key, "details"))
		}
	}
	return stored, warnings
}

func unresolvedKeyWarning(urn, key, branch string) Warning {
	return Warning{
		Code:    WarnUnresolvedKey,
		Message: fmt.Sprintf("key %q not present in entry %s map", key, branch),
		URN:     urn,
	}
}

// columnKwarg returns the entry's literal column argument, if any.
func columnKwarg(kwargs map[string]ArgumentValue) (string, bool) {
	arg, ok := kwargs["column"]
	if !ok || arg.Kind != Literal {
		return "", false
	}
	column, ok := arg.Value.(string)
	return column, ok
}
