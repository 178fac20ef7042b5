package expectations

import (
	"fmt"
	"strings"
)

// ParameterSet is a set of raw URN strings.
type ParameterSet map[string]struct{}

// BranchSets holds the result and details parameter sets for one scope.
type BranchSets struct {
	Result  ParameterSet
	Details ParameterSet
}

func newBranchSets() *BranchSets {
	return &BranchSets{
		Result:  make(ParameterSet),
		Details: make(ParameterSet),
	}
}

func (b *BranchSets) add(p *ParsedURN) {
	switch p.Branch {
	case BranchResult:
		b.Result[p.Raw] = struct{}{}
	case BranchDetails:
		b.Details[p.Raw] = struct{}{}
	}
}

// KindIndex holds all parameters declared against one expectation kind:
// the non-column result/details sets plus any column-scoped sets.
type KindIndex struct {
	BranchSets
	Columns map[string]*BranchSets
}

func newKindIndex() *KindIndex {
	return &KindIndex{
		BranchSets: *newBranchSets(),
		Columns:    make(map[string]*BranchSets),
	}
}

// CompiledParameterIndex is the nested index of every evaluation parameter
// any known config currently wants, keyed by the asset and expectation kind
// that will produce it. It is built wholesale by CompileParameterIndex and
// must be treated as immutable once published.
type CompiledParameterIndex struct {
	Raw        ParameterSet
	DataAssets map[string]map[string]*KindIndex
}

func newCompiledParameterIndex() *CompiledParameterIndex {
	return &CompiledParameterIndex{
		Raw:        make(ParameterSet),
		DataAssets: make(map[string]map[string]*KindIndex),
	}
}

func (idx *CompiledParameterIndex) insert(p *ParsedURN) {
	idx.Raw[p.Raw] = struct{}{}

	kinds, ok := idx.DataAssets[p.AssetName]
	if !ok {
		kinds = make(map[string]*KindIndex)
		idx.DataAssets[p.AssetName] = kinds
	}

	ki, ok := kinds[p.Kind]
	if !ok {
		ki = newKindIndex()
		kinds[p.Kind] = ki
	}

	target := &ki.BranchSets
	if p.ColumnName != "" {
		cb, ok := ki.Columns[p.ColumnName]
		if !ok {
			cb = newBranchSets()
			ki.Columns[p.ColumnName] = cb
		}
		target = cb
	}
	target.add(p)
}

// CompileParameterIndex rebuilds the parameter index from scratch over every
// given config. One bad identifier never aborts the compile: malformed URNs
// are recorded as warnings and skipped, and references to assets outside
// knownAssets are compiled anyway with a warning (forward references are
// allowed). Identifiers without the validations URN prefix are not compiled;
// other parameter styles are out of scope here.
func CompileParameterIndex(configs []*DataAssetConfig, knownAssets []string) (*CompiledParameterIndex, []Warning) {
	idx := newCompiledParameterIndex()

	known := make(map[string]struct{}, len(knownAssets))
	for _, name := range knownAssets {
		known[name] = struct{}{}
	}

	var warnings []Warning
	for _, cfg := range configs {
		for _, exp := range cfg.Expectations {
			for _, arg := range exp.Kwargs {
				if arg.Kind != Reference {
					continue
				}
				if !strings.HasPrefix(arg.Reference, ValidationsURNPrefix) {
					continue
				}

				p, err := ParseURN(arg.Reference)
				if err != nil {
					warnings = append(warnings, Warning{
						Code:    WarnMalformedURN,
						Message: err.Error(),
						URN:     arg.Reference,
					})
					continue
				}

				if _, ok := known[p.AssetName]; !ok {
					warnings = append(warnings, Warning{
						Code:    WarnUnknownAsset,
						Message: fmt.Sprintf("parameter references data asset %q with no known config", p.AssetName),
						URN:     arg.Reference,
					})
				}

				idx.insert(p)
			}
		}
	}

	return idx, warnings
}
