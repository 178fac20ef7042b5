package expectations

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/google/cel-go/cel"
)

// Tabular is the slice of a dataset the engine needs.
type Tabular interface {
	RowCount() int
	Column(name string) ([]any, error)
}

// expectationDef describes one built-in expectation kind. Row-scoped kinds
// evaluate a CEL expression over the target column's values and count
// failures; aggregate kinds compute a single observation and check it against
// the configured bounds.
type expectationDef struct {
	expression string
	aggregate  string // "", or min | max | mean | row_count
	numeric    bool   // row-scoped: restrict values to non-null numerics
}

const boundsExpr = `observed >= min_value && observed <= max_value`

var builtinExpectations = map[string]expectationDef{
	"expect_column_values_to_not_be_null": {
		expression: `size(values.filter(v, v == null))`,
	},
	"expect_column_values_to_be_between": {
		expression: `size(values.filter(v, v < min_value || v > max_value))`,
		numeric:    true,
	},
	"expect_column_min_to_be_between":  {expression: boundsExpr, aggregate: "min"},
	"expect_column_max_to_be_between":  {expression: boundsExpr, aggregate: "max"},
	"expect_column_mean_to_be_between": {expression: boundsExpr, aggregate: "mean"},
	"expect_table_row_count_to_be_between": {
		expression: boundsExpr,
		aggregate:  "row_count",
	},
}

// Engine evaluates expectation suites against tabular datasets. Every
// built-in expectation kind is backed by a CEL program compiled once at
// construction.
type Engine struct {
	env      *cel.Env
	programs map[string]cel.Program
	mu       sync.RWMutex
}

// NewEngine creates an engine with all built-in expectation kinds compiled.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("values", cel.ListType(cel.DynType)),
		cel.Variable("observed", cel.DynType),
		cel.Variable("min_value", cel.DynType),
		cel.Variable("max_value", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	en := &Engine{
		env:      env,
		programs: make(map[string]cel.Program),
	}

	for kind, def := range builtinExpectations {
		if err := en.compile(kind, def.expression); err != nil {
			return nil, fmt.Errorf("failed to compile expectation %s: %w", kind, err)
		}
	}
	return en, nil
}

func (en *Engine) compile(kind, expression string) error {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := en.env.Program(ast)
	if err != nil {
		return fmt.Errorf("program creation error: %w", err)
	}

	en.mu.Lock()
	en.programs[kind] = prog
	en.mu.Unlock()
	return nil
}

// Validate evaluates every expectation in the config against the dataset and
// produces a validation result suitable for registration. Reference kwargs
// are resolved from params (the parameters bound for runID); an unresolvable
// reference fails that one expectation, never the whole run.
func (en *Engine) Validate(ds Tabular, cfg *DataAssetConfig, runID string, params map[string]any) (*ValidationResult, []Warning) {
	result := &ValidationResult{
		Meta: ValidationMeta{
			DataAssetName: cfg.DataAssetName,
			RunID:         runID,
		},
		Success: true,
	}

	var warnings []Warning
	for _, exp := range cfg.Expectations {
		entry, ws := en.evaluate(ds, exp, params)
		warnings = append(warnings, ws...)
		if !entry.Success {
			result.Success = false
		}
		result.Results = append(result.Results, entry)
	}
	return result, warnings
}

func (en *Engine) evaluate(ds Tabular, exp Expectation, params map[string]any) (ValidationEntryResult, []Warning) {
	resolved, ws := resolveKwargs(exp.Kwargs, params)
	entry := ValidationEntryResult{
		ExpectationConfig: Expectation{Kind: exp.Kind, Kwargs: literalKwargs(resolved)},
	}
	if len(ws) > 0 {
		return entry, ws
	}

	def, ok := builtinExpectations[exp.Kind]
	if !ok {
		return entry, []Warning{{
			Code:    WarnUnknownExpectation,
			Message: fmt.Sprintf("unknown expectation type %q", exp.Kind),
		}}
	}

	en.mu.RLock()
	prog := en.programs[exp.Kind]
	en.mu.RUnlock()

	minVal, maxVal, ws := bounds(resolved)
	if len(ws) > 0 {
		return entry, ws
	}

	if def.aggregate != "" {
		return en.evaluateAggregate(ds, def, prog, entry, resolved, minVal, maxVal)
	}
	return en.evaluateRowScoped(ds, def, prog, entry, resolved, minVal, maxVal)
}

func (en *Engine) evaluateRowScoped(ds Tabular, def expectationDef, prog cel.Program, entry ValidationEntryResult, resolved map[string]any, minVal, maxVal float64) (ValidationEntryResult, []Warning) {
	raw, w := columnValues(ds, resolved)
	if w != nil {
		return entry, []Warning{*w}
	}

	elementCount := len(raw)
	values := raw
	var nullCount, nonNumeric int
	if def.numeric {
		nums := make([]any, 0, len(raw))
		for _, v := range raw {
			if v == nil {
				nullCount++
				continue
			}
			f, ok := toFloat(v)
			if !ok {
				nonNumeric++
				continue
			}
			nums = append(nums, f)
		}
		values = nums
	}

	out, _, err := prog.Eval(map[string]any{
		"values":    values,
		"min_value": minVal,
		"max_value": maxVal,
	})
	if err != nil {
		return entry, []Warning{evaluationWarning(entry.ExpectationConfig.Kind, err)}
	}

	unexpected, ok := out.Value().(int64)
	if !ok {
		return entry, []Warning{evaluationWarning(entry.ExpectationConfig.Kind, fmt.Errorf("expression yielded %T, want int", out.Value()))}
	}
	unexpected += int64(nonNumeric)

	entry.Success = unexpected == 0
	entry.Result = map[string]any{
		"element_count":      elementCount,
		"missing_count":      nullCount,
		"unexpected_count":   unexpected,
		"unexpected_percent": percent(unexpected, elementCount-nullCount),
	}
	return entry, nil
}

func (en *Engine) evaluateAggregate(ds Tabular, def expectationDef, prog cel.Program, entry ValidationEntryResult, resolved map[string]any, minVal, maxVal float64) (ValidationEntryResult, []Warning) {
	var observed float64
	if def.aggregate == "row_count" {
		observed = float64(ds.RowCount())
	} else {
		raw, w := columnValues(ds, resolved)
		if w != nil {
			return entry, []Warning{*w}
		}
		nums := numericValues(raw)
		if len(nums) == 0 {
			return entry, []Warning{evaluationWarning(entry.ExpectationConfig.Kind, fmt.Errorf("column has no numeric values"))}
		}
		switch def.aggregate {
		case "min":
			observed = nums[0]
			for _, n := range nums[1:] {
				observed = math.Min(observed, n)
			}
		case "max":
			observed = nums[0]
			for _, n := range nums[1:] {
				observed = math.Max(observed, n)
			}
		case "mean":
			var sum float64
			for _, n := range nums {
				sum += n
			}
			observed = sum / float64(len(nums))
		}
	}

	out, _, err := prog.Eval(map[string]any{
		"observed":  observed,
		"min_value": minVal,
		"max_value": maxVal,
	})
	if err != nil {
		return entry, []Warning{evaluationWarning(entry.ExpectationConfig.Kind, err)}
	}

	success, _ := out.Value().(bool)
	entry.Success = success
	entry.Result = map[string]any{"observed_value": observed}
	return entry, nil
}

// resolveKwargs substitutes bound evaluation parameters into reference
// arguments. A reference with no bound value warns and leaves the expectation
// unevaluated.
func resolveKwargs(kwargs map[string]ArgumentValue, params map[string]any) (map[string]any, []Warning) {
	resolved := make(map[string]any, len(kwargs))
	var warnings []Warning
	for name, arg := range kwargs {
		switch arg.Kind {
		case Literal:
			resolved[name] = arg.Value
		case Reference:
			v, ok := params[arg.Reference]
			if !ok {
				warnings = append(warnings, Warning{
					Code:    WarnUnboundParameter,
					Message: fmt.Sprintf("no value bound for parameter %q", name),
					URN:     arg.Reference,
				})
				continue
			}
			resolved[name] = v
		}
	}
	return resolved, warnings
}

func literalKwargs(resolved map[string]any) map[string]ArgumentValue {
	out := make(map[string]ArgumentValue, len(resolved))
	for name, v := range resolved {
		out[name] = LiteralValue(v)
	}
	return out
}

func columnValues(ds Tabular, resolved map[string]any) ([]any, *Warning) {
	name, ok := resolved["column"].(string)
	if !ok {
		return nil, &Warning{Code: WarnMissingColumn, Message: "expectation has no column argument"}
	}
	values, err := ds.Column(name)
	if err != nil {
		return nil, &Warning{Code: WarnMissingColumn, Message: err.Error()}
	}
	return values, nil
}

// bounds reads min_value and max_value from the resolved kwargs, defaulting
// to an unbounded range when absent.
func bounds(resolved map[string]any) (float64, float64, []Warning) {
	minVal := math.Inf(-1)
	maxVal := math.Inf(1)
	var warnings []Warning
	if v, ok := resolved["min_value"]; ok {
		f, ok := toFloat(v)
		if !ok {
			warnings = append(warnings, boundWarning("min_value", v))
		} else {
			minVal = f
		}
	}
	if v, ok := resolved["max_value"]; ok {
		f, ok := toFloat(v)
		if !ok {
			warnings = append(warnings, boundWarning("max_value", v))
		} else {
			maxVal = f
		}
	}
	return minVal, maxVal, warnings
}

func boundWarning(name string, v any) Warning {
	return Warning{
		Code:    WarnEvaluationError,
		Message: fmt.Sprintf("%s is not numeric: %v", name, v),
	}
}

func evaluationWarning(kind string, err error) Warning {
	return Warning{
		Code:    WarnEvaluationError,
		Message: fmt.Sprintf("failed to evaluate %s: %v", kind, err),
	}
}

func percent(n int64, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func numericValues(raw []any) []float64 {
	nums := make([]float64, 0, len(raw))
	for _, v := range raw {
		if f, ok := toFloat(v); ok {
			nums = append(nums, f)
		}
	}
	return nums
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
