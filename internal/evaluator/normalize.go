package evaluator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/muhammadolammi/jobmatch/internal/jobmatch"
)

const (
	evaluationsKey = "evaluations"
	insightKey     = "overallInsight"
)

// keyRule adopts the value under from as the canonical evaluation list.
// A wrap rule expects a single evaluation object instead of a list.
type keyRule struct {
	from string
	wrap bool
}

// evaluationKeyRules are tried in order when the canonical key is missing.
// The first rule whose key holds a value of the expected kind wins; the
// remaining keys are left untouched.
var evaluationKeyRules = []keyRule{
	{from: "EVALUATIONS"},
	{from: "EVALUATION"},
	{from: "EVALUATIONRESULTS"},
	{from: "JOBEVALUATIONS"},
	{from: "evaluation", wrap: true},
}

var (
	stringFields = []string{"jobId", "detectedTitle", "detectedCompany", "status", "summary", "verdict", "coverLetter", "tailoredResume"}
	metricFields = []string{"category", "reasoning"}
)

// Normalize parses an evaluator reply and reconciles it into the canonical
// result shape.
func Normalize(raw string) (*jobmatch.EvaluationResult, error) {
	doc, err := normalizeDocument(raw)
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func normalizeDocument(raw string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &v); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	// Valid JSON that is not an object carries no evaluation list.
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, ErrUnrecognizedShape
	}
	if err := reshape(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// reshape resolves the evaluation list into doc[evaluationsKey] and sanitizes
// every evaluation in place.
func reshape(doc map[string]any) error {
	if _, ok := doc[evaluationsKey].([]any); !ok {
		if !adoptAlternate(doc) {
			return ErrUnrecognizedShape
		}
	}

	list := doc[evaluationsKey].([]any)
	sanitized := make([]any, 0, len(list))
	for _, item := range list {
		eval, ok := item.(map[string]any)
		if !ok {
			continue
		}
		sanitizeEvaluation(eval)
		sanitized = append(sanitized, eval)
	}
	doc[evaluationsKey] = sanitized

	if v, present := doc[insightKey]; present {
		if _, ok := v.(string); !ok {
			delete(doc, insightKey)
		}
	}

	if len(sanitized) == 0 {
		return ErrNoEvaluations
	}
	return nil
}

func adoptAlternate(doc map[string]any) bool {
	for _, rule := range evaluationKeyRules {
		v, present := doc[rule.from]
		if !present {
			continue
		}
		if rule.wrap {
			obj, ok := v.(map[string]any)
			if !ok {
				continue
			}
			doc[evaluationsKey] = []any{obj}
		} else {
			list, ok := v.([]any)
			if !ok {
				continue
			}
			doc[evaluationsKey] = list
		}
		delete(doc, rule.from)
		return true
	}
	return false
}

func sanitizeEvaluation(eval map[string]any) {
	eval["metrics"] = objects(eval["metrics"])
	eval["pros"] = stringItems(eval["pros"])
	eval["cons"] = stringItems(eval["cons"])

	for _, field := range stringFields {
		coerceString(eval, field)
	}
	coerceScore(eval, "worthApplyingScore")
	if s, ok := eval["status"].(string); ok {
		eval["status"] = string(jobmatch.ParseStatus(s))
	}

	for _, m := range eval["metrics"].([]any) {
		metric := m.(map[string]any)
		for _, field := range metricFields {
			coerceString(metric, field)
		}
		coerceScore(metric, "score")
	}
}

func objects(v any) []any {
	list, ok := v.([]any)
	if !ok {
		return []any{}
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func stringItems(v any) []any {
	list, ok := v.([]any)
	if !ok {
		return []any{}
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// coerceString renders numbers and booleans as text and drops other
// non-string values so typed decoding cannot fail on them.
func coerceString(obj map[string]any, key string) {
	v, present := obj[key]
	if !present {
		return
	}
	switch t := v.(type) {
	case string:
	case float64:
		obj[key] = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		obj[key] = strconv.FormatBool(t)
	default:
		delete(obj, key)
	}
}

func coerceScore(obj map[string]any, key string) {
	v, present := obj[key]
	if !present {
		return
	}
	switch t := v.(type) {
	case float64:
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			delete(obj, key)
			return
		}
		obj[key] = f
	default:
		delete(obj, key)
	}
}

func decode(doc map[string]any) (*jobmatch.EvaluationResult, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode normalized reply: %w", err)
	}
	var result jobmatch.EvaluationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	if len(result.Evaluations) == 0 {
		return nil, ErrNoEvaluations
	}
	return &result, nil
}
