package policyelig

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/open-policy-agent/opa/rego"

	"solsign/internal/usecase"
)

const defaultQuery = "data.solsign.eligibility.result"

// defaultPolicy encodes the code-issuance gates: consent first, then a
// passed liveness check. Operators may override it with their own rego file.
const defaultPolicy = `package solsign.eligibility

default result = {"allow": false, "missing_gate": "consent"}

result = {"allow": true, "missing_gate": ""} {
	input.consent_given
	input.liveness_passed
}

result = {"allow": false, "missing_gate": "liveness"} {
	input.consent_given
	not input.liveness_passed
}
`

type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine compiles the eligibility policy. An empty policyPath uses the
// built-in rules.
func NewEngine(ctx context.Context, policyPath string) (*Engine, error) {
	opts := []func(*rego.Rego){
		rego.Query(defaultQuery),
		rego.StrictBuiltinErrors(true),
	}
	if policyPath != "" {
		opts = append(opts, rego.Load([]string{policyPath}, nil))
	} else {
		opts = append(opts, rego.Module("eligibility.rego", defaultPolicy))
	}
	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{query: prepared}, nil
}

func (e *Engine) Evaluate(ctx context.Context, input usecase.EligibilityInput) (usecase.EligibilityDecision, error) {
	if e == nil {
		return usecase.EligibilityDecision{}, errors.New("eligibility engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return usecase.EligibilityDecision{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return usecase.EligibilityDecision{}, errors.New("empty eligibility result")
	}
	return decodeDecision(results[0].Expressions[0].Value)
}

func decodeDecision(value any) (usecase.EligibilityDecision, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return usecase.EligibilityDecision{}, err
	}
	var decision usecase.EligibilityDecision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return usecase.EligibilityDecision{}, err
	}
	return decision, nil
}
