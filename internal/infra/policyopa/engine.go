// Package policyopa evaluates the license allow-list through OPA. The
// policy is fixed and embedded; no authoring surface is exposed.
package policyopa

import (
	"context"
	"errors"

	"github.com/open-policy-agent/opa/rego"
)

const licensePolicy = `
package sc3.licenses

default allow = false

allow {
	count(input.allowed) == 0
}

allow {
	input.license == input.allowed[_]
}
`

const defaultQuery = "data.sc3.licenses.allow"

type Gate struct {
	query rego.PreparedEvalQuery
}

func NewGate(ctx context.Context) (*Gate, error) {
	prepared, err := rego.New(
		rego.Query(defaultQuery),
		rego.Module("licenses.rego", licensePolicy),
		rego.StrictBuiltinErrors(true),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &Gate{query: prepared}, nil
}

type gateInput struct {
	License string   `json:"license"`
	Allowed []string `json:"allowed"`
}

// Allow reports whether the license passes the allow-list. An empty
// allow-list permits everything.
func (g *Gate) Allow(ctx context.Context, license string, allowed []string) (bool, error) {
	if g == nil {
		return false, errors.New("license gate is nil")
	}
	if allowed == nil {
		allowed = []string{}
	}
	results, err := g.query.Eval(ctx, rego.EvalInput(gateInput{License: license, Allowed: allowed}))
	if err != nil {
		return false, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, errors.New("empty policy result")
	}
	allow, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, errors.New("policy result is not boolean")
	}
	return allow, nil
}
