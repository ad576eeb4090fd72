package dispatch

import "github.com/hupe1980/agentmcp/schema"

// Projection shapes validated parameters into a capability's input. It
// reports false when it does not apply to the parameters.
type Projection func(p *schema.Params) (any, bool)

// Mapping passes the parameters as map[string]any.
func Mapping(p *schema.Params) (any, bool) { return p.Map(), true }

// Positional passes the parameter values in declared field order as []any.
// A single parameter is passed unwrapped.
func Positional(p *schema.Params) (any, bool) {
	values := p.Values()
	if len(values) == 1 {
		return values[0], true
	}

	return values, true
}

// QueryValue passes the "query" parameter, or the only parameter when there
// is exactly one. It does not apply otherwise.
func QueryValue(p *schema.Params) (any, bool) {
	if v, ok := p.Get("query"); ok {
		return v, true
	}

	if p.Len() == 1 {
		return p.Values()[0], true
	}

	return nil, false
}

// Inputs wraps the parameter mapping under "inputs".
func Inputs(p *schema.Params) (any, bool) {
	return KickoffRequest{Inputs: p.Map()}, true
}
