package tool

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/hupe1980/agentmcp/dispatch"
	"github.com/hupe1980/agentmcp/schema"
)

// NewFunctionTool exposes a plain Go function as a tool.
//
// The function receives the validated parameters keyed by field name. A
// returned *ToolError keeps its kind; any other error is an execution error.
//
// Example:
//
//	sumTool, err := tool.NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  schema.Fields(
//	    schema.Field{Name: "a", Validator: schema.Number()},
//	    schema.Field{Name: "b", Validator: schema.Number()},
//	  ),
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	s schema.Schema,
	fn func(ctx context.Context, args map[string]any) (any, error),
	optFns ...func(o *Options),
) (*Adapter, error) {
	if fn == nil {
		return nil, fmt.Errorf("tool %s: function is required", name)
	}

	agent := dispatch.AgentFunc(func(ctx context.Context, input any) (any, error) {
		args, _ := input.(map[string]any)
		return fn(ctx, args)
	})

	return NewAdapter(name, description, s, agent, append([]func(o *Options){withFunctionFamily}, optFns...)...)
}

// NewTypedFunctionTool derives the parameter schema from the struct type A
// and decodes validated parameters into it before calling fn.
//
// Example:
//
//	type SumArgs struct {
//	  A float64 `json:"a" jsonschema:"description=First addend"`
//	  B float64 `json:"b" jsonschema:"description=Second addend"`
//	}
//
//	sumTool, err := tool.NewTypedFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  func(ctx context.Context, args SumArgs) (float64, error) {
//	    return args.A + args.B, nil
//	  },
//	)
func NewTypedFunctionTool[A, R any](
	name, description string,
	fn func(ctx context.Context, args A) (R, error),
	optFns ...func(o *Options),
) (*Adapter, error) {
	s, err := schema.For[A]()
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}

	return NewFunctionTool(name, description, s, func(ctx context.Context, raw map[string]any) (any, error) {
		var args A
		if err := decodeArgs(raw, &args); err != nil {
			return nil, NewToolError(name, err.Error(), KindValidation)
		}

		return fn(ctx, args)
	}, optFns...)
}

func withFunctionFamily(o *Options) {
	o.Family = dispatch.MustLookup(dispatch.FamilyFunction)
}

func decodeArgs(raw map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	return nil
}
