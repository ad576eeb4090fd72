package dispatch

import (
	"fmt"
	"slices"
	"sort"
)

// Built-in family names.
const (
	FamilyGeneric       = "generic"
	FamilyFunction      = "function"
	FamilyLangGraph     = "langgraph"
	FamilyCrewAI        = "crewai"
	FamilyCrewAITool    = "crewai_tool"
	FamilyLangChainTool = "langchain_tool"
	FamilyLlamaIndex    = "llamaindex"
	FamilyOpenAI        = "openai"
	FamilyPydantic      = "pydantic"
	FamilyMCPAgent      = "mcp_agent"
)

// FinalOutputter is implemented by run results that carry a final answer.
type FinalOutputter interface {
	FinalOutput() any
}

// DataCarrier is implemented by run results that carry typed data.
type DataCarrier interface {
	Data() any
}

// RawCarrier is implemented by run results that carry an untyped payload.
type RawCarrier interface {
	Raw() any
}

// UnwrapFinalOutput returns v.FinalOutput() when available.
func UnwrapFinalOutput(v any) any {
	if fo, ok := v.(FinalOutputter); ok {
		return fo.FinalOutput()
	}

	return v
}

// UnwrapData returns v.Data(), else v.Raw(), else v.
func UnwrapData(v any) any {
	if d, ok := v.(DataCarrier); ok {
		return d.Data()
	}

	if r, ok := v.(RawCarrier); ok {
		return r.Raw()
	}

	return v
}

var families = map[string]*Family{
	FamilyGeneric: {
		Name: FamilyGeneric,
		Strategies: []Strategy{
			{CapabilityAInvoke, Mapping},
			{CapabilityInvoke, Mapping},
			{CapabilityRun, Mapping},
			{CapabilityCall, Mapping},
			{CapabilityExecute, Mapping},
			{CapabilityChat, QueryValue},
			{CapabilityQuery, QueryValue},
			{CapabilityKickoff, Inputs},
		},
	},
	FamilyFunction: {
		Name: FamilyFunction,
		Strategies: []Strategy{
			{CapabilityInvoke, Mapping},
			{CapabilityCall, Mapping},
		},
	},
	FamilyLangGraph: {
		Name: FamilyLangGraph,
		Strategies: []Strategy{
			{CapabilityAInvoke, Mapping},
			{CapabilityInvoke, Mapping},
			{CapabilityRun, Mapping},
			{CapabilityCall, Mapping},
		},
	},
	FamilyCrewAI: {
		Name: FamilyCrewAI,
		Strategies: []Strategy{
			{CapabilityKickoff, Inputs},
		},
	},
	FamilyCrewAITool: {
		Name: FamilyCrewAITool,
		Strategies: []Strategy{
			{CapabilityRun, Mapping},
			{CapabilityCall, Mapping},
		},
	},
	FamilyLangChainTool: {
		Name: FamilyLangChainTool,
		Strategies: []Strategy{
			{CapabilityRun, Mapping},
			{CapabilityInvoke, Mapping},
			{CapabilityCall, Mapping},
		},
	},
	FamilyLlamaIndex: {
		Name: FamilyLlamaIndex,
		Strategies: []Strategy{
			{CapabilityRun, Positional},
			{CapabilityChat, QueryValue},
			{CapabilityQuery, QueryValue},
		},
	},
	FamilyOpenAI: {
		Name: FamilyOpenAI,
		Strategies: []Strategy{
			{CapabilityRun, Positional},
		},
		Unwrap: UnwrapFinalOutput,
	},
	FamilyPydantic: {
		Name: FamilyPydantic,
		Strategies: []Strategy{
			{CapabilityRun, QueryValue},
		},
		Unwrap: UnwrapData,
	},
	FamilyMCPAgent: {
		Name: FamilyMCPAgent,
		Strategies: []Strategy{
			{CapabilityQuery, QueryValue},
			{CapabilityChat, QueryValue},
		},
	},
}

// Lookup returns a copy of the built-in family with the given name.
func Lookup(name string) (*Family, error) {
	f, ok := families[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent family %q (known: %v)", name, Families())
	}

	return &Family{Name: f.Name, Strategies: slices.Clone(f.Strategies), Unwrap: f.Unwrap}, nil
}

// MustLookup is like Lookup but panics for unknown names.
func MustLookup(name string) *Family {
	f, err := Lookup(name)
	if err != nil {
		panic(err)
	}

	return f
}

// Families returns the names of the built-in families, sorted.
func Families() []string {
	names := make([]string, 0, len(families))
	for n := range families {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
