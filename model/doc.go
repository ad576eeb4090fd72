// Package model defines the provider agnostic abstraction for language
// models and an Agent that exposes a model through the chat and query
// capabilities, so an LLM can be published as a tool like any other agent.
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface in their
// own sub-packages so the rest of the module stays decoupled from vendor SDKs.
package model
