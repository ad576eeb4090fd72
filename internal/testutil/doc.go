// Package testutil contains fake agents and result builders used across tests
// to reduce boilerplate when exercising adapters, dispatch families and the
// MCP server. They are not intended for production usage.
package testutil
