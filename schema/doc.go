// Package schema parses untyped tool arguments into validated parameters.
//
// A Schema is either a plain list of fields, each with its own Validator
// (Fields), or a structured JSON Schema document (FromJSON, FromValue, For).
// Parse accepts a single object keyed by field name or a positional list of
// values mapped onto the schema's declared field order. Failures are reported
// as a *ValidationError carrying one "fieldPath: reason" issue per violation.
package schema
