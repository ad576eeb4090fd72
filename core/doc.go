// Package core provides the foundational domain types shared by every layer:
//
//   - ToolResult, the uniform response envelope (text blocks, optional
//     structured content, resource links, error flag)
//   - Outcome, the tagged per-call result of validation, dispatch and
//     serialization before it is rendered into a ToolResult
//
// The package has no dependencies on the rest of the module.
package core
