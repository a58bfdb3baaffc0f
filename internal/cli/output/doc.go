// Package output provides output formatting for larder-cli.
//
// This package handles all CLI output formatting:
//
//   - formatter.go: Formatter interface and factory
//   - table.go: Table rendering via text/tabwriter
//   - json.go: JSON output formatting
//
// Formatters support table output for humans and machine-readable JSON
// for scripting.
package output
