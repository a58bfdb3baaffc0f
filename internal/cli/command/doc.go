// Package command provides CLI command definitions for Larder.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, local storage setup
//   - export.go: Snapshot export to a file
//   - validate.go: Snapshot file validation
//   - importcmd.go: Snapshot import from a file
//   - local.go: Local backup cache subcommand group
//
// Commands follow a consistent pattern of parsing flags, calling the
// backup service against the local data directory, and formatting
// output.
package command
