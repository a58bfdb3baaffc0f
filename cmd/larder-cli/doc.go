// Package main provides the entry point for larder-cli.
//
// The CLI tool provides command-line access to a local Larder data
// directory for:
//
//   - Snapshot export to a file
//   - Snapshot file validation
//   - Snapshot import (merge or replace)
//   - Local backup cache management (list, backup, restore)
//
// Usage:
//
//	larder-cli [command] [flags]
//	larder-cli export --label "Our Home" home-1
//	larder-cli local list home-1
package main
