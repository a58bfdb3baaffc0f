// Package command provides CLI command definitions for Larder.
package command

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/larderhq/larder-go/internal/cli/output"
	"github.com/larderhq/larder-go/internal/core/domain"
	"github.com/larderhq/larder-go/internal/core/service"
	"github.com/larderhq/larder-go/internal/storage/snapfile"
)

// ValidateCommand returns the validate command.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a snapshot file without importing it",
		ArgsUsage: "FILE",
		Action:    validateAction,
	}
}

func validateAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("snapshot file required")
	}

	snap, err := snapfile.Read(path)
	if err != nil {
		return err
	}

	result := service.ValidateSnapshot(snap)

	flags := ParseGlobalFlags(c)
	if output.Format(flags.Output) == output.FormatJSON {
		formatter := &output.JSONFormatter{}
		if err := formatter.Format(os.Stdout, result); err != nil {
			return err
		}
	} else {
		printValidation(result)
	}

	if !result.IsValid {
		return cli.Exit("snapshot is invalid", 1)
	}
	return nil
}

func printValidation(result *service.ValidationResult) {
	table := &output.Table{Headers: []string{"COLLECTION", "RECORDS"}}
	for _, name := range domain.CollectionNames() {
		table.AddRow(name, strconv.Itoa(result.Summary[name]))
	}
	table.Render(os.Stdout)

	if result.IsValid {
		fmt.Println("\nSnapshot is valid.")
		return
	}
	fmt.Printf("\n%d problem(s) found:\n", len(result.Errors))
	for _, e := range result.Errors {
		fmt.Printf("  - %s\n", e)
	}
}
