// Package command provides CLI command definitions for Larder.
package command

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/larderhq/larder-go/internal/cli/output"
	"github.com/larderhq/larder-go/internal/core/service"
	"github.com/larderhq/larder-go/internal/storage/snapfile"
)

// ImportCommand returns the import command.
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a snapshot file into a tenant",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tenant",
				Aliases:  []string{"t"},
				Usage:    "Target tenant ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Import mode: merge or replace",
				Value:   "merge",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Skip confirmation for replace mode",
			},
		},
		Action: importAction,
	}
}

func importAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("snapshot file required")
	}
	tenantID := c.String("tenant")

	mode, err := service.ParseImportMode(c.String("mode"))
	if err != nil {
		return err
	}

	if mode == service.ImportModeReplace && !c.Bool("force") {
		fmt.Printf("This will replace collections for tenant '%s'. Type '%s' to confirm: ", tenantID, tenantID)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != tenantID {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	snap, err := snapfile.Read(path)
	if err != nil {
		return err
	}

	if result := service.ValidateSnapshot(snap); !result.IsValid {
		for _, e := range result.Errors {
			PrintError("%s", e)
		}
		return cli.Exit("snapshot is invalid", 1)
	}

	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := env.svc.Import(ctx, snap, tenantID, mode)
	if err != nil {
		return err
	}

	printImportResult(c, res)
	if len(res.Errors) > 0 {
		return cli.Exit("import completed with errors", 1)
	}
	return nil
}

func printImportResult(c *cli.Context, res *service.ImportResult) {
	flags := ParseGlobalFlags(c)
	if output.Format(flags.Output) == output.FormatJSON {
		formatter := &output.JSONFormatter{}
		formatter.Format(os.Stdout, res)
		return
	}

	table := &output.Table{Headers: []string{"COLLECTION", "IMPORTED"}}
	for _, name := range sortedKeys(res.Imported) {
		table.AddRow(name, strconv.Itoa(res.Imported[name]))
	}
	table.Render(os.Stdout)

	if len(res.Errors) > 0 {
		fmt.Printf("\n%d error(s):\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}
