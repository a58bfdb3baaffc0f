// Package command provides CLI command definitions for Larder.
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/larderhq/larder-go/internal/storage/snapfile"
)

// ExportCommand returns the export command.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a tenant's data to a snapshot file",
		ArgsUsage: "TENANT_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "label",
				Aliases: []string{"l"},
				Usage:   "Tenant label used in the snapshot and derived filename",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Output file (default: derived from label and date)",
			},
			&cli.StringFlag{
				Name:  "actor-id",
				Usage: "Acting identity recorded in the snapshot",
			},
			&cli.StringFlag{
				Name:  "actor-label",
				Usage: "Acting identity label recorded in the snapshot",
			},
		},
		Action: exportAction,
	}
}

func exportAction(c *cli.Context) error {
	tenantID := c.Args().First()
	if tenantID == "" {
		return fmt.Errorf("tenant ID required")
	}

	label := c.String("label")
	if label == "" {
		label = tenantID
	}

	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := env.svc.Export(ctx, tenantID, label, actorFromFlags(c))
	if err != nil {
		return err
	}

	path := c.String("file")
	if path == "" {
		path = snapfile.Filename(label, snap.ExportedAt)
	}

	if err := snapfile.Write(path, snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	fmt.Printf("Snapshot written to %s (%d records)\n", path, snap.TotalRecords())
	return nil
}
