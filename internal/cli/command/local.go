// Package command provides CLI command definitions for Larder.
package command

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/larderhq/larder-go/internal/cli/output"
	"github.com/larderhq/larder-go/internal/core/service"
)

// LocalCommand returns the local backup cache subcommand group.
func LocalCommand() *cli.Command {
	return &cli.Command{
		Name:  "local",
		Usage: "Manage the local backup cache",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List cached backups for a tenant, newest first",
				ArgsUsage: "TENANT_ID",
				Action:    localList,
			},
			{
				Name:      "backup",
				Usage:     "Capture a tenant's data into the local cache",
				ArgsUsage: "TENANT_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "label",
						Aliases: []string{"l"},
						Usage:   "Tenant label recorded in the snapshot",
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
				Action: localBackup,
			},
			{
				Name:      "restore",
				Usage:     "Restore a cached backup into a tenant",
				ArgsUsage: "BACKUP_ID",
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
						Value:   "replace",
					},
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation for replace mode",
					},
				},
				Action: localRestore,
			},
		},
	}
}

func localList(c *cli.Context) error {
	tenantID := c.Args().First()
	if tenantID == "" {
		return fmt.Errorf("tenant ID required")
	}

	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := env.svc.ListLocalBackups(ctx, tenantID)
	if err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	if output.Format(flags.Output) == output.FormatJSON {
		summaries := make([]backupSummary, len(entries))
		for i, e := range entries {
			summaries[i] = toSummary(e)
		}
		formatter := &output.JSONFormatter{}
		return formatter.Format(os.Stdout, summaries)
	}

	table := &output.Table{Headers: []string{"BACKUP ID", "CREATED", "RECORDS"}}
	for _, e := range entries {
		records := 0
		if e.Snapshot != nil {
			records = e.Snapshot.TotalRecords()
		}
		table.AddRow(e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), strconv.Itoa(records))
	}
	if err := table.Render(os.Stdout); err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d backup(s)\n", len(entries))
	return nil
}

func localBackup(c *cli.Context) error {
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

	entry, err := env.svc.SaveLocalBackup(ctx, tenantID, label, actorFromFlags(c))
	if err != nil {
		return err
	}

	fmt.Printf("Backup %s saved (%d records).\n", entry.ID, entry.Snapshot.TotalRecords())
	return nil
}

func localRestore(c *cli.Context) error {
	backupID := c.Args().First()
	if backupID == "" {
		return fmt.Errorf("backup ID required")
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

	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := env.svc.RestoreLocalBackup(ctx, backupID, tenantID, mode)
	if err != nil {
		return err
	}

	printImportResult(c, res)
	if len(res.Errors) > 0 {
		return cli.Exit("restore completed with errors", 1)
	}
	return nil
}

// backupSummary is the machine-readable shape for local list.
type backupSummary struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	CreatedAt time.Time `json:"createdAt"`
	Records   int       `json:"records"`
}

func toSummary(e *service.BackupEntry) backupSummary {
	s := backupSummary{ID: e.ID, TenantID: e.TenantID, CreatedAt: e.CreatedAt}
	if e.Snapshot != nil {
		s.Records = e.Snapshot.TotalRecords()
	}
	return s
}

// sortedKeys returns map keys in stable order for display.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
