package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/greenstash/greenstash/internal/app"
	"github.com/greenstash/greenstash/internal/service"
	"github.com/spf13/cobra"
)

func ExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of all goals to a file or stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				text, err := a.BackupService.Export(cmd.Context())
				if err != nil {
					return err
				}

				if output == "" {
					_, err = io.WriteString(cmd.OutOrStdout(), text+"\n")
					return err
				}

				err = os.WriteFile(output, []byte(text), 0o600)
				if err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "==> Backup written to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout, suggested name "+service.ExportFilename(time.Now())+")")
	return cmd
}

func ImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the goals from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			return withApp(func(a *app.App) error {
				result, err := a.BackupService.Import(cmd.Context(), string(data))
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func printResult(w io.Writer, result *service.ImportResult) {
	fmt.Fprintf(w, "Imported %d goals with %d transactions (schema v%d, taken %s)\n",
		result.Goals, result.Transactions, result.Version,
		time.UnixMilli(result.Timestamp).UTC().Format(time.RFC3339))
	if result.ImagesDropped > 0 {
		fmt.Fprintf(w, "%d corrupt images were dropped\n", result.ImagesDropped)
	}
}

func SnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store a backup in object storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				b, err := a.BackupService.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s stored at %s (%d goals, %d bytes)\n", b.ID, b.StoragePath, b.GoalCount, b.Size)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				backups, err := a.BackupService.Snapshots()
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tGOALS\tSIZE\tVERSION")
				for _, b := range backups {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", b.ID, b.CreatedAt.Format(time.RFC3339), b.GoalCount, b.Size, b.SchemaVersion)
				}
				return tw.Flush()
			})
		},
	})

	return cmd
}

func RestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot-id>",
		Short: "Import a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				result, err := a.BackupService.Restore(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
}
