package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"medialib/internal/usecase"
)

var backupOutput string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export every item as JSON",
	Long: `Export the whole library, oldest first, in the format restore reads.

Examples:
  medialib backup                  # writes library_backup_<date>.json
  medialib backup -o -             # writes to stdout`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Replace the library from a backup file",
	Long: `Wipe the library and the vector index, then insert and re-embed every item
of the backup. Invalid items are skipped and reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add items from a JSON file without wiping",
	Long: `Append every item of the file to the library. The file holds either an array
of items or an object with an "items" array. Existing items are kept and every
imported item gets a new id.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(importCmd)
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "output file, - for stdout")
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, GetConfig(), GetRootDir(), 0)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.catalog.Backup(ctx)
	if err != nil {
		return err
	}
	data, err := usecase.EncodeBackup(records)
	if err != nil {
		return err
	}

	if backupOutput == "-" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	path := backupOutput
	if path == "" {
		path = fmt.Sprintf("library_backup_%s.json", time.Now().UTC().Format("2006-01-02"))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	fmt.Printf("Exported %d items to %s\n", len(records), path)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, GetConfig(), GetRootDir(), 0)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.sync.RestoreJSON(ctx, data, newProgress("Restoring"))
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Printf("\nRestore complete:\n")
	fmt.Printf("  Items restored: %d\n", result.Inserted)
	if len(result.Failed) > 0 {
		fmt.Printf("  Items skipped:  %d\n\nSkipped:\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Printf("  - #%d %s: %s\n", f.Index, f.ID, f.Reason)
		}
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Items json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return fmt.Errorf("failed to parse import file: %w", err)
		}
		data = wrapped.Items
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, GetConfig(), GetRootDir(), 0)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.catalog.ImportJSON(ctx, data, newProgress("Importing"))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("\nImport complete:\n")
	fmt.Printf("  Items imported: %d\n", result.SuccessCount)
	if result.FailureCount > 0 {
		fmt.Printf("  Items failed:   %d\n\nFailed:\n", result.FailureCount)
		for _, f := range result.Errors {
			fmt.Printf("  - #%d %s: %s\n", f.Index, f.Title, f.Error)
		}
	}
	return nil
}
