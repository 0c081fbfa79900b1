package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index from the record store",
	Long: `Wipe the vector collection and re-embed every stored item. Run this after
changing the embedding model, or to repair an index that drifted.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, GetConfig(), GetRootDir(), 0)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Embedding with %s...\n", a.embedder.ModelName())
	result, err := a.sync.Reindex(ctx, newProgress("Indexing"))
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Printf("\nReindex complete:\n")
	fmt.Printf("  Items indexed: %d\n", result.Inserted)
	if len(result.Failed) > 0 {
		fmt.Printf("  Items failed:  %d\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Printf("  - %s: %s\n", f.ID, f.Reason)
		}
	}
	return nil
}
