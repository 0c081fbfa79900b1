package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchText string
	searchMax  int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Semantic search over the library",
	Long: `Search the library by meaning and explain each match.

Examples:
  medialib search -q "melancholic sci-fi about memory"
  medialib search -q "heist" --max 5 --json`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchMax, "max", "n", 0, "maximum results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, GetConfig(), GetRootDir(), 0)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.searcher.Search(ctx, searchText, searchMax)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No relevant items found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), searchText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s (%s, distance: %.3f) ---\n", i+1, r.Title, r.Type, r.RelevanceScore)
		fmt.Println(r.Explanation)
		fmt.Println()
	}
	return nil
}
