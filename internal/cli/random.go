package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var randomJSON bool

var randomCmd = &cobra.Command{
	Use:   "random [mood...]",
	Short: "Pick something from the library",
	Long: `Pick the item closest to an optional mood, or one at random, with a short pitch.

Examples:
  medialib random
  medialib random cozy rainy day anime`,
	RunE: runRandom,
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance <query...>",
	Short: "Rewrite a query into search keywords",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEnhance,
}

func init() {
	rootCmd.AddCommand(randomCmd)
	rootCmd.AddCommand(enhanceCmd)
	randomCmd.Flags().BoolVar(&randomJSON, "json", false, "output as JSON")
}

func runRandom(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, GetConfig(), GetRootDir(), 0)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.recommend.Recommend(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if randomJSON {
		output, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	fmt.Printf("%s (%s)\n\n%s\n", rec.Item.Title, rec.Item.Type, rec.Reason)
	return nil
}

func runEnhance(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, GetConfig(), GetRootDir(), 0)
	if err != nil {
		return err
	}
	defer a.Close()

	enhanced, err := a.enhance.Enhance(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(enhanced.Enhanced)
	return nil
}
