package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"medialib/internal/domain"
)

var autofillSave bool

var autofillCmd = &cobra.Command{
	Use:   "autofill <type> <title...>",
	Short: "Draft an item's details with the generator",
	Long: `Ask the generation provider for the synopsis, keywords and metadata of a title
and print the draft as JSON. With --save the draft is added to the library.

Examples:
  medialib autofill movie Blade Runner 2049
  medialib autofill manhwa Solo Leveling --save`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAutofill,
}

func init() {
	rootCmd.AddCommand(autofillCmd)
	autofillCmd.Flags().BoolVar(&autofillSave, "save", false, "add the draft to the library")
}

func runAutofill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, GetConfig(), GetRootDir(), 0)
	if err != nil {
		return err
	}
	defer a.Close()

	draft, err := a.autofill.Autofill(ctx, strings.Join(args[1:], " "), domain.MediaType(args[0]))
	if err != nil {
		return err
	}

	if !autofillSave {
		output, _ := json.MarshalIndent(draft, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	rec := domain.CatalogRecord{
		Title:    draft.Title,
		Type:     draft.Type,
		Synopsis: draft.Synopsis,
		Keywords: draft.Keywords,
		Metadata: draft.Metadata,
	}
	if draft.CoverImageURL != "" {
		rec.CoverImage = &draft.CoverImageURL
	}
	created, err := a.catalog.Create(ctx, rec)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s (%s) as %s\n", created.Title, created.Type, created.ID)
	return nil
}
