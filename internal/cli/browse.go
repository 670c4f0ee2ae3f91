package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/cognee-viewer/internal/browser"
	"github.com/raphaelgruber/cognee-viewer/internal/client"
	"github.com/raphaelgruber/cognee-viewer/internal/models"
	"github.com/raphaelgruber/cognee-viewer/internal/parser"
	"github.com/spf13/cobra"
)

var (
	browseSort    string
	browseAsc     bool
	browseDataset string
	browseRaw     bool
	browseOutline bool
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List the data items of the current dataset",
	Long: `List the documents ingested into the current dataset.

Items are sorted by last update (newest first) unless --sort is given.

Subcommands:
  show  Print the raw content of one item

Examples:
  cognee-viewer browse
  cognee-viewer browse --sort name --asc
  cognee-viewer browse show 5b0e2c1d-7a44-4f0b-8e55-1c9d3a6f2b10
  cognee-viewer browse show 5b0e2c1d-7a44-4f0b-8e55-1c9d3a6f2b10 --outline`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

var browseShowCmd = &cobra.Command{
	Use:   "show <item-id>",
	Short: "Print the content of a data item",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrowseShow,
}

func init() {
	browseCmd.PersistentFlags().StringVarP(&browseDataset, "dataset", "d", "", "dataset ID (default: configured dataset)")
	browseCmd.Flags().StringVarP(&browseSort, "sort", "s", "updated", "sort by: name, created, updated")
	browseCmd.Flags().BoolVar(&browseAsc, "asc", false, "sort ascending")
	browseShowCmd.Flags().BoolVar(&browseRaw, "raw", false, "print content without markdown rendering")
	browseShowCmd.Flags().BoolVar(&browseOutline, "outline", false, "print only the heading outline")

	browseCmd.AddCommand(browseShowCmd)
}

// newBrowser creates a browser for the --dataset flag or the configured dataset.
func newBrowser() (*browser.Browser, error) {
	c := store.Load()
	datasetID := c.Dataset
	if browseDataset != "" {
		datasetID = browseDataset
	}
	if datasetID == "" {
		return nil, errors.New("no dataset selected: run 'cognee-viewer use <dataset>' or pass --dataset")
	}
	api := client.New(resolveServerURL(c), clientOptions()...)
	return browser.New(api, datasetID, logger), nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	key, ok := browser.ParseSortKey(browseSort)
	if !ok {
		return fmt.Errorf("invalid sort key %q (valid: name, created, updated)", browseSort)
	}
	order := browser.Descending
	if browseAsc {
		order = browser.Ascending
	}

	b, err := newBrowser()
	if err != nil {
		return err
	}
	if err := b.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", browser.ItemsErrorText, err)
	}
	b.SetSorter(browser.Sorter{Key: key, Order: order})

	items := b.Items()
	if len(items) == 0 {
		fmt.Println("No data items found.")
		return nil
	}

	fmt.Printf("Data items (%d):\n\n", len(items))
	for _, item := range items {
		printItem(item)
	}

	return nil
}

func printItem(item models.DataItem) {
	fmt.Printf("- %s\n", item.Title())
	fmt.Printf("  ID: %s\n", item.ID)
	if item.MimeType != "" {
		fmt.Printf("  Type: %s\n", item.MimeType)
	}
	fmt.Printf("  Created: %s  Updated: %s\n", item.CreatedAt.Format(), item.UpdatedAt.Format())
}

func runBrowseShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	itemID := args[0]

	b, err := newBrowser()
	if err != nil {
		return err
	}
	if err := b.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", browser.ItemsErrorText, err)
	}

	content, ok := b.Select(ctx, itemID)
	if !ok {
		return fmt.Errorf("data item not found: %s", itemID)
	}

	if browseOutline {
		doc := parser.Parse(content)
		if len(doc.Outline) == 0 {
			fmt.Println("No headings found.")
			return nil
		}
		fmt.Print(doc.OutlineText())
		return nil
	}

	item, _ := b.Selected()
	render := !browseRaw && isInteractive()
	if render {
		fmt.Println(itemHeading(item, content))
		fmt.Println()
	}
	fmt.Println(formatItemContent(item, content, terminalWidth(), render))
	return nil
}
