package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/cognee-viewer/internal/models"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List datasets on the backend",
	Long: `List all datasets, most recently updated first.

The currently selected dataset is marked with '*'.

Examples:
  cognee-viewer datasets
  cognee-viewer datasets --server http://localhost:8200`,
	Args: cobra.NoArgs,
	RunE: runDatasets,
}

var useCmd = &cobra.Command{
	Use:   "use <id-or-name>",
	Short: "Select the dataset to chat with",
	Long: `Select a dataset by ID or exact name and save it in the configuration.

Examples:
  cognee-viewer use main_dataset
  cognee-viewer use 3f1c9a52-8d3e-4b7e-9c0a-2b5d8f6e1a77`,
	Args: cobra.ExactArgs(1),
	RunE: runUse,
}

func runDatasets(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sess, be := newSession()
	datasets, err := sess.ListDatasets(ctx)
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}

	if len(datasets) == 0 {
		fmt.Println("No datasets found.")
		return nil
	}

	current := sess.Config().Dataset
	fmt.Printf("Datasets on %s (%d):\n\n", be.BaseURL(), len(datasets))
	for _, d := range datasets {
		marker := " "
		if d.ID == current {
			marker = "*"
		}
		fmt.Printf("%s %-30s %s  updated %s\n", marker, d.Name, d.ID, d.UpdatedAt.Format())
	}

	return nil
}

func runUse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ref := args[0]

	sess, _ := newSession()
	datasets, err := sess.ListDatasets(ctx)
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}

	d, ok := findDataset(datasets, ref)
	if !ok {
		return fmt.Errorf("dataset not found: %s", ref)
	}

	if err := sess.SelectDataset(d.ID, d.Name); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}

	fmt.Printf("Using dataset %s (%s)\n", d.Name, d.ID)
	return nil
}

// findDataset resolves ref as an ID first, then as an exact name.
func findDataset(datasets []models.Dataset, ref string) (models.Dataset, bool) {
	if d, ok := models.FindDataset(datasets, ref); ok {
		return d, true
	}
	return models.FindDatasetByName(datasets, ref)
}
