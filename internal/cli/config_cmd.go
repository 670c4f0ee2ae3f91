package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	setServerURL    string
	setDataset      string
	setDatasetName  string
	setSystemPrompt string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the saved configuration",
	Long: `Show or change the saved viewer configuration.

Subcommands:
  show  Print the configuration as YAML
  set   Change one or more fields

Examples:
  cognee-viewer config show
  cognee-viewer config set --server-url http://localhost:8200
  cognee-viewer config set --system-prompt "Answer in one paragraph."`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change configuration fields",
	Long: `Change configuration fields. Fields whose flag is not given keep their
current value; the whole record is saved at once.`,
	Args: cobra.NoArgs,
	RunE: runConfigSet,
}

func init() {
	configSetCmd.Flags().StringVar(&setServerURL, "server-url", "", "backend or proxy URL")
	configSetCmd.Flags().StringVar(&setDataset, "dataset", "", "dataset ID")
	configSetCmd.Flags().StringVar(&setDatasetName, "dataset-name", "", "dataset display name")
	configSetCmd.Flags().StringVar(&setSystemPrompt, "system-prompt", "", "system prompt sent with every search")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out, err := yaml.Marshal(store.Load())
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	c := store.Load()
	flags := cmd.Flags()

	changed := false
	if flags.Changed("server-url") {
		c.ServerURL = setServerURL
		changed = true
	}
	if flags.Changed("dataset") {
		c.Dataset = setDataset
		changed = true
	}
	if flags.Changed("dataset-name") {
		c.DatasetName = setDatasetName
		changed = true
	}
	if flags.Changed("system-prompt") {
		c.SystemPrompt = setSystemPrompt
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to change: pass at least one of --server-url, --dataset, --dataset-name, --system-prompt")
	}

	if err := store.Save(c); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}

	fmt.Println("Configuration saved.")
	return nil
}
