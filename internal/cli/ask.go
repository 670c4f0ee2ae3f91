package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/raphaelgruber/cognee-viewer/internal/session"
	"github.com/spf13/cobra"
)

var (
	askRaw        bool
	askOutputFile string
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Ask a question against the current dataset",
	Long: `Ask a question and get an answer synthesized from the knowledge graph
of the current dataset.

If no dataset is configured yet, the default dataset ("main_dataset") is
looked up by name and saved. Answers are rendered as markdown when writing
to a terminal.

Examples:
  cognee-viewer ask "What is in the onboarding guide?"
  cognee-viewer ask "Summarize the architecture" --raw
  cognee-viewer ask "List all services" -o services.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "print the answer without markdown rendering")
	askCmd.Flags().StringVarP(&askOutputFile, "output", "o", "", "write the answer to file")
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx := context.Background()

	sess, _ := newSession()
	if err := requireDataset(ctx, sess); err != nil {
		return err
	}

	entry, ok := sess.Submit(ctx, query)
	if !ok {
		return errors.New("query is empty")
	}
	if strings.HasPrefix(entry.Response, session.ErrorPrefix) {
		return fmt.Errorf("search: %s", strings.TrimPrefix(entry.Response, session.ErrorPrefix))
	}

	if askOutputFile != "" {
		if err := os.WriteFile(askOutputFile, []byte(entry.Response+"\n"), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("Answer written to %s\n", askOutputFile)
		return nil
	}

	if askRaw || !isInteractive() {
		fmt.Println(entry.Response)
		return nil
	}
	fmt.Println(renderMarkdown(entry.Response, terminalWidth()))
	return nil
}

// requireDataset bootstraps the session and fails when no dataset could be
// resolved without asking the user.
func requireDataset(ctx context.Context, sess *session.Session) error {
	if sess.Bootstrap(ctx) == session.StatePromptingUser {
		return fmt.Errorf("no dataset selected: run 'cognee-viewer datasets' and 'cognee-viewer use <dataset>'")
	}
	return nil
}
