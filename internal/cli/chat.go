package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/cognee-viewer/internal/session"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	Long: `Start an interactive chat with the current dataset.

On first start the default dataset ("main_dataset") is selected
automatically; if it does not exist, the dataset selector opens.

Keys:
  enter   send the question
  ctrl+s  settings (server URL, dataset, system prompt)
  ctrl+d  select a dataset
  ctrl+b  browse the data items of the dataset
  esc     close the open dialog
  ctrl+c  quit

When stdin is not a terminal, questions are read line by line and answers
are printed to stdout.

Examples:
  cognee-viewer chat
  echo "What is in the handbook?" | cognee-viewer chat`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, be := newSession()

	if !isInteractive() {
		return runLineChat(ctx, sess, os.Stdin, os.Stdout)
	}

	model := newChatModel(ctx, sess, be, logger)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}

// runLineChat answers one question per input line until in is exhausted.
func runLineChat(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) error {
	if err := requireDataset(ctx, sess); err != nil {
		return err
	}

	c := sess.Config()
	fmt.Fprintf(out, "Chatting with dataset %s (%s)\n", c.DatasetName, c.Dataset)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		entry, ok := sess.Submit(ctx, scanner.Text())
		if !ok {
			continue
		}
		fmt.Fprintf(out, "%s\n\n", entry.Response)
	}
	fmt.Fprintln(out)

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
