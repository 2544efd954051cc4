package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
// Bare letta-code starts the interactive console.
var rootCmd = &cobra.Command{
	Use:   "letta-code",
	Short: "Paste-aware terminal console for chatting with language models",
	Long: `Letta Code is a terminal console for talking to Large Language Models.
Its input line understands bracketed paste, folds oversized pastes into
compact [Pasted text #N +M lines] placeholders that expand again on submit,
batches multi-byte input from IMEs, and supports word-wise editing
sequences from common terminals.

Available commands:
  chat     - Start the interactive console (the default)
  models   - List the model catalog or seed an editable copy
  history  - Show or clear saved prompts
  version  - Print version information

Running letta-code without a subcommand starts the console.`,
	RunE: runChat,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
