package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zetzet7298/letta-code/pkg/clipboard"
	"github.com/zetzet7298/letta-code/pkg/configuration"
	"github.com/zetzet7298/letta-code/pkg/console"
	"github.com/zetzet7298/letta-code/pkg/history"
	"github.com/zetzet7298/letta-code/pkg/models"
	"github.com/zetzet7298/letta-code/pkg/pastestore"
	"github.com/zetzet7298/letta-code/pkg/utils"
)

var (
	chatModel     string
	pasteMaxChars int
	pasteMaxLines int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive console",
	Long: `Start the interactive console.

Type a message and press Enter to send it to the active model. Pastes over
the configured thresholds are folded into [Pasted text #N +M lines]
placeholders and expanded again at submission time, so multi-hundred-line
pastes never swamp the prompt. /help inside the console lists the
available commands.`,
	RunE: runChat,
}

func init() {
	registerChatFlags(chatCmd)
	// The same flags work on the bare root invocation.
	registerChatFlags(rootCmd)
	rootCmd.AddCommand(chatCmd)
}

func registerChatFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&chatModel, "model", "m", "", "Model to start with (overrides the saved selection)")
	cmd.Flags().IntVar(&pasteMaxChars, "paste-max-chars", 0, "Inline pastes up to this many characters (default 500)")
	cmd.Flags().IntVar(&pasteMaxLines, "paste-max-lines", 0, "Inline pastes up to this many lines (default 5)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := configuration.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if pasteMaxChars > 0 {
		cfg.PasteMaxChars = pasteMaxChars
	}
	if pasteMaxLines > 0 {
		cfg.PasteMaxLines = pasteMaxLines
	}
	if chatModel != "" {
		cfg.LastUsedModel = chatModel
	}

	catalog, err := openCatalog(cfg)
	if err != nil {
		return err
	}

	historyPath, err := cfg.ResolveHistoryPath()
	if err != nil {
		return err
	}
	hist := history.NewManager(historyPath, cfg.HistorySize)
	if err := hist.Load(); err != nil {
		// A corrupt history file should not keep the console from starting.
		utils.GetLogger().LogError(err)
	}

	session := console.NewSession(console.SessionConfig{
		Input:         os.Stdin,
		Output:        os.Stdout,
		Config:        cfg,
		Catalog:       catalog,
		History:       hist,
		Registry:      pastestore.NewRegistry(),
		Translator:    clipboard.NewTranslator(),
		MaxPasteChars: cfg.PasteMaxChars,
		MaxPasteLines: cfg.PasteMaxLines,
	})
	return session.Run()
}

// openCatalog loads the model catalog from the configured path. A missing
// file is fine, the embedded default set is used until one appears.
func openCatalog(cfg *configuration.Config) (*models.Catalog, error) {
	modelsPath, err := cfg.ResolveModelsPath()
	if err != nil {
		return nil, err
	}
	catalog := models.NewCatalog(modelsPath)
	if err := catalog.Load(); err != nil {
		return nil, err
	}
	return catalog, nil
}
