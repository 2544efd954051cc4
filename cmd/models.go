package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zetzet7298/letta-code/pkg/configuration"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the available models",
	Long: `List the models the console can talk to.

The catalog is read from the models file under the configuration directory
(default ~/.letta/models.json) and falls back to a built-in set when that
file does not exist. The console picks up edits to the file while running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configuration.Load()
		if err != nil {
			return err
		}
		catalog, err := openCatalog(cfg)
		if err != nil {
			return err
		}
		for _, m := range catalog.Models() {
			marker := "  "
			if m.ID == cfg.LastUsedModel {
				marker = "* "
			}
			fmt.Printf("%s%-24s %-10s %s\n", marker, m.ID, m.Provider, m.Description)
		}
		return nil
	},
}

var modelsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default model catalog to an editable file",
	Long: `Write the built-in model catalog to the configured models file so it
can be edited. An existing file is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configuration.Load()
		if err != nil {
			return err
		}
		catalog, err := openCatalog(cfg)
		if err != nil {
			return err
		}
		if err := catalog.SeedFile(); err != nil {
			return err
		}
		fmt.Printf("Model catalog at %s\n", catalog.Path())
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsInitCmd)
	rootCmd.AddCommand(modelsCmd)
}
