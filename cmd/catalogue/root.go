package main

import (
	"book-catalogue/internal/config"
	xlog "book-catalogue/internal/log"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Library catalogue loader and viewer",
	Long: `Loads the library catalogue from its remote JSON document, repairs malformed
records, caches the result and serves a searchable, filterable list.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		xlog.Configure(xlog.Config{Level: cfg.LogLevel, Output: cmd.ErrOrStderr(), Console: cmd.Name() != "serve"})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
}
