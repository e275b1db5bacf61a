package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/retail-eda/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "retail-eda",
	Short: "Clean and explore retail transaction tables",
	Long:  "Loads raw retail sales exports (CSV, TSV, XLSX, JSON or ZIP, from disk, HTTP or FTP), normalizes them into a typed table, and reports aggregates and key insights.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
