package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/retail-eda/internal/export"
	"github.com/sells-group/retail-eda/internal/insights"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:   "inspect <source>",
	Short: "Profile a raw table before cleaning",
	Long: `Prints the initial data check of a raw source: every column with its
inferred kind and missing-value count, numeric statistics for columns that
parse as numbers, and unique/top/freq for text columns.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("inspect"); err != nil {
			return err
		}
		format, err := export.ParseReportFormat(inspectFormat)
		if err != nil {
			return err
		}

		log := zap.L().With(zap.String("run_id", uuid.NewString()))
		raw, err := loadRaw(cmd.Context(), log, args[0], loadOptions())
		if err != nil {
			return err
		}

		profiles := insights.Profile(*raw, cleanOptions())
		if format == export.FormatText {
			return export.WriteProfileText(cmd.OutOrStdout(), profiles, len(raw.Rows))
		}
		return export.WriteStructured(cmd.OutOrStdout(), format, profiles)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(inspectCmd)
}
