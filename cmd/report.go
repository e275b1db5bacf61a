package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/retail-eda/internal/export"
	"github.com/sells-group/retail-eda/internal/insights"
	"github.com/sells-group/retail-eda/internal/normalize"
)

var reportFormat string

// reportOutput is the structured form of the report command.
type reportOutput struct {
	Cleaning normalize.Report `json:"cleaning" yaml:"cleaning"`
	Analysis insights.Report  `json:"analysis" yaml:"analysis"`
}

var reportCmd = &cobra.Command{
	Use:   "report <source>",
	Short: "Clean a table and print aggregates and key insights",
	Long: `Normalizes the source, then prints the correlation matrix of the numeric
columns, total sales by date and by category, the quantity distribution per
payment method, discount usage and the key insights.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportFormat != "" {
			cfg.Output.ReportFormat = reportFormat
		}
		if err := cfg.Validate("report"); err != nil {
			return err
		}
		format, err := export.ParseReportFormat(cfg.Output.ReportFormat)
		if err != nil {
			return err
		}

		log := zap.L().With(zap.String("run_id", uuid.NewString()))
		tb, rep, err := loadClean(cmd.Context(), log, args[0], loadOptions())
		if err != nil {
			return err
		}

		analysis := insights.Build(tb)
		if format == export.FormatText {
			return export.WriteReportText(cmd.OutOrStdout(), analysis)
		}
		return export.WriteStructured(cmd.OutOrStdout(), format, reportOutput{Cleaning: rep, Analysis: analysis})
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "", "output format: text, json or yaml (default: output.report_format)")
	rootCmd.AddCommand(reportCmd)
}
