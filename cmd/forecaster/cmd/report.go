package cmd

import (
	"fmt"
	"os"
	"strings"

	"golang-forecast-engine/cmd/forecaster/config"
	"golang-forecast-engine/internal/fiscal"
	"golang-forecast-engine/internal/loader"
	"golang-forecast-engine/internal/mapper"
	"golang-forecast-engine/internal/pivot"
	"golang-forecast-engine/internal/reporter"
	"golang-forecast-engine/internal/schema"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the report command
var (
	reportInputFile    string
	reportMappingFile  string
	reportFromPeriod   string
	reportToPeriod     string
	reportGroupBy      string
	reportMeasures     []string
	reportStartMonth   int
	reportOutputFormat string
	reportOutputFile   string
	reportDelimiter    string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate an export into a fiscal-period pivot report",
	Long: `Report maps an export's columns, resolves each record's period onto the
fiscal calendar, and sums the requested measures into a dense
quarter-by-dimension table with a derived total column.

Records whose period cannot be resolved, or falls outside the requested
range, are excluded and counted in the record summary.

Examples:
  # Total revenue per quarter
  forecaster report --input export.csv --from FY26-Q1 --to FY26-Q4

  # Grouped by industry with two measures
  forecaster report --input export.csv --from FY26-Q1 --to FY26-Q4 \
    --group-by industry_vertical --measures revenue_tcv_usd,margin

  # Reuse a saved mapping and write JSON
  forecaster report --input export.csv --from FY26-Q1 --to FY27-Q4 \
    --mapping mapping.json --output-format json --output-file report.json

  # January-start fiscal calendar
  forecaster report --input export.csv --from FY26-Q1 --to FY26-Q4 \
    --fiscal-start-month 1`,

	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	// Required flags
	reportCmd.Flags().StringVarP(&reportInputFile, "input", "i", "", "path to CSV export (required)")
	reportCmd.Flags().StringVar(&reportFromPeriod, "from", "", "first fiscal period, e.g. FY26-Q1 (required)")
	reportCmd.Flags().StringVar(&reportToPeriod, "to", "", "last fiscal period, e.g. FY26-Q4 (required)")

	// Shaping flags
	reportCmd.Flags().StringVarP(&reportGroupBy, "group-by", "g", "", "target field to group rows by (default: single Total row)")
	reportCmd.Flags().StringSliceVarP(&reportMeasures, "measures", "m", []string{string(schema.FieldRevenueTCV)}, "comma-separated target fields to sum")
	reportCmd.Flags().IntVar(&reportStartMonth, "fiscal-start-month", 4, "first month of the fiscal year (1-12)")
	reportCmd.Flags().StringVar(&reportMappingFile, "mapping", "", "mapping template from 'map --save-mapping' (default: auto-map)")

	// Output flags
	reportCmd.Flags().StringVarP(&reportOutputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reportCmd.Flags().StringVarP(&reportOutputFile, "output-file", "o", "", "output file path (default: stdout)")
	reportCmd.Flags().StringVar(&reportDelimiter, "delimiter", "", "CSV delimiter (default: comma)")

	reportCmd.MarkFlagRequired("input")
	reportCmd.MarkFlagRequired("from")
	reportCmd.MarkFlagRequired("to")

	viper.BindPFlag("report.fiscal-start-month", reportCmd.Flags().Lookup("fiscal-start-month"))
	viper.BindPFlag("report.output-format", reportCmd.Flags().Lookup("output-format"))
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(reportInputFile, "input file"); err != nil {
		return err
	}
	if reportMappingFile != "" {
		if err := validateFileExists(reportMappingFile, "mapping file"); err != nil {
			return err
		}
	}

	if _, err := fiscal.ParsePeriod(reportFromPeriod); err != nil {
		return fmt.Errorf("invalid --from period %q: use FY<yy>-Q<n>", reportFromPeriod)
	}
	if _, err := fiscal.ParsePeriod(reportToPeriod); err != nil {
		return fmt.Errorf("invalid --to period %q: use FY<yy>-Q<n>", reportToPeriod)
	}

	if reportStartMonth < 1 || reportStartMonth > 12 {
		return fmt.Errorf("fiscal-start-month must be between 1 and 12, got %d", reportStartMonth)
	}

	if len(reportMeasures) == 0 {
		return fmt.Errorf("at least one measure is required")
	}

	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Generating report...\n")
		fmt.Fprintf(os.Stderr, "Input file: %s\n", reportInputFile)
		fmt.Fprintf(os.Stderr, "Range: %s to %s\n", reportFromPeriod, reportToPeriod)
		fmt.Fprintf(os.Stderr, "Measures: %s\n", strings.Join(reportMeasures, ", "))
	}

	loaderConfig, err := config.CreateLoaderConfig(reportDelimiter)
	if err != nil {
		return err
	}
	headers, records, _, err := loader.NewLoader(loaderConfig).Load(reportInputFile)
	if err != nil {
		return err
	}

	registry := schema.DefaultRegistry()

	var mapping *mapper.Mapping
	if reportMappingFile != "" {
		mapping, err = loadMappingTemplate(reportMappingFile)
		if err != nil {
			return err
		}
	} else {
		mapping = mapper.NewMatcher(registry).AutoMap(headers)
	}

	calendar, err := config.CreateCalendar(reportStartMonth)
	if err != nil {
		return err
	}
	engine := pivot.NewEngine(registry, fiscal.NewResolver(calendar), config.CreatePivotConfig(nil))

	from, _ := fiscal.ParsePeriod(reportFromPeriod)
	to, _ := fiscal.ParsePeriod(reportToPeriod)

	request := pivot.Request{
		Measures: make([]schema.FieldID, len(reportMeasures)),
		From:     from,
		To:       to,
	}
	for i, m := range reportMeasures {
		request.Measures[i] = schema.FieldID(m)
	}
	if reportGroupBy != "" {
		groupBy := schema.FieldID(reportGroupBy)
		request.GroupBy = &groupBy
	}

	report, err := engine.Run(records, mapping, request)
	if err != nil {
		return err
	}

	generator, err := newReportGenerator(reportOutputFormat)
	if err != nil {
		return err
	}

	writer, closeWriter, err := openOutput(reportOutputFile)
	if err != nil {
		return err
	}
	defer closeWriter()

	return generator.GeneratePivotReport(report, writer)
}

// newReportGenerator builds a reporter for the given output format
func newReportGenerator(format string) (*reporter.ReportGenerator, error) {
	reportConfig, err := config.CreateReportConfig(format, true)
	if err != nil {
		return nil, err
	}
	return reporter.NewReportGenerator(reportConfig)
}
