package cmd

import (
	"encoding/csv"
	"fmt"
	"os"

	"golang-forecast-engine/cmd/forecaster/config"
	"golang-forecast-engine/internal/loader"
	"golang-forecast-engine/internal/mapper"
	"golang-forecast-engine/internal/models"
	"golang-forecast-engine/internal/schema"
	"golang-forecast-engine/internal/validate"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the validate command
var (
	validateInputFile    string
	validateMappingFile  string
	validateOutputFormat string
	validateOutputFile   string
	validateDelimiter    string
	validateMultiplier   float64
	applyFixID           string
	applyFixColumn       string
	fixedOutputFile      string
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run quality checks against a CSV export",
	Long: `Validate maps an export's columns and runs the quality check battery:
missing values, numeric coercibility, negative revenue, percent ranges,
interquartile outliers, and duplicate records. Findings are graded passed,
warning, or error and carry a suggested fix where one applies.

A named fix can be applied with --apply-fix; the corrected record set is
written as CSV to --fixed-output.

Examples:
  # Inspect data quality
  forecaster validate --input export.csv

  # Stricter outlier fences
  forecaster validate --input export.csv --outlier-multiplier 1.5

  # Coerce a dirty amount column and write the corrected file
  forecaster validate --input export.csv \
    --apply-fix numeric_coercion --fix-column "Revenue TCV USD" \
    --fixed-output cleaned.csv`,

	PreRunE: validateValidateFlags,
	RunE:    runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateInputFile, "input", "i", "", "path to CSV export (required)")
	validateCmd.Flags().StringVar(&validateMappingFile, "mapping", "", "mapping template from 'map --save-mapping' (default: auto-map)")
	validateCmd.Flags().StringVarP(&validateOutputFormat, "output-format", "f", "console", "output format: console, json, csv")
	validateCmd.Flags().StringVarP(&validateOutputFile, "output-file", "o", "", "output file path (default: stdout)")
	validateCmd.Flags().StringVar(&validateDelimiter, "delimiter", "", "CSV delimiter (default: comma)")
	validateCmd.Flags().Float64Var(&validateMultiplier, "outlier-multiplier", 3, "IQR fence multiplier for outlier detection")

	validateCmd.Flags().StringVar(&applyFixID, "apply-fix", "", "fix to apply: numeric_coercion, clip_outliers, fill_missing, percent_to_decimal")
	validateCmd.Flags().StringVar(&applyFixColumn, "fix-column", "", "source column the fix applies to")
	validateCmd.Flags().StringVar(&fixedOutputFile, "fixed-output", "", "path for the corrected CSV when a fix is applied")

	validateCmd.MarkFlagRequired("input")

	viper.BindPFlag("validate.outlier-multiplier", validateCmd.Flags().Lookup("outlier-multiplier"))
}

func validateValidateFlags(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(validateInputFile, "input file"); err != nil {
		return err
	}
	if validateMappingFile != "" {
		if err := validateFileExists(validateMappingFile, "mapping file"); err != nil {
			return err
		}
	}
	if applyFixID != "" {
		if applyFixColumn == "" {
			return fmt.Errorf("--fix-column is required with --apply-fix")
		}
		if fixedOutputFile == "" {
			return fmt.Errorf("--fixed-output is required with --apply-fix")
		}
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	loaderConfig, err := config.CreateLoaderConfig(validateDelimiter)
	if err != nil {
		return err
	}
	headers, records, _, err := loader.NewLoader(loaderConfig).Load(validateInputFile)
	if err != nil {
		return err
	}

	registry := schema.DefaultRegistry()

	var mapping *mapper.Mapping
	if validateMappingFile != "" {
		mapping, err = loadMappingTemplate(validateMappingFile)
		if err != nil {
			return err
		}
	} else {
		mapping = mapper.NewMatcher(registry).AutoMap(headers)
	}

	validateConfig, err := config.CreateValidateConfig(validateMultiplier, nil)
	if err != nil {
		return err
	}

	if applyFixID != "" {
		fixed, changed, err := validate.ApplyFix(records, validate.FixID(applyFixID), applyFixColumn, validateConfig)
		if err != nil {
			return err
		}
		if err := writeRecordsCSV(fixedOutputFile, headers, fixed); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Applied %s to %q: %d cells changed, written to %s\n",
			applyFixID, applyFixColumn, changed, fixedOutputFile)
		records = fixed
	}

	result := validate.NewValidator(registry, validateConfig).ValidateRecords(records, mapping)

	generator, err := newReportGenerator(validateOutputFormat)
	if err != nil {
		return err
	}

	writer, closeWriter, err := openOutput(validateOutputFile)
	if err != nil {
		return err
	}
	defer closeWriter()

	if err := generator.GenerateValidationReport(result, writer); err != nil {
		return err
	}

	if result.ErrorCount() > 0 {
		return fmt.Errorf("validation found %d errors", result.ErrorCount())
	}
	return nil
}

// writeRecordsCSV writes a corrected record set back out under the original
// header order
func writeRecordsCSV(path string, headers []string, records []models.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create fixed output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, record := range records {
		row := make([]string, len(headers))
		for i, header := range headers {
			row[i] = record.Get(header).Text()
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return writer.Error()
}
