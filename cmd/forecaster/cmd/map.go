package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang-forecast-engine/cmd/forecaster/config"
	"golang-forecast-engine/internal/loader"
	"golang-forecast-engine/internal/mapper"
	"golang-forecast-engine/internal/schema"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the map command
var (
	mapInputFile    string
	mapOutputFormat string
	mapOutputFile   string
	mapSaveFile     string
	mapDelimiter    string
)

// mapCmd represents the map command
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Auto-map a CSV export's columns onto the target schema",
	Long: `Map reads the header row of a CSV export and assigns each column to a
target schema field using tiered name matching. No target field is ever
assigned to more than one column; contested targets go to the best-scoring
column.

Examples:
  # Show the mapping for an export
  forecaster map --input export.csv

  # Save the mapping as a reusable template
  forecaster map --input export.csv --save-mapping mapping.json

  # Machine-readable output
  forecaster map --input export.csv --output-format json`,

	PreRunE: validateMapFlags,
	RunE:    runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().StringVarP(&mapInputFile, "input", "i", "", "path to CSV export (required)")
	mapCmd.Flags().StringVarP(&mapOutputFormat, "output-format", "f", "console", "output format: console, json, csv")
	mapCmd.Flags().StringVarP(&mapOutputFile, "output-file", "o", "", "output file path (default: stdout)")
	mapCmd.Flags().StringVar(&mapSaveFile, "save-mapping", "", "write the mapping as a JSON template to this path")
	mapCmd.Flags().StringVar(&mapDelimiter, "delimiter", "", "CSV delimiter (default: comma)")

	mapCmd.MarkFlagRequired("input")

	viper.BindPFlag("map.input", mapCmd.Flags().Lookup("input"))
	viper.BindPFlag("map.output-format", mapCmd.Flags().Lookup("output-format"))
}

func validateMapFlags(cmd *cobra.Command, args []string) error {
	if mapInputFile == "" {
		return fmt.Errorf("input is required")
	}
	return validateFileExists(mapInputFile, "input file")
}

func runMap(cmd *cobra.Command, args []string) error {
	loaderConfig, err := config.CreateLoaderConfig(mapDelimiter)
	if err != nil {
		return err
	}

	headers, _, _, err := loader.NewLoader(loaderConfig).Load(mapInputFile)
	if err != nil {
		return err
	}

	registry := schema.DefaultRegistry()
	mapping := mapper.NewMatcher(registry).AutoMap(headers)

	if mapSaveFile != "" {
		if err := writeMappingTemplate(mapping, mapSaveFile); err != nil {
			return err
		}
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Mapping template written to %s\n", mapSaveFile)
		}
	}

	generator, err := newReportGenerator(mapOutputFormat)
	if err != nil {
		return err
	}

	writer, closeWriter, err := openOutput(mapOutputFile)
	if err != nil {
		return err
	}
	defer closeWriter()

	return generator.GenerateMappingReport(mapping, headers, writer)
}

// writeMappingTemplate persists the mapping as indented JSON
func writeMappingTemplate(mapping *mapper.Mapping, path string) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write mapping template: %w", err)
	}
	return nil
}

// loadMappingTemplate reads a mapping template written by --save-mapping
func loadMappingTemplate(path string) (*mapper.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping template: %w", err)
	}
	var mapping mapper.Mapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to decode mapping template: %w", err)
	}
	return &mapping, nil
}

// openOutput returns the writer for a command's report output
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { file.Close() }, nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}
