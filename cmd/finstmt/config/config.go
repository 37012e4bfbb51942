// Package config builds the component configurations for the finstmt
// CLI from flag and config-file values.
package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"financial-statement-service/internal/ingest"
	"financial-statement-service/internal/output"
	"financial-statement-service/internal/security"
	"financial-statement-service/internal/statement"
	"financial-statement-service/internal/validate"
	"financial-statement-service/pkg/logger"
)

// CreateLoggerConfig creates the logging configuration for CLI runs
func CreateLoggerConfig(verbose bool) *logger.Config {
	config := logger.DefaultConfig()
	if verbose {
		config.Level = logger.DebugLevel
	}
	return config
}

// CreateScannerConfig creates the file scanning configuration
func CreateScannerConfig(maxFileSize int64) *security.Config {
	config := security.DefaultConfig()
	if maxFileSize > 0 {
		config.MaxFileSize = maxFileSize
	}
	return config
}

// CreateExtractorConfig creates the ingestion configuration
func CreateExtractorConfig() *ingest.Config {
	return ingest.DefaultConfig()
}

// CreateValidatorConfig creates the validation configuration with the
// specified balance tolerance
func CreateValidatorConfig(tolerance float64) (*validate.Config, error) {
	config := validate.DefaultConfig()
	if tolerance < 0 {
		return nil, fmt.Errorf("tolerance cannot be negative: %f", tolerance)
	}
	if tolerance > 0 {
		config.Tolerance = decimal.NewFromFloat(tolerance)
	}
	return config, nil
}

// CreateMapperConfig creates the statement mapping configuration
func CreateMapperConfig(companyName string, tolerance float64) *statement.MapperConfig {
	config := statement.DefaultMapperConfig()
	if companyName != "" {
		config.CompanyName = companyName
	}
	if tolerance > 0 {
		config.BalanceTolerance = decimal.NewFromFloat(tolerance)
	}
	return config
}

// CreateWriterConfig creates the output configuration for the specified
// directory and formats
func CreateWriterConfig(outputDir string, formats []string) *output.Config {
	config := output.DefaultConfig()
	if outputDir != "" {
		config.Dir = outputDir
	}
	if len(formats) > 0 {
		config.Formats = formats
	}
	return config
}
