package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	apperrors "financial-statement-service/pkg/errors"
)

// HandleError prints a user-friendly message for a failed command and
// returns the process exit code.
func HandleError(err error) int {
	if err == nil {
		return 0
	}

	if pipelineErr, ok := apperrors.AsPipelineError(err); ok {
		return handlePipelineError(pipelineErr)
	}
	return handleGenericError(err)
}

// handlePipelineError handles PipelineError with detailed context
func handlePipelineError(err *apperrors.PipelineError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", categoryHelp(err.Category))

	if viper.GetBool("verbose") && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-PipelineError types
func handleGenericError(err error) int {
	if os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory") {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if os.IsPermission(err) || strings.Contains(err.Error(), "permission denied") {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nRun with --verbose for more detailed error information\n")
	}

	return 1
}

// categoryHelp returns category-specific help text
func categoryHelp(category apperrors.ErrorCategory) string {
	switch category {
	case apperrors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have proper permissions to access the file`

	case apperrors.CategoryParse:
		return `Parse error help:
• Verify the CSV file format and structure
• Check for proper column headers and data types
• Ensure the file uses UTF-8 encoding
• Use 'finstmt process --help' for examples of correct file formats`

	case apperrors.CategoryValidation:
		return `Validation error help:
• Check that debits and credits balance within the tolerance
• Ensure amounts are decimal numbers without stray characters
• Verify every record has an account name`

	case apperrors.CategorySecurity:
		return `Security error help:
• Check the file extension is one of .csv, .txt, .pdf
• Verify the file is not empty and within the size limit
• Inspect the file for embedded script content`

	case apperrors.CategoryStatement:
		return `Statement error help:
• Use 'finstmt templates' to list valid template identifiers
• Check that the records classify into recognizable account types`

	case apperrors.CategoryOutput:
		return `Output error help:
• Check that the output directory exists and is writable
• Valid output formats are md, html, and json`

	case apperrors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'finstmt process --help' to see all available options`

	default:
		return `For more help:
• Use 'finstmt --help' for general help
• Use 'finstmt process --help' for command-specific help`
	}
}
