package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"financial-statement-service/cmd/finstmt/config"
	"financial-statement-service/internal/audit"
	"financial-statement-service/internal/ingest"
	"financial-statement-service/internal/models"
	"financial-statement-service/internal/normalize"
	"financial-statement-service/internal/output"
	"financial-statement-service/internal/security"
	"financial-statement-service/internal/statement"
	"financial-statement-service/internal/validate"
	"financial-statement-service/internal/workflow"
	apperrors "financial-statement-service/pkg/errors"
	"financial-statement-service/pkg/logger"
)

// Flags for the process command
var (
	userID           string
	outputFormats    []string
	templateOverride string
	outputDir        string
	auditDir         string
	disableAudit     bool
	companyName      string
	currencyCode     string
	balanceTolerance float64
	maxFileSize      int64
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Process ledger files into financial statements",
	Long: `Process runs one or more ledger files through the complete pipeline:
security scan, data extraction, record normalization, trial balance
validation, statement template selection, rendering, and output emission.

Each file is processed as an independent run with its own audit session.
A failing file never affects the other files in the batch.

Examples:
  # Process a single CSV ledger
  finstmt process ledger.csv

  # Emit Markdown and JSON into a custom directory
  finstmt process ledger.csv --formats md,json --output-dir reports

  # Force a specific statement template
  finstmt process ledger.csv --template profit_loss

  # Batch processing with an attributed user
  finstmt process q1.csv q2.csv q3.csv --user analyst`,

	Args:    cobra.MinimumNArgs(1),
	PreRunE: validateProcessFlags,
	RunE:    runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&userID, "user", "u", "system", "user recorded in the audit trail")
	processCmd.Flags().StringSliceVarP(&outputFormats, "formats", "f", []string{"md", "html"}, "output formats: md, html, json")
	processCmd.Flags().StringVarP(&templateOverride, "template", "t", "", "statement template override: balance_sheet, profit_loss, trial_balance, cash_flow")
	processCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "output", "directory for generated statements")
	processCmd.Flags().StringVar(&auditDir, "audit-dir", "audit", "directory for audit records")
	processCmd.Flags().BoolVar(&disableAudit, "no-audit", false, "disable audit trail persistence")
	processCmd.Flags().StringVar(&companyName, "company", "", "company name shown in statement headers")
	processCmd.Flags().StringVar(&currencyCode, "currency", "USD", "ISO currency code for amount formatting")
	processCmd.Flags().Float64Var(&balanceTolerance, "tolerance", 0, "balance tolerance override")
	processCmd.Flags().Int64Var(&maxFileSize, "max-file-size", 0, "maximum input file size in bytes")

	viper.BindPFlag("user", processCmd.Flags().Lookup("user"))
	viper.BindPFlag("formats", processCmd.Flags().Lookup("formats"))
	viper.BindPFlag("template", processCmd.Flags().Lookup("template"))
	viper.BindPFlag("output-dir", processCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("audit-dir", processCmd.Flags().Lookup("audit-dir"))
	viper.BindPFlag("no-audit", processCmd.Flags().Lookup("no-audit"))
	viper.BindPFlag("company", processCmd.Flags().Lookup("company"))
	viper.BindPFlag("currency", processCmd.Flags().Lookup("currency"))
	viper.BindPFlag("tolerance", processCmd.Flags().Lookup("tolerance"))
	viper.BindPFlag("max-file-size", processCmd.Flags().Lookup("max-file-size"))
}

func validateProcessFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	userID = viper.GetString("user")
	outputFormats = viper.GetStringSlice("formats")
	templateOverride = viper.GetString("template")
	outputDir = viper.GetString("output-dir")
	auditDir = viper.GetString("audit-dir")
	disableAudit = viper.GetBool("no-audit")
	companyName = viper.GetString("company")
	currencyCode = viper.GetString("currency")
	balanceTolerance = viper.GetFloat64("tolerance")
	maxFileSize = viper.GetInt64("max-file-size")

	for _, format := range outputFormats {
		valid := false
		for _, supported := range output.SupportedFormats {
			if format == supported {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid output format '%s'. Valid formats: %s",
				format, strings.Join(output.SupportedFormats, ", "))
		}
	}

	if templateOverride != "" {
		if _, err := models.ParseTemplateID(templateOverride); err != nil {
			return err
		}
	}

	if balanceTolerance < 0 {
		return fmt.Errorf("tolerance cannot be negative")
	}

	for _, path := range args {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", path)
		}
		if err != nil {
			return fmt.Errorf("error accessing input file %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("input is a directory, expected a file: %s", path)
		}
	}

	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	log, err := logger.NewLogger(config.CreateLoggerConfig(viper.GetBool("verbose")))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	pipeline, err := buildPipeline(log)
	if err != nil {
		return err
	}

	var templateID models.TemplateID
	if templateOverride != "" {
		templateID, _ = models.ParseTemplateID(templateOverride)
	}

	if len(args) == 1 {
		result := pipeline.Run(workflow.Request{
			FilePath:         args[0],
			UserID:           userID,
			Formats:          outputFormats,
			TemplateOverride: templateID,
		})
		printRunResult(result)
		if !result.Success {
			return runFailure(result)
		}
		return nil
	}

	results := pipeline.RunBatch(args, userID, outputFormats)
	failed := 0
	for _, result := range results {
		printRunResult(result)
		if !result.Success {
			failed++
		}
	}
	fmt.Fprintf(os.Stderr, "\nBatch completed: %d/%d successful\n", len(results)-failed, len(results))
	if failed == len(results) {
		return fmt.Errorf("all %d files failed to process", failed)
	}
	return nil
}

// buildPipeline wires the pipeline collaborators from the CLI settings.
func buildPipeline(log logger.Logger) (*workflow.Pipeline, error) {
	validatorConfig, err := config.CreateValidatorConfig(balanceTolerance)
	if err != nil {
		return nil, err
	}
	validator, err := validate.NewValidator(validatorConfig, log)
	if err != nil {
		return nil, err
	}
	renderer, err := statement.NewRenderer(currencyCode, log)
	if err != nil {
		return nil, err
	}
	writer, err := output.NewWriter(config.CreateWriterConfig(outputDir, outputFormats), log)
	if err != nil {
		return nil, err
	}

	var trail *audit.Trail
	if !disableAudit {
		store, err := audit.NewFileStore(auditDir)
		if err != nil {
			return nil, err
		}
		trail = audit.NewTrail(store, log)
	}

	deps := workflow.Dependencies{
		Scanner:    security.NewScanner(config.CreateScannerConfig(maxFileSize), log),
		Extractor:  ingest.NewExtractor(config.CreateExtractorConfig(), log),
		Normalizer: normalize.NewNormalizer(nil, log),
		Validator:  validator,
		Selector:   statement.NewSelector(log),
		Mapper:     statement.NewMapper(config.CreateMapperConfig(companyName, balanceTolerance), log),
		Renderer:   renderer,
		Writer:     writer,
		Trail:      trail,
	}
	return workflow.NewPipeline(deps, log), nil
}

func printRunResult(result *workflow.RunResult) {
	if result.Success {
		fmt.Printf("Processed %s\n", result.Summary.FileProcessed)
		fmt.Printf("  Template:   %s\n", result.Summary.TemplateUsed)
		fmt.Printf("  Records:    %d\n", result.Summary.RecordsProcessed)
		fmt.Printf("  Validation: %s (debits %s, credits %s)\n",
			result.Summary.ValidationStatus, result.Summary.TotalDebits, result.Summary.TotalCredits)
		for _, path := range result.OutputFiles {
			fmt.Printf("  Output:     %s\n", path)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Processing failed (session %s):\n", result.SessionID)
		for _, message := range result.Errors {
			fmt.Fprintf(os.Stderr, "  Error: %s\n", message)
		}
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "  Warning: %s\n", warning)
	}
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "  Processing time: %v\n", result.ProcessingTime)
	}
}

// runFailure converts a failed run into an error carrying the most
// specific failure category available.
func runFailure(result *workflow.RunResult) error {
	if err := result.PrimaryError(); err != nil {
		return err
	}
	return apperrors.New(apperrors.CategoryInternal, apperrors.CodeStageFailed, "processing failed")
}
