package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"financial-statement-service/internal/audit"
	"financial-statement-service/internal/ingest"
	"financial-statement-service/internal/models"
	"financial-statement-service/internal/normalize"
	"financial-statement-service/internal/output"
	"financial-statement-service/internal/security"
	"financial-statement-service/internal/statement"
	"financial-statement-service/internal/validate"
	apperrors "financial-statement-service/pkg/errors"
)

func newTestPipeline(t *testing.T) (*Pipeline, *audit.MemoryStore) {
	t.Helper()

	validator, err := validate.NewValidator(nil, nil)
	if err != nil {
		t.Fatalf("NewValidator failed: %v", err)
	}
	renderer, err := statement.NewRenderer("", nil)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	writer, err := output.NewWriter(&output.Config{
		Dir:     t.TempDir(),
		Formats: []string{output.FormatMarkdown},
	}, nil)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	store := audit.NewMemoryStore()
	deps := Dependencies{
		Scanner:    security.NewScanner(nil, nil),
		Extractor:  ingest.NewExtractor(nil, nil),
		Normalizer: normalize.NewNormalizer(nil, nil),
		Validator:  validator,
		Selector:   statement.NewSelector(nil),
		Mapper:     statement.NewMapper(nil, nil),
		Renderer:   renderer,
		Writer:     writer,
		Trail:      audit.NewTrail(store, nil),
	}
	return NewPipeline(deps, nil), store
}

func writeLedger(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestRunBalanceSheetLedger(t *testing.T) {
	pipeline, store := newTestPipeline(t)
	path := writeLedger(t, "ledger.csv",
		"Account Name,Debit,Credit\nCash,1000,0\nOwner Capital,0,1000\n")

	result := pipeline.Run(Request{FilePath: path, UserID: "analyst"})

	if !result.Success {
		t.Fatalf("Expected successful run, got errors: %v", result.Errors)
	}
	if result.Summary == nil {
		t.Fatal("Expected run summary")
	}
	if result.Summary.TemplateUsed != models.TemplateBalanceSheet {
		t.Errorf("Expected balance_sheet, got %s", result.Summary.TemplateUsed)
	}
	if result.Summary.RecordsProcessed != 2 {
		t.Errorf("Expected 2 records, got %d", result.Summary.RecordsProcessed)
	}
	if result.Summary.ValidationStatus != "passed" {
		t.Errorf("Expected validation passed, got %s", result.Summary.ValidationStatus)
	}
	if len(result.OutputFiles) != 1 {
		t.Fatalf("Expected 1 output file, got %v", result.OutputFiles)
	}
	content, err := os.ReadFile(result.OutputFiles[0])
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.Contains(string(content), "# Balance Sheet") {
		t.Error("Expected rendered balance sheet output")
	}

	record, err := store.Load(result.SessionID)
	if err != nil {
		t.Fatalf("Expected persisted audit record: %v", err)
	}
	if record.Status != audit.SessionCompleted {
		t.Errorf("Expected completed session, got %s", record.Status)
	}
	if record.TemplateUsed != "balance_sheet" {
		t.Errorf("Expected recorded template balance_sheet, got %s", record.TemplateUsed)
	}
	if len(record.ProcessingSteps) != 5 {
		t.Fatalf("Expected 5 recorded steps, got %d", len(record.ProcessingSteps))
	}
	for _, step := range record.ProcessingSteps {
		if step.Status != audit.StepCompleted {
			t.Errorf("Expected step %s completed, got %s", step.StepName, step.Status)
		}
	}
	if record.InputFileHash == "" {
		t.Error("Expected input file hash in audit record")
	}
	if len(record.OutputFiles) != 1 {
		t.Errorf("Expected output file in audit record, got %v", record.OutputFiles)
	}
}

func TestRunSingleAmountColumn(t *testing.T) {
	pipeline, store := newTestPipeline(t)
	path := writeLedger(t, "ledger.csv",
		"Account,Amount\nSales Revenue,500\nRent Expense,-200\n")

	result := pipeline.Run(Request{FilePath: path})

	// The positive amount lands as a 500 debit and the negative one as a
	// 200 credit, so the books are out of balance and the run must stop
	// before statement generation
	if result.Success {
		t.Fatal("Expected unbalanced run to fail")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "does not balance") {
		t.Fatalf("Expected balance error as the run's primary error, got %v", result.Errors)
	}
	if len(result.OutputFiles) != 0 {
		t.Errorf("Expected no statement output, got %v", result.OutputFiles)
	}

	record, err := store.Load(result.SessionID)
	if err != nil {
		t.Fatalf("Expected persisted audit record: %v", err)
	}
	if record.Status != audit.SessionFailed {
		t.Errorf("Expected failed session, got %s", record.Status)
	}
	if record.ValidationResults["total_debits"] != "500" || record.ValidationResults["total_credits"] != "200" {
		t.Errorf("Expected recorded totals 500/200, got %v", record.ValidationResults)
	}
}

func TestRunUnbalancedLedgerBlocked(t *testing.T) {
	pipeline, store := newTestPipeline(t)
	path := writeLedger(t, "ledger.csv",
		"Account,Debit,Credit\nCash,1000,0\nRent Expense,300,0\n")

	result := pipeline.Run(Request{FilePath: path})

	if result.Success {
		t.Fatal("Expected unbalanced run to fail")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "does not balance") {
		t.Fatalf("Expected balance error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "$1300.00") {
		t.Errorf("Expected balance difference in error, got %q", result.Errors[0])
	}
	if len(result.OutputFiles) != 0 {
		t.Errorf("Expected no statement output, got %v", result.OutputFiles)
	}

	record, err := store.Load(result.SessionID)
	if err != nil {
		t.Fatalf("Expected persisted audit record: %v", err)
	}
	if record.Status != audit.SessionFailed {
		t.Errorf("Expected failed session, got %s", record.Status)
	}
	last := record.ProcessingSteps[len(record.ProcessingSteps)-1]
	if last.StepName != "validation" || last.Status != audit.StepFailed {
		t.Errorf("Expected failed validation step, got %s/%s", last.StepName, last.Status)
	}
}

func TestRunMissingFile(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	result := pipeline.Run(Request{FilePath: "/no/such/ledger.csv"})

	if result.Success {
		t.Error("Expected failed run for missing file")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "File not found") {
		t.Errorf("Expected file not found error, got %v", result.Errors)
	}
	if result.SessionID != "" {
		t.Error("No session should be opened for a missing file")
	}
}

func TestRunUnsupportedFileFailsSecurityScan(t *testing.T) {
	pipeline, store := newTestPipeline(t)
	path := writeLedger(t, "ledger.docx", "not a ledger")

	result := pipeline.Run(Request{FilePath: path})

	if result.Success {
		t.Error("Expected failed run for unsupported file")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "not supported") {
		t.Errorf("Expected extension error, got %v", result.Errors)
	}

	record, err := store.Load(result.SessionID)
	if err != nil {
		t.Fatalf("Expected persisted audit record: %v", err)
	}
	if record.Status != audit.SessionFailed {
		t.Errorf("Expected failed session, got %s", record.Status)
	}
	if len(record.ProcessingSteps) != 1 {
		t.Fatalf("Expected 1 recorded step, got %d", len(record.ProcessingSteps))
	}
	step := record.ProcessingSteps[0]
	if step.StepName != "security_scan" || step.Status != audit.StepFailed {
		t.Errorf("Expected failed security_scan step, got %s/%s", step.StepName, step.Status)
	}
}

func TestRunMissingCollaborator(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	pipeline.deps.Validator = nil
	path := writeLedger(t, "ledger.csv", "Account,Debit,Credit\nCash,100,0\n")

	result := pipeline.Run(Request{FilePath: path})

	if result.Success {
		t.Error("Expected failed run with missing validator")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "pipeline stage unavailable: validation") {
		t.Errorf("Expected stage unavailable error, got %v", result.Errors)
	}
}

func TestRunTemplateOverride(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	path := writeLedger(t, "ledger.csv",
		"Account,Debit,Credit\nCash,1000,0\nOwner Capital,0,1000\n")

	result := pipeline.Run(Request{
		FilePath:         path,
		TemplateOverride: models.TemplateCashFlow,
	})

	if !result.Success {
		t.Fatalf("Expected successful run, got errors: %v", result.Errors)
	}
	if result.Summary.TemplateUsed != models.TemplateCashFlow {
		t.Errorf("Expected cash_flow override, got %s", result.Summary.TemplateUsed)
	}
}

func TestRunInvalidTemplateOverride(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	path := writeLedger(t, "ledger.csv",
		"Account,Debit,Credit\nCash,100,0\nOwner Capital,0,100\n")

	result := pipeline.Run(Request{
		FilePath:         path,
		TemplateOverride: models.TemplateID("general_ledger"),
	})

	if result.Success {
		t.Error("Expected failed run for unknown template override")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "unknown statement template") {
		t.Errorf("Expected unknown template error, got %v", result.Errors)
	}
}

func TestRunResultPrimaryError(t *testing.T) {
	t.Run("successful run", func(t *testing.T) {
		pipeline, _ := newTestPipeline(t)
		path := writeLedger(t, "ledger.csv",
			"Account,Debit,Credit\nCash,100,0\nOwner Capital,0,100\n")

		result := pipeline.Run(Request{FilePath: path})
		if err := result.PrimaryError(); err != nil {
			t.Errorf("Expected nil primary error, got %v", err)
		}
	})

	t.Run("unbalanced ledger", func(t *testing.T) {
		pipeline, _ := newTestPipeline(t)
		path := writeLedger(t, "ledger.csv",
			"Account,Debit,Credit\nCash,1000,0\nRent Expense,300,0\n")

		result := pipeline.Run(Request{FilePath: path})
		err := result.PrimaryError()
		if err == nil {
			t.Fatal("Expected primary error for failed run")
		}
		if err.Category != apperrors.CategoryValidation || err.Code != apperrors.CodeNotBalanced {
			t.Errorf("Expected validation/not_balanced, got %s/%s", err.Category, err.Code)
		}
		if !strings.Contains(err.Message, "does not balance") {
			t.Errorf("Expected balance error message, got %q", err.Message)
		}
		if err.GetExitCode() != 3 {
			t.Errorf("Expected exit code 3, got %d", err.GetExitCode())
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		pipeline, _ := newTestPipeline(t)
		path := writeLedger(t, "ledger.docx", "not a ledger")

		result := pipeline.Run(Request{FilePath: path})
		err := result.PrimaryError()
		if err == nil {
			t.Fatal("Expected primary error for failed run")
		}
		if err.Category != apperrors.CategorySecurity || err.Code != apperrors.CodeScanFailed {
			t.Errorf("Expected security/scan_failed, got %s/%s", err.Category, err.Code)
		}
	})

	t.Run("missing collaborator", func(t *testing.T) {
		pipeline, _ := newTestPipeline(t)
		pipeline.deps.Validator = nil
		path := writeLedger(t, "ledger.csv", "Account,Debit,Credit\nCash,100,0\n")

		result := pipeline.Run(Request{FilePath: path})
		err := result.PrimaryError()
		if err == nil {
			t.Fatal("Expected primary error for failed run")
		}
		if err.Category != apperrors.CategoryInternal || err.Code != apperrors.CodeStageUnavailable {
			t.Errorf("Expected internal/stage_unavailable, got %s/%s", err.Category, err.Code)
		}
	})
}

func TestRunBatch(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	good := writeLedger(t, "good.csv", "Account,Debit,Credit\nCash,100,0\nOwner Capital,0,100\n")

	results := pipeline.RunBatch([]string{good, "/no/such/ledger.csv"}, "analyst", nil)

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if !results[0].Success {
		t.Errorf("Expected first file to succeed, got errors: %v", results[0].Errors)
	}
	if results[1].Success {
		t.Error("Expected second file to fail")
	}
}
