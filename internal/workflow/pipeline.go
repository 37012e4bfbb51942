// Package workflow orchestrates the financial statement pipeline: security
// scan, data ingestion, normalization and validation, statement selection
// and mapping, rendering, and output emission, with every stage recorded
// in the audit trail.
package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"financial-statement-service/internal/audit"
	"financial-statement-service/internal/ingest"
	"financial-statement-service/internal/models"
	"financial-statement-service/internal/normalize"
	"financial-statement-service/internal/output"
	"financial-statement-service/internal/security"
	"financial-statement-service/internal/statement"
	"financial-statement-service/internal/validate"
	apperrors "financial-statement-service/pkg/errors"
	"financial-statement-service/pkg/logger"
)

// Audit step names, one per pipeline stage
const (
	stepSecurityScan       = "security_scan"
	stepDataIngestion      = "data_ingestion"
	stepValidation         = "validation"
	stepTemplateProcessing = "template_processing"
	stepOutputGeneration   = "output_generation"
)

// Dependencies holds the pipeline collaborators. Any of them may be nil;
// a run that reaches a stage with a missing collaborator fails with an
// explicit stage-unavailable error. The audit trail is the exception: a
// nil trail disables auditing without affecting the run.
type Dependencies struct {
	Scanner    *security.Scanner
	Extractor  *ingest.Extractor
	Normalizer *normalize.Normalizer
	Validator  *validate.Validator
	Selector   *statement.Selector
	Mapper     *statement.Mapper
	Renderer   *statement.Renderer
	Writer     *output.Writer
	Trail      *audit.Trail
}

// Request describes one pipeline run.
type Request struct {
	FilePath string
	// UserID identifies the requester in the audit trail, "system" when empty
	UserID string
	// Formats overrides the writer's configured output formats when set
	Formats []string
	// TemplateOverride skips automatic template selection when set
	TemplateOverride models.TemplateID
}

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	Success        bool          `json:"success"`
	SessionID      string        `json:"session_id"`
	OutputFiles    []string      `json:"output_files"`
	Errors         []string      `json:"errors"`
	Warnings       []string      `json:"warnings"`
	ProcessingTime time.Duration `json:"processing_time"`
	Summary        *RunSummary   `json:"summary,omitempty"`
	// FailedStage names the stage that stopped the run, empty on success
	FailedStage string `json:"failed_stage,omitempty"`
}

// RunSummary condenses a successful run for reporting.
type RunSummary struct {
	FileProcessed    string            `json:"file_processed"`
	TemplateUsed     models.TemplateID `json:"template_used"`
	RecordsProcessed int               `json:"records_processed"`
	OutputFormats    []string          `json:"output_formats"`
	ValidationStatus string            `json:"validation_status"`
	TotalDebits      string            `json:"total_debits"`
	TotalCredits     string            `json:"total_credits"`
}

// PrimaryError converts a failed run into a pipeline error carrying the
// failing stage's category, so callers get stage-appropriate exit codes
// and help text. Returns nil for successful runs.
func (r *RunResult) PrimaryError() *apperrors.PipelineError {
	if r.Success {
		return nil
	}
	message := "pipeline run failed"
	if len(r.Errors) > 0 {
		message = r.Errors[0]
	}
	if len(r.Errors) > 0 && r.Errors[0] == stageUnavailable(r.FailedStage) {
		return apperrors.StageError(apperrors.CodeStageUnavailable, r.FailedStage, nil)
	}
	switch r.FailedStage {
	case stepSecurityScan:
		return apperrors.New(apperrors.CategorySecurity, apperrors.CodeScanFailed, message)
	case stepDataIngestion:
		return apperrors.New(apperrors.CategoryParse, apperrors.CodeInvalidFormat, message)
	case stepValidation:
		return apperrors.New(apperrors.CategoryValidation, apperrors.CodeNotBalanced, message)
	case stepTemplateProcessing:
		return apperrors.New(apperrors.CategoryStatement, apperrors.CodeRenderFailed, message)
	case stepOutputGeneration:
		return apperrors.New(apperrors.CategoryOutput, apperrors.CodeWriteFailed, message)
	default:
		return apperrors.New(apperrors.CategoryInternal, apperrors.CodeStageFailed, message)
	}
}

// Pipeline runs financial files through the complete automation workflow.
type Pipeline struct {
	deps   Dependencies
	logger logger.Logger
	now    func() time.Time
}

// NewPipeline creates a pipeline over the given collaborators. A nil
// logger discards log output.
func NewPipeline(deps Dependencies, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Pipeline{
		deps:   deps,
		logger: log.WithComponent("pipeline"),
		now:    time.Now,
	}
}

// Run processes a single file through every stage in order. Stage
// failures stop the run; the collected errors and warnings are returned
// in the result rather than as an error. A panic inside a stage is
// recovered and reported as a failed run.
func (p *Pipeline) Run(req Request) (result *RunResult) {
	start := p.now()
	result = &RunResult{
		OutputFiles: []string{},
		Errors:      []string{},
		Warnings:    []string{},
	}

	userID := req.UserID
	if userID == "" {
		userID = "system"
	}

	defer func() {
		result.ProcessingTime = p.now().Sub(start)
		if r := recover(); r != nil {
			err := apperrors.InternalError(apperrors.CodeUnexpectedError, fmt.Sprintf("workflow failed: %v", r), nil)
			result.Success = false
			result.Errors = append(result.Errors, err.Error())
			p.logger.WithField("panic", r).Error("Pipeline run panicked")
			if p.deps.Trail != nil && result.SessionID != "" {
				p.auditError(result.SessionID, err.Error())
				p.endSession(result.SessionID, audit.SessionError)
			}
		}
	}()

	if _, err := os.Stat(req.FilePath); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("File not found: %s", req.FilePath))
		result.FailedStage = stepSecurityScan
		return result
	}

	sessionID := p.startSession(userID, req.FilePath)
	result.SessionID = sessionID
	p.logger.WithFields(logger.Fields{
		"file":       req.FilePath,
		"session_id": sessionID,
	}).Info("Starting workflow")

	// Security scan
	sl := p.startStep(sessionID, stepSecurityScan, map[string]interface{}{"file_path": req.FilePath})
	if p.deps.Scanner == nil {
		return p.failRun(result, sessionID, stepSecurityScan, sl, stageUnavailable(stepSecurityScan))
	}
	scan := p.deps.Scanner.Scan(req.FilePath)
	if !scan.Safe {
		return p.failRun(result, sessionID, stepSecurityScan, sl, scan.Errors...)
	}
	result.Warnings = append(result.Warnings, scan.Warnings...)
	p.endStep(sessionID, stepSecurityScan, sl, map[string]interface{}{
		"file_hash": scan.FileHash,
		"file_size": scan.FileSize,
	})

	// Data ingestion
	sl = p.startStep(sessionID, stepDataIngestion, nil)
	if p.deps.Extractor == nil {
		return p.failRun(result, sessionID, stepDataIngestion, sl, stageUnavailable(stepDataIngestion))
	}
	extraction := p.deps.Extractor.Extract(req.FilePath)
	if !extraction.Success {
		return p.failRun(result, sessionID, stepDataIngestion, sl, extraction.Errors...)
	}
	p.endStep(sessionID, stepDataIngestion, sl, extraction.Metadata)

	// Normalization and validation
	sl = p.startStep(sessionID, stepValidation, nil)
	if p.deps.Normalizer == nil || p.deps.Validator == nil {
		return p.failRun(result, sessionID, stepValidation, sl, stageUnavailable(stepValidation))
	}
	records := p.deps.Normalizer.Normalize(extraction.Table)
	validation := p.deps.Validator.Validate(records)
	result.Warnings = append(result.Warnings, validation.Warnings...)
	if p.deps.Trail != nil {
		if err := p.deps.Trail.SetValidationResults(sessionID, map[string]interface{}{
			"is_valid":           validation.IsValid,
			"total_records":      validation.RecordsProcessed,
			"total_debits":       validation.TotalDebits.String(),
			"total_credits":      validation.TotalCredits.String(),
			"balance_difference": validation.BalanceDifference.String(),
		}); err != nil {
			p.logger.WithError(err).Warn("Failed to record validation results")
		}
	}
	// An out-of-tolerance balance is the run's primary error and blocks
	// statement generation. Data-quality warnings never block.
	if !validation.IsValid {
		return p.failRun(result, sessionID, stepValidation, sl, validation.Errors...)
	}
	p.endStep(sessionID, stepValidation, sl, nil)

	// Template selection and rendering
	sl = p.startStep(sessionID, stepTemplateProcessing, nil)
	if p.deps.Selector == nil || p.deps.Mapper == nil || p.deps.Renderer == nil {
		return p.failRun(result, sessionID, stepTemplateProcessing, sl, stageUnavailable(stepTemplateProcessing))
	}
	templateID := req.TemplateOverride
	if templateID == "" {
		templateID = p.deps.Selector.Select(records)
	} else if !templateID.IsValid() {
		return p.failRun(result, sessionID, stepTemplateProcessing, sl,
			apperrors.StatementError(apperrors.CodeUnknownTemplate, string(templateID), nil).Error())
	}
	if p.deps.Trail != nil {
		if err := p.deps.Trail.SetTemplateUsed(sessionID, string(templateID)); err != nil {
			p.logger.WithError(err).Warn("Failed to record template selection")
		}
	}
	data := p.deps.Mapper.Build(records, templateID)
	rendered, err := p.deps.Renderer.Render(templateID, data)
	if err != nil {
		return p.failRun(result, sessionID, stepTemplateProcessing, sl, err.Error())
	}
	p.endStep(sessionID, stepTemplateProcessing, sl, map[string]interface{}{
		"template_used": string(templateID),
	})

	// Output emission
	sl = p.startStep(sessionID, stepOutputGeneration, nil)
	if p.deps.Writer == nil {
		return p.failRun(result, sessionID, stepOutputGeneration, sl, stageUnavailable(stepOutputGeneration))
	}
	pkg := p.deps.Writer.WritePackage(rendered, data, validation, templateID, req.Formats)
	if !pkg.Success {
		return p.failRun(result, sessionID, stepOutputGeneration, sl, pkg.Errors...)
	}
	result.OutputFiles = pkg.FilesCreated
	if p.deps.Trail != nil {
		for _, path := range pkg.FilesCreated {
			if err := p.deps.Trail.AddOutputFile(sessionID, path); err != nil {
				p.logger.WithError(err).Warn("Failed to record output file")
			}
		}
	}
	p.endStep(sessionID, stepOutputGeneration, sl, map[string]interface{}{
		"files_created": len(pkg.FilesCreated),
	})

	result.Success = true
	validationStatus := "passed"
	if len(validation.Warnings) > 0 {
		validationStatus = "warnings"
	}
	result.Summary = &RunSummary{
		FileProcessed:    req.FilePath,
		TemplateUsed:     templateID,
		RecordsProcessed: len(records),
		OutputFormats:    req.Formats,
		ValidationStatus: validationStatus,
		TotalDebits:      validation.TotalDebits.String(),
		TotalCredits:     validation.TotalCredits.String(),
	}

	p.endSession(sessionID, audit.SessionCompleted)
	p.logger.WithField("session_id", sessionID).Info("Workflow completed successfully")
	return result
}

// RunBatch processes multiple files as independent runs. One failing file
// never affects the others.
func (p *Pipeline) RunBatch(filePaths []string, userID string, formats []string) []*RunResult {
	batchLog := p.logger.WithComponent("batch")
	batchLog.Infof("Starting batch processing of %d files", len(filePaths))

	tracker := logger.NewBatchTracker(int64(len(filePaths)), p.logger)
	results := make([]*RunResult, 0, len(filePaths))
	for _, path := range filePaths {
		result := p.Run(Request{FilePath: path, UserID: userID, Formats: formats})
		results = append(results, result)

		var runErr error
		if !result.Success {
			runErr = apperrors.StageError(apperrors.CodeStageFailed, path, nil)
		}
		tracker.FileDone(path, runErr)
	}
	tracker.Complete()
	return results
}

// failRun records a failed stage, closes the audit session and returns
// the result with the stage errors appended.
func (p *Pipeline) failRun(result *RunResult, sessionID, step string, sl *logger.StageLogger, errs ...string) *RunResult {
	result.Errors = append(result.Errors, errs...)
	result.FailedStage = step
	sl.WithField("session_id", sessionID).Error(
		apperrors.StageError(apperrors.CodeStageFailed, step, nil), "Stage failed")
	if p.deps.Trail != nil {
		if err := p.deps.Trail.EndStep(sessionID, step, audit.StepFailed, nil, errs, nil); err != nil {
			p.logger.WithError(err).Warn("Failed to record step failure")
		}
	}
	p.endSession(sessionID, audit.SessionFailed)
	return result
}

func (p *Pipeline) startSession(userID, filePath string) string {
	if p.deps.Trail == nil {
		return fmt.Sprintf("session_%d", p.now().Unix())
	}
	return p.deps.Trail.StartSession(userID, filePath, hashFile(filePath))
}

func (p *Pipeline) startStep(sessionID, step string, details map[string]interface{}) *logger.StageLogger {
	sl := logger.NewStageLogger(step, p.logger)
	if p.deps.Trail == nil {
		return sl
	}
	if err := p.deps.Trail.StartStep(sessionID, step, details); err != nil {
		p.logger.WithError(err).Warn("Failed to record step start")
	}
	return sl
}

func (p *Pipeline) endStep(sessionID, step string, sl *logger.StageLogger, details map[string]interface{}) {
	sl.Success("Stage completed")
	if p.deps.Trail == nil {
		return
	}
	if err := p.deps.Trail.EndStep(sessionID, step, audit.StepCompleted, details, nil, nil); err != nil {
		p.logger.WithError(err).Warn("Failed to record step end")
	}
}

func (p *Pipeline) endSession(sessionID, status string) {
	if p.deps.Trail == nil {
		return
	}
	if err := p.deps.Trail.EndSession(sessionID, status); err != nil {
		p.logger.WithError(err).Warn("Failed to close audit session")
	}
}

func (p *Pipeline) auditError(sessionID, message string) {
	if p.deps.Trail == nil {
		return
	}
	if err := p.deps.Trail.AddError(sessionID, message); err != nil {
		p.logger.WithError(err).Warn("Failed to record audit error")
	}
}

func stageUnavailable(stage string) string {
	return apperrors.StageError(apperrors.CodeStageUnavailable, stage, nil).Error()
}

// hashFile computes the SHA-256 of the input for the audit record, empty
// on read failure
func hashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
