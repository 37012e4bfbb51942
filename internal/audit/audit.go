// Package audit records per-run processing trails for compliance review.
// Every pipeline run opens a session, appends step events as stages start
// and finish, and persists the completed record through a Store.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "financial-statement-service/pkg/errors"
	"financial-statement-service/pkg/logger"
)

// Step lifecycle statuses
const (
	StepStarted   = "started"
	StepCompleted = "completed"
	StepFailed    = "failed"
)

// Session lifecycle statuses
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionFailed     = "failed"
	SessionError      = "error"
)

// ProcessingStep is a single recorded pipeline stage event
type ProcessingStep struct {
	StepName   string                 `json:"step_name"`
	Timestamp  time.Time              `json:"timestamp"`
	Status     string                 `json:"status"`
	DurationMS float64                `json:"duration_ms,omitempty"`
	Details    map[string]interface{} `json:"details"`
	Errors     []string               `json:"errors"`
	Warnings   []string               `json:"warnings"`
}

// TimedMessage is an error or warning stamped when recorded
type TimedMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Record is a complete audit trail for one pipeline run
type Record struct {
	SessionID         string                 `json:"session_id"`
	UserID            string                 `json:"user_id"`
	FileProcessed     string                 `json:"file_processed"`
	ProcessingStart   time.Time              `json:"processing_start"`
	ProcessingEnd     *time.Time             `json:"processing_end,omitempty"`
	TotalDurationMS   float64                `json:"total_duration_ms,omitempty"`
	Status            string                 `json:"status"`
	InputFileHash     string                 `json:"input_file_hash"`
	OutputFiles       []string               `json:"output_files"`
	ProcessingSteps   []ProcessingStep       `json:"processing_steps"`
	ValidationResults map[string]interface{} `json:"validation_results,omitempty"`
	TemplateUsed      string                 `json:"template_used"`
	Errors            []TimedMessage         `json:"errors"`
	Warnings          []TimedMessage         `json:"warnings"`
	Metadata          map[string]interface{} `json:"metadata"`
}

// Summary condenses a Record for listings and statistics
type Summary struct {
	SessionID       string     `json:"session_id"`
	Status          string     `json:"status"`
	FileProcessed   string     `json:"file_processed"`
	ProcessingStart time.Time  `json:"processing_start"`
	ProcessingEnd   *time.Time `json:"processing_end,omitempty"`
	TotalSteps      int        `json:"total_steps"`
	ErrorCount      int        `json:"errors_count"`
	WarningCount    int        `json:"warnings_count"`
	OutputFileCount int        `json:"output_files_count"`
	TemplateUsed    string     `json:"template_used"`
	DurationSeconds float64    `json:"total_duration_seconds,omitempty"`
}

// Trail manages in-flight audit sessions and persists completed records.
// All methods are safe for concurrent use.
type Trail struct {
	store  Store
	logger logger.Logger
	now    func() time.Time

	mu         sync.Mutex
	sessions   map[string]*Record
	stepStarts map[string]map[string]time.Time
}

// NewTrail creates an audit trail backed by the given store. A nil store
// keeps records in memory only; a nil logger discards log output.
func NewTrail(store Store, log logger.Logger) *Trail {
	if store == nil {
		store = NewMemoryStore()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Trail{
		store:      store,
		logger:     log.WithComponent("audit"),
		now:        time.Now,
		sessions:   make(map[string]*Record),
		stepStarts: make(map[string]map[string]time.Time),
	}
}

// StartSession opens a new audit session and returns its identifier.
func (t *Trail) StartSession(userID, filePath, fileHash string) string {
	sessionID := uuid.NewString()
	start := t.now()

	record := &Record{
		SessionID:       sessionID,
		UserID:          userID,
		FileProcessed:   filePath,
		ProcessingStart: start,
		Status:          SessionInProgress,
		InputFileHash:   fileHash,
		OutputFiles:     []string{},
		ProcessingSteps: []ProcessingStep{},
		Errors:          []TimedMessage{},
		Warnings:        []TimedMessage{},
		Metadata: map[string]interface{}{
			"system_version": "1.0",
		},
	}

	t.mu.Lock()
	t.sessions[sessionID] = record
	t.stepStarts[sessionID] = make(map[string]time.Time)
	t.mu.Unlock()

	t.logger.WithFields(logger.Fields{
		"session_id": sessionID,
		"user_id":    userID,
	}).Info("Audit session started")
	return sessionID
}

// StartStep records the beginning of a processing step.
func (t *Trail) StartStep(sessionID, stepName string, details map[string]interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.sessions[sessionID]
	if !ok {
		return sessionNotFound(sessionID)
	}
	t.stepStarts[sessionID][stepName] = t.now()

	if details == nil {
		details = map[string]interface{}{}
	}
	record.ProcessingSteps = append(record.ProcessingSteps, ProcessingStep{
		StepName:  stepName,
		Timestamp: t.now(),
		Status:    StepStarted,
		Details:   details,
		Errors:    []string{},
		Warnings:  []string{},
	})

	t.logger.Debugf("Step started: %s in session %s", stepName, sessionID)
	return nil
}

// EndStep closes the most recent started step of the given name, recording
// its duration and outcome. If no started step matches, a standalone
// completed event is appended instead.
func (t *Trail) EndStep(sessionID, stepName, status string, details map[string]interface{}, errs, warnings []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.sessions[sessionID]
	if !ok {
		return sessionNotFound(sessionID)
	}

	var durationMS float64
	if start, ok := t.stepStarts[sessionID][stepName]; ok {
		durationMS = float64(t.now().Sub(start)) / float64(time.Millisecond)
		delete(t.stepStarts[sessionID], stepName)
	}

	steps := record.ProcessingSteps
	for i := len(steps) - 1; i >= 0; i-- {
		step := &steps[i]
		if step.StepName == stepName && step.Status == StepStarted {
			step.Status = status
			step.DurationMS = durationMS
			for k, v := range details {
				step.Details[k] = v
			}
			step.Errors = append(step.Errors, errs...)
			step.Warnings = append(step.Warnings, warnings...)
			t.logger.Debugf("Step ended: %s with status %s in session %s", stepName, status, sessionID)
			return nil
		}
	}

	if details == nil {
		details = map[string]interface{}{}
	}
	record.ProcessingSteps = append(record.ProcessingSteps, ProcessingStep{
		StepName:   stepName,
		Timestamp:  t.now(),
		Status:     status,
		DurationMS: durationMS,
		Details:    details,
		Errors:     append([]string{}, errs...),
		Warnings:   append([]string{}, warnings...),
	})
	return nil
}

// SetValidationResults attaches validation output to the session record.
func (t *Trail) SetValidationResults(sessionID string, results map[string]interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.sessions[sessionID]
	if !ok {
		return sessionNotFound(sessionID)
	}
	record.ValidationResults = results
	return nil
}

// AddOutputFile records a generated output file path.
func (t *Trail) AddOutputFile(sessionID, filePath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.sessions[sessionID]
	if !ok {
		return sessionNotFound(sessionID)
	}
	record.OutputFiles = append(record.OutputFiles, filePath)
	return nil
}

// SetTemplateUsed records which statement template the run selected.
func (t *Trail) SetTemplateUsed(sessionID, templateName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.sessions[sessionID]
	if !ok {
		return sessionNotFound(sessionID)
	}
	record.TemplateUsed = templateName
	return nil
}

// AddError appends a timestamped error message to the session record.
func (t *Trail) AddError(sessionID, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.sessions[sessionID]
	if !ok {
		return sessionNotFound(sessionID)
	}
	record.Errors = append(record.Errors, TimedMessage{Timestamp: t.now(), Message: message})
	return nil
}

// AddWarning appends a timestamped warning message to the session record.
func (t *Trail) AddWarning(sessionID, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.sessions[sessionID]
	if !ok {
		return sessionNotFound(sessionID)
	}
	record.Warnings = append(record.Warnings, TimedMessage{Timestamp: t.now(), Message: message})
	return nil
}

// EndSession finalizes the record with the given status, persists it and
// releases the in-memory session.
func (t *Trail) EndSession(sessionID, finalStatus string) error {
	t.mu.Lock()
	record, ok := t.sessions[sessionID]
	if !ok {
		t.mu.Unlock()
		return sessionNotFound(sessionID)
	}

	end := t.now()
	record.ProcessingEnd = &end
	record.Status = finalStatus
	record.TotalDurationMS = float64(end.Sub(record.ProcessingStart)) / float64(time.Millisecond)

	delete(t.sessions, sessionID)
	delete(t.stepStarts, sessionID)
	t.mu.Unlock()

	if err := t.store.Save(record); err != nil {
		t.logger.WithError(err).Error("Failed to save audit record")
		return err
	}

	t.logger.WithFields(logger.Fields{
		"session_id": sessionID,
		"status":     finalStatus,
	}).Info("Audit session ended")
	return nil
}

// SessionSummary returns a summary of an in-flight or stored session.
func (t *Trail) SessionSummary(sessionID string) (*Summary, error) {
	t.mu.Lock()
	record, ok := t.sessions[sessionID]
	t.mu.Unlock()

	if !ok {
		loaded, err := t.store.Load(sessionID)
		if err != nil {
			return nil, err
		}
		record = loaded
	}
	return summarize(record), nil
}

// Statistics aggregates stored records from the given period.
func (t *Trail) Statistics(since time.Time) (*Statistics, error) {
	records, err := t.store.List(since)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		TemplateUsage:  map[string]int{},
		RecentSessions: []Summary{},
	}
	var totalSeconds float64
	var timed int

	for _, record := range records {
		stats.TotalSessions++
		if record.Status == SessionCompleted {
			stats.SuccessfulSessions++
		} else {
			stats.FailedSessions++
		}
		stats.FilesProcessed++

		if record.TotalDurationMS > 0 {
			totalSeconds += record.TotalDurationMS / 1000
			timed++
		}

		template := record.TemplateUsed
		if template == "" {
			template = "unknown"
		}
		stats.TemplateUsage[template]++

		if len(stats.RecentSessions) < 10 {
			stats.RecentSessions = append(stats.RecentSessions, *summarize(record))
		}
	}

	if timed > 0 {
		stats.AverageProcessingSeconds = totalSeconds / float64(timed)
	}
	return stats, nil
}

// Statistics aggregates audit records over a reporting period
type Statistics struct {
	TotalSessions            int            `json:"total_sessions"`
	SuccessfulSessions       int            `json:"successful_sessions"`
	FailedSessions           int            `json:"failed_sessions"`
	FilesProcessed           int            `json:"files_processed"`
	AverageProcessingSeconds float64        `json:"average_processing_time"`
	TemplateUsage            map[string]int `json:"most_used_templates"`
	RecentSessions           []Summary      `json:"recent_sessions"`
}

func summarize(record *Record) *Summary {
	summary := &Summary{
		SessionID:       record.SessionID,
		Status:          record.Status,
		FileProcessed:   record.FileProcessed,
		ProcessingStart: record.ProcessingStart,
		ProcessingEnd:   record.ProcessingEnd,
		TotalSteps:      len(record.ProcessingSteps),
		ErrorCount:      len(record.Errors),
		WarningCount:    len(record.Warnings),
		OutputFileCount: len(record.OutputFiles),
		TemplateUsed:    record.TemplateUsed,
	}
	if record.TotalDurationMS > 0 {
		summary.DurationSeconds = record.TotalDurationMS / 1000
	}
	return summary
}

func sessionNotFound(sessionID string) error {
	return apperrors.AuditError(apperrors.CodeSessionNotFound, sessionID, nil)
}
