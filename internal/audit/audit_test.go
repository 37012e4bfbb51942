package audit

import (
	"strings"
	"testing"
	"time"

	apperrors "financial-statement-service/pkg/errors"
)

func TestSessionLifecycle(t *testing.T) {
	store := NewMemoryStore()
	trail := NewTrail(store, nil)

	sessionID := trail.StartSession("analyst", "ledger.csv", "abc123")
	if sessionID == "" {
		t.Fatal("Expected non-empty session ID")
	}

	if err := trail.StartStep(sessionID, "data_ingestion", map[string]interface{}{"file": "ledger.csv"}); err != nil {
		t.Fatalf("StartStep failed: %v", err)
	}
	if err := trail.EndStep(sessionID, "data_ingestion", StepCompleted, map[string]interface{}{"rows": 10}, nil, nil); err != nil {
		t.Fatalf("EndStep failed: %v", err)
	}
	if err := trail.SetTemplateUsed(sessionID, "balance_sheet"); err != nil {
		t.Fatalf("SetTemplateUsed failed: %v", err)
	}
	if err := trail.AddOutputFile(sessionID, "out/statement.md"); err != nil {
		t.Fatalf("AddOutputFile failed: %v", err)
	}
	if err := trail.EndSession(sessionID, SessionCompleted); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	record, err := store.Load(sessionID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if record.Status != SessionCompleted {
		t.Errorf("Expected status %s, got %s", SessionCompleted, record.Status)
	}
	if record.ProcessingEnd == nil {
		t.Error("Expected processing end timestamp")
	}
	if len(record.ProcessingSteps) != 1 {
		t.Fatalf("Expected 1 step, got %d", len(record.ProcessingSteps))
	}
	step := record.ProcessingSteps[0]
	if step.Status != StepCompleted {
		t.Errorf("Expected step status %s, got %s", StepCompleted, step.Status)
	}
	if step.Details["file"] != "ledger.csv" || step.Details["rows"] != 10 {
		t.Errorf("Expected merged step details, got %v", step.Details)
	}
	if record.TemplateUsed != "balance_sheet" {
		t.Errorf("Expected template balance_sheet, got %s", record.TemplateUsed)
	}
	if len(record.OutputFiles) != 1 || record.OutputFiles[0] != "out/statement.md" {
		t.Errorf("Expected recorded output file, got %v", record.OutputFiles)
	}
}

func TestStepDuration(t *testing.T) {
	trail := NewTrail(NewMemoryStore(), nil)
	current := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	trail.now = func() time.Time { return current }

	sessionID := trail.StartSession("analyst", "ledger.csv", "")
	if err := trail.StartStep(sessionID, "validation", nil); err != nil {
		t.Fatalf("StartStep failed: %v", err)
	}

	current = current.Add(250 * time.Millisecond)
	if err := trail.EndStep(sessionID, "validation", StepCompleted, nil, nil, nil); err != nil {
		t.Fatalf("EndStep failed: %v", err)
	}

	summary, err := trail.SessionSummary(sessionID)
	if err != nil {
		t.Fatalf("SessionSummary failed: %v", err)
	}
	if summary.TotalSteps != 1 {
		t.Errorf("Expected 1 step, got %d", summary.TotalSteps)
	}

	trail.mu.Lock()
	step := trail.sessions[sessionID].ProcessingSteps[0]
	trail.mu.Unlock()
	if step.DurationMS != 250 {
		t.Errorf("Expected 250ms duration, got %f", step.DurationMS)
	}
}

func TestEndStepWithoutStart(t *testing.T) {
	trail := NewTrail(NewMemoryStore(), nil)
	sessionID := trail.StartSession("analyst", "ledger.csv", "")

	err := trail.EndStep(sessionID, "security_scan", StepFailed, nil, []string{"file too large"}, nil)
	if err != nil {
		t.Fatalf("EndStep failed: %v", err)
	}

	trail.mu.Lock()
	steps := trail.sessions[sessionID].ProcessingSteps
	trail.mu.Unlock()

	if len(steps) != 1 {
		t.Fatalf("Expected standalone step event, got %d steps", len(steps))
	}
	if steps[0].Status != StepFailed {
		t.Errorf("Expected failed status, got %s", steps[0].Status)
	}
	if len(steps[0].Errors) != 1 {
		t.Errorf("Expected recorded step error, got %v", steps[0].Errors)
	}
}

func TestUnknownSession(t *testing.T) {
	trail := NewTrail(NewMemoryStore(), nil)

	err := trail.StartStep("no-such-session", "validation", nil)
	if err == nil {
		t.Fatal("Expected error for unknown session")
	}
	pipelineErr, ok := apperrors.AsPipelineError(err)
	if !ok {
		t.Fatalf("Expected PipelineError, got %T", err)
	}
	if pipelineErr.Code != apperrors.CodeSessionNotFound {
		t.Errorf("Expected code %s, got %s", apperrors.CodeSessionNotFound, pipelineErr.Code)
	}
}

func TestErrorsAndWarnings(t *testing.T) {
	store := NewMemoryStore()
	trail := NewTrail(store, nil)
	sessionID := trail.StartSession("analyst", "ledger.csv", "")

	if err := trail.AddError(sessionID, "trial balance does not balance"); err != nil {
		t.Fatalf("AddError failed: %v", err)
	}
	if err := trail.AddWarning(sessionID, "2 zero amount records"); err != nil {
		t.Fatalf("AddWarning failed: %v", err)
	}
	if err := trail.EndSession(sessionID, SessionFailed); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	record, err := store.Load(sessionID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(record.Errors) != 1 || !strings.Contains(record.Errors[0].Message, "does not balance") {
		t.Errorf("Expected recorded error, got %v", record.Errors)
	}
	if len(record.Warnings) != 1 {
		t.Errorf("Expected recorded warning, got %v", record.Warnings)
	}
}

func TestStatistics(t *testing.T) {
	store := NewMemoryStore()
	trail := NewTrail(store, nil)

	for i := 0; i < 3; i++ {
		sessionID := trail.StartSession("analyst", "ledger.csv", "")
		if err := trail.SetTemplateUsed(sessionID, "profit_loss"); err != nil {
			t.Fatalf("SetTemplateUsed failed: %v", err)
		}
		status := SessionCompleted
		if i == 2 {
			status = SessionFailed
		}
		if err := trail.EndSession(sessionID, status); err != nil {
			t.Fatalf("EndSession failed: %v", err)
		}
	}

	stats, err := trail.Statistics(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.TotalSessions != 3 {
		t.Errorf("Expected 3 sessions, got %d", stats.TotalSessions)
	}
	if stats.SuccessfulSessions != 2 || stats.FailedSessions != 1 {
		t.Errorf("Expected 2 successful and 1 failed, got %d/%d",
			stats.SuccessfulSessions, stats.FailedSessions)
	}
	if stats.TemplateUsage["profit_loss"] != 3 {
		t.Errorf("Expected profit_loss used 3 times, got %v", stats.TemplateUsage)
	}
}

func TestStatisticsCutoff(t *testing.T) {
	store := NewMemoryStore()
	old := &Record{
		SessionID:       "old",
		Status:          SessionCompleted,
		ProcessingStart: time.Now().Add(-48 * time.Hour),
	}
	if err := store.Save(old); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	trail := NewTrail(store, nil)
	stats, err := trail.Statistics(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.TotalSessions != 0 {
		t.Errorf("Expected old session excluded, got %d sessions", stats.TotalSessions)
	}
}
