package logger

import (
	"fmt"
	"sync"
	"time"
)

// StageLogger provides structured logging for a pipeline stage with timing
type StageLogger struct {
	logger    Logger
	stage     string
	fields    Fields
	startTime time.Time
}

// NewStageLogger creates a new stage logger
func NewStageLogger(stage string, logger Logger) *StageLogger {
	if logger == nil {
		logger = NewNopLogger()
	}

	sl := &StageLogger{
		logger:    logger.WithComponent("pipeline"),
		stage:     stage,
		fields:    make(Fields),
		startTime: time.Now(),
	}

	sl.logger.WithField("stage", stage).Info("Starting stage")
	return sl
}

// WithField adds a field to the stage context
func (sl *StageLogger) WithField(key string, value interface{}) *StageLogger {
	sl.fields[key] = value
	return sl
}

// Step logs a step within the stage
func (sl *StageLogger) Step(step string) {
	fields := Fields{
		"stage": sl.stage,
		"step":  step,
	}
	for k, v := range sl.fields {
		fields[k] = v
	}

	sl.logger.WithFields(fields).Info("Stage step")
}

// Success completes the stage successfully
func (sl *StageLogger) Success(message string) {
	duration := time.Since(sl.startTime)
	fields := Fields{
		"stage":    sl.stage,
		"duration": duration.String(),
		"status":   "success",
	}
	for k, v := range sl.fields {
		fields[k] = v
	}

	sl.logger.WithFields(fields).Info(message)
}

// Error completes the stage with an error
func (sl *StageLogger) Error(err error, message string) {
	duration := time.Since(sl.startTime)
	fields := Fields{
		"stage":    sl.stage,
		"duration": duration.String(),
		"status":   "error",
	}
	for k, v := range sl.fields {
		fields[k] = v
	}

	sl.logger.WithError(err).WithFields(fields).Error(message)
}

// Warning logs a warning during the stage
func (sl *StageLogger) Warning(message string) {
	fields := Fields{
		"stage": sl.stage,
	}
	for k, v := range sl.fields {
		fields[k] = v
	}

	sl.logger.WithFields(fields).Warn(message)
}

// BatchTracker tracks progress of a batch run over multiple input files
type BatchTracker struct {
	logger      Logger
	total       int64
	processed   int64
	failed      int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// NewBatchTracker creates a tracker for a batch run of total files
func NewBatchTracker(total int64, logger Logger) *BatchTracker {
	if logger == nil {
		logger = NewNopLogger()
	}

	tracker := &BatchTracker{
		logger:      logger.WithComponent("batch"),
		total:       total,
		startTime:   time.Now(),
		lastLogTime: time.Now(),
		logInterval: 5 * time.Second,
	}

	tracker.logger.WithField("total_files", total).Info("Starting batch run")
	return tracker
}

// FileDone records one processed file
func (b *BatchTracker) FileDone(path string, err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.processed++
	if err != nil {
		b.failed++
		b.logger.WithError(err).WithField("file", path).Warn("File failed")
	}

	now := time.Now()
	if now.Sub(b.lastLogTime) >= b.logInterval {
		b.logProgress(now)
		b.lastLogTime = now
	}
}

// Complete logs final batch statistics
func (b *BatchTracker) Complete() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	duration := time.Since(b.startTime)
	b.logger.WithFields(Fields{
		"total_files": b.total,
		"processed":   b.processed,
		"failed":      b.failed,
		"duration":    duration.String(),
	}).Info("Batch run completed")
}

// Stats returns a snapshot of batch progress
func (b *BatchTracker) Stats() BatchStats {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return BatchStats{
		Total:     b.total,
		Processed: b.processed,
		Failed:    b.failed,
		Duration:  time.Since(b.startTime),
	}
}

func (b *BatchTracker) logProgress(now time.Time) {
	duration := now.Sub(b.startTime)
	var rate float64
	if duration.Seconds() > 0 {
		rate = float64(b.processed) / duration.Seconds()
	}

	fields := Fields{
		"processed": b.processed,
		"failed":    b.failed,
		"rate":      fmt.Sprintf("%.2f/sec", rate),
	}
	if b.total > 0 {
		fields["total_files"] = b.total
		fields["percentage"] = fmt.Sprintf("%.1f%%", float64(b.processed)/float64(b.total)*100)
	}

	b.logger.WithFields(fields).Info("Batch progress")
}

// BatchStats contains batch progress statistics
type BatchStats struct {
	Total     int64         `json:"total"`
	Processed int64         `json:"processed"`
	Failed    int64         `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// String returns a human-readable representation of the batch progress
func (bs BatchStats) String() string {
	return fmt.Sprintf("%d/%d files processed (%d failed) in %v",
		bs.Processed, bs.Total, bs.Failed, bs.Duration)
}

// TimedStage executes a function and logs timing information for the stage
func TimedStage(stage string, logger Logger, fn func() error) error {
	sl := NewStageLogger(stage, logger)

	err := fn()

	if err != nil {
		sl.Error(err, "Stage failed")
	} else {
		sl.Success("Stage completed")
	}

	return err
}
