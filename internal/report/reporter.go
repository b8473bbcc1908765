package report

import (
	"time"

	"github.com/google/uuid"
)

// ResultRecord describes the outcome of processing one source file.
// Exactly one of Moved or Err is set once processing completes.
type ResultRecord struct {
	Timestamp         time.Time
	SourceFolder      string
	SourceFileName    string
	NewFileName       string
	DestinationFolder string
	Moved             bool
	Err               error
}

// Failed reports whether the record carries an error.
func (r ResultRecord) Failed() bool {
	return r.Err != nil
}

// SystemError is a batch-level failure not attributable to one file.
type SystemError struct {
	Timestamp time.Time
	Message   string
}

// RunReport is the batch-scoped aggregate shared by every reporting stage.
// Results and SystemErrors only ever grow.
type RunReport struct {
	ID           uuid.UUID
	ScriptName   string
	StartedAt    time.Time
	FinishedAt   time.Time
	Results      []ResultRecord
	SystemErrors []SystemError

	now func() time.Time
}

// NewRunReport starts a report for one batch.
func NewRunReport(scriptName string, now func() time.Time) *RunReport {
	if now == nil {
		now = time.Now
	}
	return &RunReport{
		ID:         uuid.New(),
		ScriptName: scriptName,
		StartedAt:  now(),
		now:        now,
	}
}

// AddResult appends a processed file's record.
func (r *RunReport) AddResult(rec ResultRecord) {
	r.Results = append(r.Results, rec)
}

// AddSystemError appends a batch-level failure stamped with the current time.
func (r *RunReport) AddSystemError(message string) {
	r.SystemErrors = append(r.SystemErrors, SystemError{
		Timestamp: r.Now(),
		Message:   message,
	})
}

// Now returns the report's clock.
func (r *RunReport) Now() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

// Finish records the end of the processing stage.
func (r *RunReport) Finish() {
	r.FinishedAt = r.Now()
}

// ActionErrors returns the records that failed, in processing order.
func (r *RunReport) ActionErrors() []ResultRecord {
	var failed []ResultRecord
	for _, rec := range r.Results {
		if rec.Failed() {
			failed = append(failed, rec)
		}
	}
	return failed
}

// MovedCount returns the number of successfully moved files.
func (r *RunReport) MovedCount() int {
	n := 0
	for _, rec := range r.Results {
		if rec.Moved {
			n++
		}
	}
	return n
}

// ExitCode is 0 for a batch without system errors and 1 otherwise.
func (r *RunReport) ExitCode() int {
	if len(r.SystemErrors) > 0 {
		return 1
	}
	return 0
}
