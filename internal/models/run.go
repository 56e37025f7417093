package models

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunPending    RunStatus = "pending"
	RunValidating RunStatus = "validating"
	RunEnriching  RunStatus = "enriching"
	RunPersisting RunStatus = "persisting"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// Terminal reports whether the run has finished.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// PipelineRun tracks one asynchronous intake. It keeps the submission so a
// failed run can be executed again from the start.
type PipelineRun struct {
	ID        string    `json:"run_id" gorm:"primaryKey;size:16"`
	Status    RunStatus `json:"status" gorm:"size:16;not null;index"`
	// Stage is the stage a failed run stopped in. It is empty when the run
	// failed before any stage ran, e.g. the queue refused it.
	Stage     RunStatus `json:"failed_stage,omitempty" gorm:"size:16"`
	Reason    string    `json:"reason,omitempty" gorm:"type:text"`
	RecordID  string    `json:"record_id,omitempty" gorm:"size:36"`
	Attempts  int       `json:"attempts" gorm:"not null;default:0"`
	Message   string    `json:"-" gorm:"type:text;not null"`
	Source    string    `json:"source"`
	Product   string    `json:"product"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name.
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// Submission rebuilds the intake payload the run was created from.
func (r *PipelineRun) Submission() FeedbackSubmission {
	return FeedbackSubmission{
		Message: r.Message,
		Source:  r.Source,
		Product: r.Product,
	}
}

// RunHandle is returned to the submitter.
type RunHandle struct {
	RunID  string    `json:"run_id"`
	Status RunStatus `json:"status"`
}
