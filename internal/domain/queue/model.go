package queue

import "time"

// Job statuses.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Job is one durable unit of background work. Payloads carry minimal
// identifiers (auction id, submitted URLs) so a retried job re-reads current
// state instead of acting on a stale snapshot.
type Job struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Type    string `gorm:"not null;index:idx_jobs_claim,priority:2" json:"type"`
	Payload string `gorm:"not null;default:'{}'" json:"payload"`

	Status   string `gorm:"not null;default:'pending';index:idx_jobs_claim,priority:1" json:"status"`
	Attempts int    `gorm:"not null;default:0" json:"attempts"`

	// Earliest time the job may run; pushed forward by retry backoff.
	RunAt time.Time `gorm:"not null;index" json:"run_at"`

	LastError *string `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
