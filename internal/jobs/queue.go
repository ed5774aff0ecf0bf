package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"auction-backoffice/internal/domain/queue"

	"gorm.io/gorm"
)

// Job types.
const (
	TypeDownloadImages = "download_auction_images"
	TypeProcessAuction = "process_auction"
	TypeCleanup        = "cleanup_old_images"
)

// Enqueue stores a job for the worker pool to pick up.
func Enqueue(db *gorm.DB, jobType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	job := queue.Job{
		Type:    jobType,
		Payload: string(raw),
		Status:  queue.StatusPending,
		RunAt:   time.Now(),
	}
	return db.Create(&job).Error
}

// A running job untouched for this long was claimed by a worker that died;
// it goes back to pending. Longer than any handler's own timeout (the AI
// call allows 120s).
const staleJobTimeout = 15 * time.Minute

// claim picks the oldest runnable pending job and flips it to running. The
// conditional update arbitrates between competing workers; losing the race
// just means trying again on the next poll.
func claim(db *gorm.DB) (*queue.Job, error) {
	res := db.Model(&queue.Job{}).
		Where("status = ? AND updated_at < ?", queue.StatusRunning, time.Now().Add(-staleJobTimeout)).
		Update("status", queue.StatusPending)
	if res.Error != nil {
		return nil, res.Error
	}

	var job queue.Job
	err := db.
		Where("status = ? AND run_at <= ?", queue.StatusPending, time.Now()).
		Order("id").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res = db.Model(&queue.Job{}).
		Where("id = ? AND status = ?", job.ID, queue.StatusPending).
		Updates(map[string]any{
			"status":   queue.StatusRunning,
			"attempts": gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	job.Status = queue.StatusRunning
	job.Attempts++
	return &job, nil
}

func markDone(db *gorm.DB, job *queue.Job) error {
	return db.Model(job).Update("status", queue.StatusDone).Error
}

func markFailed(db *gorm.DB, job *queue.Job, cause error) error {
	msg := cause.Error()
	return db.Model(job).Updates(map[string]any{
		"status":     queue.StatusFailed,
		"last_error": &msg,
	}).Error
}

// reschedule puts the job back in the queue after a fixed backoff.
func reschedule(db *gorm.DB, job *queue.Job, backoff time.Duration, cause error) error {
	msg := cause.Error()
	return db.Model(job).Updates(map[string]any{
		"status":     queue.StatusPending,
		"run_at":     time.Now().Add(backoff),
		"last_error": &msg,
	}).Error
}
