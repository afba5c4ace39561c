package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule is a standard 5-field cron expression or descriptor,
	// e.g. "30 22 * * 1-5" or "@daily"
	Schedule() string
}

// JobResult is one execution including its retries
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// DefaultHistoryLimit 작업별 보관 결과 수
const DefaultHistoryLimit = 100

// JobHistory keeps the most recent results of one job, oldest first
type JobHistory struct {
	Results []JobResult
	limit   int
}

// NewJobHistory creates a history holding at most limit results (<= 0 = default)
func NewJobHistory(limit int) *JobHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &JobHistory{limit: limit}
}

// Add appends a result, dropping the oldest beyond the limit
func (h *JobHistory) Add(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - h.limit; over > 0 {
		h.Results = append([]JobResult(nil), h.Results[over:]...)
	}
}

// Latest returns up to n most recent results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	n = min(n, len(h.Results))
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// Last returns the most recent result
func (h *JobHistory) Last() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// Failures counts failed results
func (h *JobHistory) Failures() int {
	n := 0
	for _, r := range h.Results {
		if !r.Success {
			n++
		}
	}
	return n
}

// SuccessRate is successes / total in [0, 1] (0 with no results)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(len(h.Results)-h.Failures()) / float64(len(h.Results))
}
