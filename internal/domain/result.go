package domain

import (
	"sync"
	"time"
)

// ItemError records a per-item failure inside a sync task.
type ItemError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// SyncResult accumulates the outcome of one sync task. It is append-only and
// safe for concurrent use by work queue operations.
type SyncResult struct {
	mu      sync.Mutex
	Family  string      `json:"family"`
	Errors  []ItemError `json:"errors"`
	Created []string    `json:"created"`
	Updated []string    `json:"updated"`
	Skipped []string    `json:"skipped"`
}

// ResultCounts is the per-family line of the end of run summary.
type ResultCounts struct {
	Family  string `json:"family"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

func NewSyncResult(family string) *SyncResult {
	return &SyncResult{Family: family}
}

func (r *SyncResult) AddError(key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, ItemError{Key: key, Message: err.Error()})
}

func (r *SyncResult) AddCreated(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Created = append(r.Created, key)
}

func (r *SyncResult) AddUpdated(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Updated = append(r.Updated, key)
}

func (r *SyncResult) AddSkipped(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Skipped = append(r.Skipped, key)
}

// Counts returns a snapshot of the result sizes.
func (r *SyncResult) Counts() ResultCounts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ResultCounts{
		Family:  r.Family,
		Created: len(r.Created),
		Updated: len(r.Updated),
		Skipped: len(r.Skipped),
		Failed:  len(r.Errors),
	}
}

// ErrorList returns a copy of the recorded errors.
func (r *SyncResult) ErrorList() []ItemError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ItemError(nil), r.Errors...)
}

// ActionStatus is the lifecycle of a tracked write.
type ActionStatus string

const (
	ActionPending ActionStatus = "pending"
	ActionSuccess ActionStatus = "success"
	ActionFailed  ActionStatus = "failed"
	ActionSkipped ActionStatus = "skipped"
)

// Action is one tracked unit of work, typically a single create or update.
type Action struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Family    string       `json:"family"`
	Status    ActionStatus `json:"status"`
	Data      any          `json:"data,omitempty"`
	Error     string       `json:"error,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// ActionSummary counts actions by status.
type ActionSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
	Skipped int `json:"skipped"`
}

// TaskState is the position of a sync task in its run.
type TaskState string

const (
	StateInit           TaskState = "INIT"
	StateFetchingSource TaskState = "FETCHING_SOURCE"
	StateFetchingTarget TaskState = "FETCHING_TARGET"
	StateBuildingMap    TaskState = "BUILDING_IDENTIFIER_MAP"
	StateDiffing        TaskState = "DIFFING"
	StateWriting        TaskState = "WRITING"
	StateDone           TaskState = "DONE"
	StateFailed         TaskState = "FAILED"
)

// ProgressEvent is published whenever a task changes state or an action settles.
type ProgressEvent struct {
	RunID     string    `json:"runId"`
	Family    string    `json:"family"`
	State     TaskState `json:"state,omitempty"`
	Action    *Action   `json:"action,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RunReport is the persisted record of one CLI invocation.
type RunReport struct {
	RunID      string                 `json:"runId"`
	Command    string                 `json:"command"`
	Tasks      []string               `json:"tasks"`
	Status     string                 `json:"status"`
	Error      string                 `json:"error,omitempty"`
	Results    []ResultCounts         `json:"results"`
	Errors     map[string][]ItemError `json:"errors,omitempty"`
	Summary    ActionSummary          `json:"summary"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt time.Time              `json:"finishedAt"`
}
