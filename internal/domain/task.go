package domain

import "time"

// TaskState is the normalized three-valued status model used internally no
// matter which vocabulary the provider speaks.
type TaskState string

const (
	TaskProcessing TaskState = "processing"
	TaskCompleted  TaskState = "completed"
	TaskFailed     TaskState = "failed"
)

// TaskStatus is one normalized answer from a provider status check.
type TaskStatus struct {
	State         TaskState
	Images        []string
	FailureReason string
}

// Task tracks one asynchronous unit of work at the external provider. It is
// created by a successful submit and mutated only by its single poll loop.
type Task struct {
	ID            string
	SubmittedAt   time.Time
	State         TaskState
	ResultImages  []string
	FailureReason string
}

// ItemStatus is the per-uploaded-image processing status surfaced to callers.
type ItemStatus string

const (
	ItemIdle       ItemStatus = "idle"
	ItemProcessing ItemStatus = "processing"
	ItemDone       ItemStatus = "done"
	ItemError      ItemStatus = "error"
)

// RestageTask is the wire message dispatched to the batch worker. The image is
// carried as a data URI or an already-public URL.
type RestageTask struct {
	ID              string         `json:"id"`
	Image           string         `json:"image"`
	RoomType        string         `json:"room_type"`
	CustomRoomLabel string         `json:"custom_room_label,omitempty"`
	DesignStyle     string         `json:"design_style"`
	Options         RestageOptions `json:"options"`
	SubmittedAt     time.Time      `json:"submitted_at"`
}

// RestageResult is emitted to the results topic when a worker finishes a task.
type RestageResult struct {
	ID          string     `json:"id"`
	Status      ItemStatus `json:"status"`
	Images      []string   `json:"images,omitempty"`
	Error       string     `json:"error,omitempty"`
	CompletedAt time.Time  `json:"completed_at"`
}

const (
	KafkaTopicRestage = "restage-tasks"
	KafkaTopicResults = "restage-results"
	KafkaGroupID      = "restage-worker-group"
)

const (
	DefaultPollInterval    = 2 * time.Second
	DefaultFirstPollDelay  = 500 * time.Millisecond
	DefaultMaxPollAttempts = 60
)
