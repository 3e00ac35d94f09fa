package queue

// TypeEcho runs the echo workflow on an already stored upload.
const TypeEcho = "pipeline:echo"

// DefaultQueue is the only queue the API enqueues to.
const DefaultQueue = "default"

type EchoPayload struct {
	Filename string `json:"filename"`
}

// JobState is the client-facing lifecycle of a deferred job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// JobStatus is what GET /jobs/{id} reports.
type JobStatus struct {
	JobID  string   `json:"job_id"`
	State  JobState `json:"state"`
	Result any      `json:"result,omitempty"`
	Error  string   `json:"error,omitempty"`
}
