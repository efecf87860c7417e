// Package task holds the result shape returned by the decomposition service.
package task

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result is the outcome the service reports for one subtask.
type Result struct {
	Status  Status
	Message string
}

// Succeeded reports whether the service marked the subtask successful.
// Anything other than "success" counts as a failure.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

type Subtask struct {
	Agent  string
	Action string
	// Result is nil when the service omitted it or sent something unreadable.
	Result *Result
}

// Outcome is one completed service call. It is built once by the dispatcher
// and never modified afterwards.
type Outcome struct {
	TaskID    string
	Status    string
	Subtasks  []Subtask
	FinalText string
}
