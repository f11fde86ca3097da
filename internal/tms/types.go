package tms

import (
	"strings"

	"magpie/internal/record"
)

// --- Platform response types (hand-written, aligned with the v1 REST API) ---

// QueueDefinition is one work queue as the platform reports it.
type QueueDefinition struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// QueueExecution is one completed run of a queue. The record list is not
// inlined; it is fetched separately via ExecutionScope.Results.
type QueueExecution struct {
	Key        string              `json:"key"`
	Name       string              `json:"name,omitempty"`
	Status     string              `json:"status,omitempty"`
	StartedAt  *record.EpochMillis `json:"startedAt,omitempty"`
	FinishedAt *record.EpochMillis `json:"finishedAt,omitempty"`
}

// ResultItem is one test result inside a queue execution.
type ResultItem struct {
	ID           string              `json:"id"`
	TestName     string              `json:"testName,omitempty"`
	ScenarioName string              `json:"scenarioName,omitempty"`
	Key          string              `json:"key,omitempty"`
	Status       string              `json:"status,omitempty"`
	StartedAt    *record.EpochMillis `json:"startedAt,omitempty"`
	FinishedAt   *record.EpochMillis `json:"finishedAt,omitempty"`
	Duration     string              `json:"duration,omitempty"`
	Actor        string              `json:"actor,omitempty"`
}

// DetailStep is one step of a result's failure detail.
type DetailStep struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	Status      string `json:"status,omitempty"`
	// Reference points at an attachment (screenshot) for this step,
	// either an attachment id or an absolute URL.
	Reference string `json:"reference,omitempty"`
}

// IsFailure reports whether this step is the failure to surface: its own
// outcome is failed and the step is not disabled.
func (s DetailStep) IsFailure() bool {
	return record.NormalizeOutcome(s.Outcome) == record.OutcomeFailed &&
		!strings.EqualFold(s.Status, "disabled")
}

// --- Paginated response wrappers ---

// PagedExecutions is the paginated response for execution listing.
type PagedExecutions struct {
	Items []QueueExecution `json:"items"`
	Count int              `json:"count"`
}

// PagedResults is the paginated response for result listing.
type PagedResults struct {
	Items []ResultItem `json:"items"`
	Count int          `json:"count"`
}

// PagedQueues is the response for queue-definition listing.
type PagedQueues struct {
	Items []QueueDefinition `json:"items"`
}

// PagedSteps is the response for failure-detail listing.
type PagedSteps struct {
	Items []DetailStep `json:"items"`
}

// ErrorRS is the standard platform error response shape.
type ErrorRS struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
}
