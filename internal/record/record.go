package record

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// maxMillisTimestamp is the upper bound for a value to be interpreted as
// milliseconds (approximately year 2286). Values at or above this threshold
// are treated as microseconds.
const maxMillisTimestamp int64 = 1e13

// EpochMillis represents a point in time serialized as an integer epoch
// timestamp. On deserialization it auto-detects whether the value is
// milliseconds or microseconds based on its magnitude. Serialization always
// produces milliseconds.
type EpochMillis time.Time

// Time returns the underlying time.Time value.
func (e EpochMillis) Time() time.Time { return time.Time(e) }

// MarshalJSON serializes EpochMillis as Unix milliseconds.
func (e EpochMillis) MarshalJSON() ([]byte, error) {
	ms := time.Time(e).UnixMilli()
	return json.Marshal(ms)
}

// UnmarshalJSON deserializes an integer timestamp, auto-detecting ms or us.
func (e *EpochMillis) UnmarshalJSON(data []byte) error {
	var value int64
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("unmarshal epoch millis: %w", err)
	}
	if value >= maxMillisTimestamp {
		*e = EpochMillis(time.UnixMicro(value))
	} else {
		*e = EpochMillis(time.UnixMilli(value))
	}
	return nil
}

// Outcome is the normalized result of one test execution. The platform
// reports free-form status strings; NormalizeOutcome folds them into this
// closed set once, at the ingestion boundary, so the rest of the pipeline
// never compares raw strings.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomePassed
	OutcomeFailed
)

// String returns the canonical name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "PASSED"
	case OutcomeFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// NormalizeOutcome maps a raw platform status string onto the closed
// Outcome set. The platform has been observed to report "SUCCESS",
// "PASSED" and boolean-ish "true" for passing tests, with arbitrary
// casing; anything unrecognized is Unknown, never Failed.
func NormalizeOutcome(raw string) Outcome {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "PASSED", "PASS", "TRUE":
		return OutcomePassed
	case "FAILED", "FAILURE", "FAIL", "FALSE":
		return OutcomeFailed
	default:
		return OutcomeUnknown
	}
}

// IssueKey is a tri-state issue-tracker reference on a record:
// the zero value means the test name was never looked up (the field is
// omitted from JSON), a resolved-but-absent lookup serializes as null,
// and a resolved lookup serializes as the key string.
type IssueKey struct {
	resolved bool
	key      string
	found    bool
}

// FoundIssue returns an IssueKey for a successful lookup.
func FoundIssue(key string) IssueKey {
	return IssueKey{resolved: true, key: key, found: true}
}

// NoIssue returns an IssueKey for a lookup that confirmed no issue exists.
func NoIssue() IssueKey {
	return IssueKey{resolved: true}
}

// Resolved reports whether a lookup was performed for this record.
func (k IssueKey) Resolved() bool { return k.resolved }

// Key returns the issue key and whether a lookup found one.
func (k IssueKey) Key() (string, bool) { return k.key, k.found }

// IsZero reports whether no lookup was performed; encoding/json omits
// the field via the omitzero tag in that case.
func (k IssueKey) IsZero() bool { return !k.resolved }

// MarshalJSON emits the key string, or null for a confirmed-absent lookup.
func (k IssueKey) MarshalJSON() ([]byte, error) {
	if !k.found {
		return []byte("null"), nil
	}
	return json.Marshal(k.key)
}

// UnmarshalJSON reads back a key or null; a field that is present at all
// means a lookup happened.
func (k *IssueKey) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = NoIssue()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal issue key: %w", err)
	}
	*k = FoundIssue(s)
	return nil
}

// ExecutionRecord is one individual automated test's outcome within a
// queue execution, plus the enrichment attached by the pipeline.
//
// Invariant: after enrichment, a failed record carries either all three of
// ErrorTitle/ErrorDescription/Screenshot or none of them.
type ExecutionRecord struct {
	ID           string      `json:"id"`
	TestName     string      `json:"testName"`
	ScenarioName string      `json:"scenarioName"`
	Key          string      `json:"key"`
	Status       string      `json:"status"`
	StartedAt    EpochMillis `json:"startedAt"`
	FinishedAt   EpochMillis `json:"finishedAt"`
	Duration     string      `json:"duration"`
	Actor        string      `json:"actor"`

	ErrorTitle       string   `json:"errorTitle,omitempty"`
	ErrorDescription string   `json:"errorDescription,omitempty"`
	Screenshot       string   `json:"screenshot,omitempty"`
	JiraKey          IssueKey `json:"jiraKey,omitzero"`

	Outcome Outcome `json:"-"`
}

// FormatDuration renders d as HH:mm:ss, truncated to whole seconds.
// Durations of a day or more keep accumulating hours (25:00:00).
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
