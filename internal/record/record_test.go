package record

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNormalizeOutcome(t *testing.T) {
	cases := []struct {
		raw  string
		want Outcome
	}{
		{"SUCCESS", OutcomePassed},
		{"success", OutcomePassed},
		{"Passed", OutcomePassed},
		{"true", OutcomePassed},
		{"FAILED", OutcomeFailed},
		{"failure", OutcomeFailed},
		{"false", OutcomeFailed},
		{" FAILED ", OutcomeFailed},
		{"SKIPPED", OutcomeUnknown},
		{"", OutcomeUnknown},
		{"IN_PROGRESS", OutcomeUnknown},
	}
	for _, c := range cases {
		if got := NormalizeOutcome(c.raw); got != c.want {
			t.Errorf("NormalizeOutcome(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestIssueKey_TriState(t *testing.T) {
	type doc struct {
		JiraKey IssueKey `json:"jiraKey,omitzero"`
	}

	// Never looked up: field absent.
	b, err := json.Marshal(doc{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "jiraKey") {
		t.Errorf("unresolved key should be omitted, got %s", b)
	}

	// Looked up, not found: explicit null.
	b, err = json.Marshal(doc{JiraKey: NoIssue()})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"jiraKey":null}` {
		t.Errorf("confirmed-absent key: got %s", b)
	}

	// Found.
	b, err = json.Marshal(doc{JiraKey: FoundIssue("PROJ-42")})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"jiraKey":"PROJ-42"}` {
		t.Errorf("found key: got %s", b)
	}
}

func TestIssueKey_Roundtrip(t *testing.T) {
	var k IssueKey
	if err := json.Unmarshal([]byte(`"PROJ-7"`), &k); err != nil {
		t.Fatal(err)
	}
	key, found := k.Key()
	if !k.Resolved() || !found || key != "PROJ-7" {
		t.Errorf("got %+v", k)
	}

	if err := json.Unmarshal([]byte(`null`), &k); err != nil {
		t.Fatal(err)
	}
	if _, found := k.Key(); !k.Resolved() || found {
		t.Errorf("null should resolve to confirmed-absent, got %+v", k)
	}
}

func TestEpochMillis_Roundtrip(t *testing.T) {
	var e EpochMillis
	if err := json.Unmarshal([]byte("1735689600000"), &e); err != nil {
		t.Fatal(err)
	}
	if e.Time().UnixMilli() != 1735689600000 {
		t.Errorf("got %v", e.Time())
	}

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "1735689600000" {
		t.Errorf("marshal: got %s", b)
	}
}

func TestEpochMillis_MicroDetection(t *testing.T) {
	var e EpochMillis
	if err := json.Unmarshal([]byte("1735689600000000"), &e); err != nil {
		t.Fatal(err)
	}
	if e.Time().UnixMilli() != 1735689600000 {
		t.Errorf("microsecond input mis-detected: %v", e.Time())
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{90 * time.Second, "00:01:30"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{time.Hour + 2*time.Minute + 3*time.Second + 900*time.Millisecond, "01:02:03"},
		{25 * time.Hour, "25:00:00"},
		{-5 * time.Second, "00:00:00"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
