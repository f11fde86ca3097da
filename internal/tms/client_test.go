package tms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- Queue tests ---

func TestListQueueDefinitions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/queues" && r.Method == "GET" {
			json.NewEncoder(w).Encode(PagedQueues{
				Items: []QueueDefinition{
					{ID: "q-1", Name: "Finance Regression"},
					{ID: "q-2", Name: "Payments Smoke"},
				},
			})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := New(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}

	queues, err := client.ListQueueDefinitions(context.Background())
	if err != nil {
		t.Fatalf("ListQueueDefinitions: %v", err)
	}
	if len(queues) != 2 || queues[0].Name != "Finance Regression" {
		t.Errorf("unexpected queues: %+v", queues)
	}
}

func TestQueueScope_ListExecutions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/queues/q-1/executions" {
			if r.URL.Query().Get("page") != "1" || r.URL.Query().Get("pageSize") != "20" {
				t.Errorf("unexpected query: %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(PagedExecutions{
				Items: []QueueExecution{
					{Key: "1003"},
					{Key: "1002"},
					{Key: "1001"},
				},
				Count: 3,
			})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, _ := New(server.URL, WithHTTPClient(server.Client()))
	page, err := client.Queue("q-1").ListExecutions(context.Background(), WithPage(1), WithPageSize(20))
	if err != nil {
		t.Fatalf("ListExecutions: %v", err)
	}
	if page.Count != 3 || len(page.Items) != 3 || page.Items[0].Key != "1003" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestQueueScope_ListExecutions_ErrorRS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorRS{ErrorCode: 40410, Message: "Queue not found"})
	}))
	defer server.Close()

	client, _ := New(server.URL, WithHTTPClient(server.Client()))
	_, err := client.Queue("nope").ListExecutions(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected IsNotFound, got: %v", err)
	}
}

// --- Execution / result tests ---

func TestExecutionScope_Results(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/executions/1003/results" {
			if r.URL.Query().Get("pageSize") != "100" {
				t.Errorf("unexpected query: %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(PagedResults{
				Items: []ResultItem{
					{ID: "r-1", TestName: "Login with valid credentials", Status: "SUCCESS"},
					{ID: "r-2", TestName: "Login with expired password", Status: "FAILED"},
				},
				Count: 2,
			})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, _ := New(server.URL, WithHTTPClient(server.Client()))
	results, err := client.Execution("1003").Results(context.Background(), 100)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(results) != 2 || results[1].Status != "FAILED" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestResultScope_FailureDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/results/r-2/steps" {
			json.NewEncoder(w).Encode(PagedSteps{
				Items: []DetailStep{
					{Title: "Open login page", Outcome: "SUCCESS"},
					{Title: "Submit form", Description: "timeout waiting for selector", Outcome: "FAILED", Reference: "att-9"},
				},
			})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, _ := New(server.URL, WithHTTPClient(server.Client()))
	steps, err := client.Result("r-2").FailureDetail(context.Background())
	if err != nil {
		t.Fatalf("FailureDetail: %v", err)
	}
	if len(steps) != 2 || steps[1].Reference != "att-9" {
		t.Errorf("unexpected steps: %+v", steps)
	}
}

func TestDetailStep_IsFailure(t *testing.T) {
	cases := []struct {
		step DetailStep
		want bool
	}{
		{DetailStep{Outcome: "FAILED"}, true},
		{DetailStep{Outcome: "failed", Status: "active"}, true},
		{DetailStep{Outcome: "FAILED", Status: "disabled"}, false},
		{DetailStep{Outcome: "FAILED", Status: "DISABLED"}, false},
		{DetailStep{Outcome: "SUCCESS"}, false},
		{DetailStep{Outcome: "UNKNOWN"}, false},
	}
	for _, c := range cases {
		if got := c.step.IsFailure(); got != c.want {
			t.Errorf("IsFailure(%+v) = %v, want %v", c.step, got, c.want)
		}
	}
}

// --- Attachment tests ---

func TestDownloadAttachment_ByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/attachments/att-9" {
			w.Write([]byte("png-bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, _ := New(server.URL, WithHTTPClient(server.Client()))
	data, err := client.DownloadAttachment(context.Background(), "att-9")
	if err != nil {
		t.Fatalf("DownloadAttachment: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("unexpected body: %q", data)
	}
}

func TestDownloadAttachment_AbsoluteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cdn/shot.png" {
			w.Write([]byte("cdn-bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, _ := New("http://unused.invalid", WithHTTPClient(server.Client()))
	data, err := client.DownloadAttachment(context.Background(), server.URL+"/cdn/shot.png")
	if err != nil {
		t.Fatalf("DownloadAttachment: %v", err)
	}
	if string(data) != "cdn-bytes" {
		t.Errorf("unexpected body: %q", data)
	}
}

// --- Session tests ---

func TestClient_SendsSessionCookie(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		json.NewEncoder(w).Encode(PagedQueues{})
	}))
	defer server.Close()

	client, _ := New(server.URL,
		WithHTTPClient(server.Client()),
		WithSessionCookie("SESSION=abc123"))
	if _, err := client.ListQueueDefinitions(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotCookie != "SESSION=abc123" {
		t.Errorf("expected session cookie, got %q", gotCookie)
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty baseURL")
	}
}
