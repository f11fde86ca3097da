// Package tms provides a scope-based client for the test-management
// platform's REST API.
//
// The client carries a pre-established authenticated session: the login
// collaborator hands over an *http.Client (cookie jar already populated)
// and the client never performs login, token refresh, or retry-on-401.
//
// Usage:
//
//	client, err := tms.New(baseURL, tms.WithHTTPClient(session), tms.WithTimeout(30*time.Second))
//	queues, err := client.ListQueueDefinitions(ctx)
//	page, err := client.Queue("q-17").ListExecutions(ctx, tms.WithPage(1), tms.WithPageSize(20))
//	results, err := client.Execution("exec-1003").Results(ctx, 100)
//	steps, err := client.Result("r-55").FailureDetail(ctx)
package tms
