package tms

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// ExecutionScope provides operations on one queue execution.
type ExecutionScope struct {
	client *Client
	key    string
}

// Execution returns an ExecutionScope for the execution with the given key.
func (c *Client) Execution(key string) *ExecutionScope {
	return &ExecutionScope{client: c, key: key}
}

// Results returns the execution's test results, sized to pageSize.
// Only the first page is retrieved: if the run holds more results than
// pageSize, the remainder is not fetched. That is a long-standing,
// accepted limitation of the collection pipeline, sized around by
// configuring pageSize above the largest known suite.
func (e *ExecutionScope) Results(ctx context.Context, pageSize int) ([]ResultItem, error) {
	params := url.Values{}
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))

	u := fmt.Sprintf("%s/api/v1/executions/%s/results?%s",
		e.client.baseURL, url.PathEscape(e.key), params.Encode())

	var paged PagedResults
	if err := e.client.doJSON(ctx, "GET", u, "fetch results", nil, &paged); err != nil {
		return nil, err
	}
	return paged.Items, nil
}

// ResultScope provides operations on one test result.
type ResultScope struct {
	client   *Client
	resultID string
}

// Result returns a ResultScope for the result with the given id.
func (c *Client) Result(id string) *ResultScope {
	return &ResultScope{client: c, resultID: id}
}

// FailureDetail returns the ordered step list for a failed result.
func (r *ResultScope) FailureDetail(ctx context.Context) ([]DetailStep, error) {
	u := fmt.Sprintf("%s/api/v1/results/%s/steps",
		r.client.baseURL, url.PathEscape(r.resultID))

	var paged PagedSteps
	if err := r.client.doJSON(ctx, "GET", u, "fetch failure detail", nil, &paged); err != nil {
		return nil, err
	}
	return paged.Items, nil
}

// FailureDetail is shorthand for Result(id).FailureDetail(ctx).
func (c *Client) FailureDetail(ctx context.Context, resultID string) ([]DetailStep, error) {
	return c.Result(resultID).FailureDetail(ctx)
}

// DownloadAttachment returns the raw bytes of an attachment. reference is
// either an absolute URL or an attachment id relative to the platform.
func (c *Client) DownloadAttachment(ctx context.Context, reference string) ([]byte, error) {
	u := reference
	if !strings.HasPrefix(reference, "http://") && !strings.HasPrefix(reference, "https://") {
		u = fmt.Sprintf("%s/api/v1/attachments/%s", c.baseURL, url.PathEscape(reference))
	}
	return c.doRaw(ctx, u, "download attachment")
}
