package tms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ListQueueDefinitions returns the work queues the platform knows about.
func (c *Client) ListQueueDefinitions(ctx context.Context) ([]QueueDefinition, error) {
	u := fmt.Sprintf("%s/api/v1/queues", c.baseURL)

	var paged PagedQueues
	if err := c.doJSON(ctx, "GET", u, "list queue definitions", nil, &paged); err != nil {
		return nil, err
	}
	return paged.Items, nil
}

// QueueScope provides read operations on one work queue.
type QueueScope struct {
	client  *Client
	queueID string
}

// Queue returns a QueueScope for the queue with the given platform id.
func (c *Client) Queue(id string) *QueueScope {
	return &QueueScope{client: c, queueID: id}
}

// ListExecutionsOption configures pagination for execution listing.
type ListExecutionsOption func(params url.Values)

// ListExecutions returns one page of the queue's executions. The platform
// guarantees newest-first ordering; the client does not re-sort.
func (q *QueueScope) ListExecutions(ctx context.Context, opts ...ListExecutionsOption) (*PagedExecutions, error) {
	params := url.Values{}
	for _, opt := range opts {
		opt(params)
	}

	u := fmt.Sprintf("%s/api/v1/queues/%s/executions?%s",
		q.client.baseURL, url.PathEscape(q.queueID), params.Encode())

	var paged PagedExecutions
	if err := q.client.doJSON(ctx, "GET", u, "list executions", nil, &paged); err != nil {
		return nil, err
	}
	return &paged, nil
}

// WithPage sets the page number (1-based) for listing.
func WithPage(n int) ListExecutionsOption {
	return func(p url.Values) { p.Set("page", strconv.Itoa(n)) }
}

// WithPageSize sets the page size for listing.
func WithPageSize(size int) ListExecutionsOption {
	return func(p url.Values) { p.Set("pageSize", strconv.Itoa(size)) }
}
