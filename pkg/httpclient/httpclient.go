package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the small HTTP surface the adapters depend on.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	PostJSON(ctx context.Context, url string, headers map[string]string, body any) (*resty.Response, error)
}

// RestyClient implements Client on top of resty.
type RestyClient struct {
	client *resty.Client
}

var _ Client = (*RestyClient)(nil)

// NewRestyClient builds a client with a fixed per-request timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RestyClient{client: resty.New().SetTimeout(timeout)}
}

// Get issues a GET request. Non-2xx responses are returned without error.
func (c *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
}

// PostJSON marshals body as JSON and posts it.
func (c *RestyClient) PostJSON(ctx context.Context, url string, headers map[string]string, body any) (*resty.Response, error) {
	return c.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
}

// IsSuccess reports a 2xx status.
func IsSuccess(resp *resty.Response) bool {
	return resp != nil && resp.StatusCode() >= 200 && resp.StatusCode() < 300
}

// Snippet returns at most n bytes of the response body for error messages.
func Snippet(resp *resty.Response, n int) string {
	if resp == nil {
		return ""
	}
	body := resp.Body()
	if len(body) > n {
		body = body[:n]
	}
	return string(body)
}
