package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const contentTypeJSON = "application/json"

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPost, path, body, 0)
}

// PostJSONWithTimeout is PostJSON with a per-request timeout, used for slow endpoints such as outbound email.
func (c *Client) PostJSONWithTimeout(ctx context.Context, path string, body any, timeout time.Duration) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPost, path, body, timeout)
}

func (c *Client) PutJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPut, path, body, 0)
}

func (c *Client) PatchJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPatch, path, body, 0)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// PostMultipart uploads form. timeout zero uses the client timeout.
func (c *Client) PostMultipart(ctx context.Context, path string, form *Form, timeout time.Duration) (*Response, error) {
	req, err := form.Request(path, timeout)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any, timeout time.Duration) (*Response, error) {
	req := Request{Method: method, Path: path, Timeout: timeout}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		req.Body = data
		req.ContentType = contentTypeJSON
	}
	return c.Do(ctx, req)
}
