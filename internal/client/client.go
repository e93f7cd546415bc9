// Package client talks to the task API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"studydesk/internal/task"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) List(ctx context.Context) ([]task.Task, error) {
	return c.Query(ctx, task.Query{})
}

// Query lists the tasks matching q, evaluated server side.
func (c *Client) Query(ctx context.Context, q task.Query) ([]task.Task, error) {
	var out struct {
		Tasks []task.Task `json:"tasks"`
	}
	path := "/api/tasks"
	if v := encodeQuery(q); v != "" {
		path += "?" + v
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *Client) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	var out task.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", d, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	var out task.Task
	err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), p, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(status int, body []byte) *APIError {
	msg := ""
	if gjson.ValidBytes(body) {
		msg = gjson.GetBytes(body, "error").String()
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

func encodeQuery(q task.Query) string {
	v := url.Values{}
	if q.Priority != nil {
		v.Set("priority", string(*q.Priority))
	}
	if q.DueAfter != nil {
		v.Set("dueAfter", task.FormatTime(*q.DueAfter))
	}
	if q.DueBefore != nil {
		v.Set("dueBefore", task.FormatTime(*q.DueBefore))
	}
	if q.Completed != nil {
		v.Set("completed", fmt.Sprint(*q.Completed))
	}
	return v.Encode()
}
