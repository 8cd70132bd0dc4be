// Package httpapi implements the service.Service interface over the
// backend's JSON HTTP API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskboard/internal/service"
)

const (
	// APITimeout is the default timeout for API calls.
	APITimeout = 10 * time.Second

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://127.0.0.1:8000/api.
	BaseURL string

	// Token is the bearer credential. Empty builds an anonymous client.
	Token string

	// Timeout bounds each call. Zero uses APITimeout.
	Timeout time.Duration

	// HTTPClient is the base client. Nil uses http.DefaultClient's transport.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client implements service.Service using the JSON HTTP API.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	log     *slog.Logger
}

// New creates a client. When opts.Token is set every request carries
// "Authorization: Bearer <token>".
func New(ctx context.Context, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url: %q (want http or https)", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.Token != "" {
		// oauth2.NewClient picks the base transport up from the context.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(ctx, src)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = APITimeout
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		base:    base,
		http:    httpClient,
		timeout: timeout,
		log:     log,
	}, nil
}

// Health returns the backend health report.
func (c *Client) Health(ctx context.Context) (service.Health, error) {
	var h service.Health
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &h)
	return h, err
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (service.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res service.AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &res)
	return res, err
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, name, email, password string) (service.AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var res service.AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &res)
	return res, err
}

// CurrentUser returns the authenticated profile.
func (c *Client) CurrentUser(ctx context.Context) (service.User, error) {
	var u service.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &u)
	return u, err
}

// ListTasks returns tasks, optionally filtered by project.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]service.Task, error) {
	var q url.Values
	if projectID != "" {
		q = url.Values{"project_id": {projectID}}
	}
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, id string) (service.Task, error) {
	var t service.Task
	err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, nil, &t)
	return t, err
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	var t service.Task
	err := c.do(ctx, http.MethodPost, "/tasks", nil, in, &t)
	return t, err
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	var t service.Task
	err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), nil, patch, &t)
	return t, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, nil)
}

// ListProjects returns all projects.
func (c *Client) ListProjects(ctx context.Context) ([]service.Project, error) {
	var projects []service.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns a project with its tasks.
func (c *Client) GetProject(ctx context.Context, id string) (service.ProjectDetail, error) {
	var p service.ProjectDetail
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, nil, &p)
	return p, err
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, in service.ProjectInput) (service.Project, error) {
	var p service.Project
	err := c.do(ctx, http.MethodPost, "/projects", nil, in, &p)
	return p, err
}

// UpdateProject applies a partial update.
func (c *Client) UpdateProject(ctx context.Context, id string, patch service.ProjectPatch) (service.Project, error) {
	var p service.Project
	err := c.do(ctx, http.MethodPut, "/projects/"+url.PathEscape(id), nil, patch, &p)
	return p, err
}

// DeleteProject deletes a project and its tasks.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil, nil)
}

// DashboardStats returns the aggregate counters.
func (c *Client) DashboardStats(ctx context.Context) (service.DashboardStats, error) {
	var s service.DashboardStats
	err := c.do(ctx, http.MethodGet, "/dashboard/stats", nil, nil, &s)
	return s, err
}

// do issues one request. in (if non-nil) is sent as JSON; a 2xx body is
// decoded into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "error", err)
		return wrapError(err)
	}
	defer resp.Body.Close()
	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &service.APIError{Kind: service.ErrUnavailable, Status: resp.StatusCode, Detail: "invalid response from server"}
	}
	return nil
}

// wrapError maps transport failures to ErrUnavailable.
func wrapError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	detail := "could not reach server"
	if errors.Is(err, context.DeadlineExceeded) {
		detail = "request timed out"
	}
	return fmt.Errorf("%w: %s: %v", service.ErrUnavailable, detail, err)
}

// decodeError builds an APIError from a non-2xx response. The backend reports
// {"detail": "..."} or, for request validation, {"detail": [{"msg": ...}]}.
func decodeError(resp *http.Response) error {
	apiErr := &service.APIError{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil && len(payload.Detail) > 0 {
		apiErr.Detail = detailMessage(payload.Detail)
	}
	return apiErr
}

func detailMessage(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if n := len(it.Loc); n > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[n-1], it.Msg))
				continue
			}
			msgs = append(msgs, it.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func kindForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return service.ErrUnauthorized
	case code == http.StatusNotFound:
		return service.ErrNotFound
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity || code == http.StatusConflict:
		return service.ErrValidation
	default:
		return service.ErrUnavailable
	}
}

var _ service.Service = (*Client)(nil)
