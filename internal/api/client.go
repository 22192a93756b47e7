package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"wcagscan/internal/config"
)

// HTTPDoer describes the HTTP client used by the scanner service client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the scanner service REST API.
type Client struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// New constructs a client for the given base URL. The token may be empty for
// anonymous requests.
func New(baseURL, token string, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  client,
	}
}

// NewFromConfig constructs a client with the configured timeout.
func NewFromConfig(cfg *config.Config, token string) *Client {
	httpClient := &http.Client{Timeout: time.Duration(cfg.API.RequestTimeout) * time.Second}
	return New(cfg.API.BaseURL, token, httpClient)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, email, password, name string) (*User, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	var user User
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ProjectFilter narrows ListProjects results.
type ProjectFilter struct {
	Search string
	Limit  int
}

// ListProjects fetches registered projects.
func (c *Client) ListProjects(ctx context.Context, filter ProjectFilter) (*ProjectList, error) {
	query := url.Values{}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	var list ProjectList
	if err := c.do(ctx, http.MethodGet, "/projects", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateProject registers a new project.
func (c *Client) CreateProject(ctx context.Context, req ProjectRequest) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject fetches one project by id.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject applies a partial update to a project.
func (c *Client) UpdateProject(ctx context.Context, id string, req ProjectRequest) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodPut, "/projects/"+url.PathEscape(id), nil, req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil, nil)
}

// StartScan queues a new scan for a project.
func (c *Client) StartScan(ctx context.Context, projectID string, req ScanRequest) (*Scan, error) {
	var scan Scan
	path := "/projects/" + url.PathEscape(projectID) + "/scans"
	if err := c.do(ctx, http.MethodPost, path, nil, req, &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

// ScanFilter narrows ListScans results.
type ScanFilter struct {
	ProjectID string
	Status    string
	Limit     int
}

// ListScans fetches recent scans.
func (c *Client) ListScans(ctx context.Context, filter ScanFilter) (*ScanList, error) {
	query := url.Values{}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.ProjectID != "" {
		query.Set("project_id", filter.ProjectID)
	}
	if filter.Status != "" {
		query.Set("status_filter", filter.Status)
	}
	var list ScanList
	if err := c.do(ctx, http.MethodGet, "/scans", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetScan fetches the full scan record, including summary and scores.
func (c *Client) GetScan(ctx context.Context, id string) (*Scan, error) {
	var scan Scan
	if err := c.do(ctx, http.MethodGet, "/scans/"+url.PathEscape(id), nil, nil, &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

// ScanStatus fetches the lightweight status snapshot polled while waiting.
func (c *Client) ScanStatus(ctx context.Context, id string) (*ScanStatusSnapshot, error) {
	var snapshot ScanStatusSnapshot
	path := "/scans/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// CancelScan requests cancellation of a running scan.
func (c *Client) CancelScan(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/scans/"+url.PathEscape(id)+"/cancel", nil, nil, nil)
}

// DeleteScan removes a scan and its results.
func (c *Client) DeleteScan(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/scans/"+url.PathEscape(id), nil, nil, nil)
}

// Report fetches the raw JSON report for a scan.
func (c *Client) Report(ctx context.Context, id string) (json.RawMessage, error) {
	var report json.RawMessage
	path := "/scans/" + url.PathEscape(id) + "/reports/json"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &report); err != nil {
		return nil, err
	}
	return report, nil
}

// ReportDocument fetches the report decoded into its sections, for rendering.
func (c *Client) ReportDocument(ctx context.Context, id string) (*Report, error) {
	var report Report
	path := "/scans/" + url.PathEscape(id) + "/reports/json"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ReportFormats lists the export formats the service renders.
var ReportFormats = []string{"json", "html", "csv"}

// ReportExport fetches a rendered report in the given format. HTML and CSV
// bodies are returned verbatim; the json format returns the raw JSON bytes.
func (c *Client) ReportExport(ctx context.Context, id, format string) ([]byte, error) {
	if !slices.Contains(ReportFormats, format) {
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
	path := "/scans/" + url.PathEscape(id) + "/reports/" + format
	return c.fetchRaw(ctx, path, nil)
}

// IssueFilter narrows ListIssues results.
type IssueFilter struct {
	ScanID    string
	Impact    string
	WCAGLevel string
	Limit     int
}

// ListIssues fetches accessibility findings for a scan.
func (c *Client) ListIssues(ctx context.Context, filter IssueFilter) (*IssueList, error) {
	query := url.Values{}
	if filter.ScanID != "" {
		query.Set("scan_id", filter.ScanID)
	}
	if filter.Impact != "" {
		query.Set("impact", filter.Impact)
	}
	if filter.WCAGLevel != "" {
		query.Set("wcag_level", filter.WCAGLevel)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	var list IssueList
	if err := c.do(ctx, http.MethodGet, "/issues", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// fetchRaw issues a GET and returns the response body verbatim, for
// endpoints that serve non-JSON payloads.
func (c *Client) fetchRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func decodeError(resp *http.Response) error {
	detail := ""
	var payload struct {
		Detail string `json:"detail"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &payload) == nil {
		detail = strings.TrimSpace(payload.Detail)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if detail != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		if detail != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, detail)
		}
		return ErrNotFound
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: detail}
}
