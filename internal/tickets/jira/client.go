// Package jira implements tickets.Source against the Jira REST API v2.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"fieldops/internal/model"
	"fieldops/internal/tickets"
)

// Config carries the connection settings for a Jira site.
type Config struct {
	BaseURL    string
	User       string
	APIToken   string
	ProjectKey string
	// Status filters the search; default is "To Do".
	Status string
}

// ConfigFromEnv reads JIRA_BASE_URL, JIRA_USER, JIRA_API_TOKEN and
// JIRA_PROJECT_KEY. BaseURL empty means the integration is disabled.
func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL:    strings.TrimRight(os.Getenv("JIRA_BASE_URL"), "/"),
		User:       os.Getenv("JIRA_USER"),
		APIToken:   os.Getenv("JIRA_API_TOKEN"),
		ProjectKey: os.Getenv("JIRA_PROJECT_KEY"),
		Status:     os.Getenv("JIRA_STATUS"),
	}
	if cfg.Status == "" {
		cfg.Status = "To Do"
	}
	return cfg
}

// Client talks to one Jira site with basic auth.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: 15 * time.Second}}
}

func (c *Client) Name() string { return "jira" }

// Enabled reports whether a base URL was configured.
func (c *Client) Enabled() bool { return c.cfg.BaseURL != "" }

// FetchOpen returns the open tickets for the configured project, mapped to
// the internal ticket shape.
func (c *Client) FetchOpen(ctx context.Context) ([]model.Ticket, error) {
	jql := fmt.Sprintf("project = %s AND status = %q ORDER BY created ASC", c.cfg.ProjectKey, c.cfg.Status)
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("maxResults", "100")

	var out searchResponse
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/search?"+q.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("jira search: %w", err)
	}
	ts := make([]model.Ticket, 0, len(out.Issues))
	for _, is := range out.Issues {
		ts = append(ts, is.toTicket())
	}
	return ts, nil
}

func (c *Client) Get(ctx context.Context, key string) (model.Ticket, error) {
	var is issue
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(key), nil, &is); err != nil {
		return model.Ticket{}, fmt.Errorf("jira get %s: %w", key, err)
	}
	return is.toTicket(), nil
}

// UpdateStatus transitions the issue to the named status. Jira exposes
// transitions, not statuses, so the available transitions are listed first
// and matched by target status name.
func (c *Client) UpdateStatus(ctx context.Context, key, status string) (model.Ticket, error) {
	var tr transitionsResponse
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "/transitions"
	if err := c.do(ctx, http.MethodGet, path, nil, &tr); err != nil {
		return model.Ticket{}, fmt.Errorf("jira transitions %s: %w", key, err)
	}
	var id string
	for _, t := range tr.Transitions {
		if strings.EqualFold(t.To.Name, status) {
			id = t.ID
			break
		}
	}
	if id == "" {
		return model.Ticket{}, fmt.Errorf("jira: no transition to %q for %s", status, key)
	}
	body := map[string]any{"transition": map[string]string{"id": id}}
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return model.Ticket{}, fmt.Errorf("jira transition %s: %w", key, err)
	}
	return c.Get(ctx, key)
}

func (c *Client) AddComment(ctx context.Context, key, comment string) error {
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "/comment"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"body": comment}, nil); err != nil {
		return fmt.Errorf("jira comment %s: %w", key, err)
	}
	return nil
}

// AddAttachment uploads one file to the issue. Jira requires the
// X-Atlassian-Token header to disable XSRF checks on this endpoint.
func (c *Client) AddAttachment(ctx context.Context, key, fileName string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	u := c.cfg.BaseURL + "/rest/api/2/issue/" + url.PathEscape(key) + "/attachments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.APIToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "no-check")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jira attach %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("jira attach %s: status %d", key, resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type transitionsResponse struct {
	Transitions []struct {
		ID string `json:"id"`
		To struct {
			Name string `json:"name"`
		} `json:"to"`
	} `json:"transitions"`
}

type searchResponse struct {
	Issues []issue `json:"issues"`
	Total  int     `json:"total"`
}

type issue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		Status      struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"status"`
		Priority struct {
			Name string `json:"name"`
		} `json:"priority"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Reporter *struct {
			DisplayName string `json:"displayName"`
		} `json:"reporter"`
		Created string `json:"created"`
		Updated string `json:"updated"`
		Project struct {
			Key string `json:"key"`
		} `json:"project"`
		IssueType struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Labels []string `json:"labels"`
	} `json:"fields"`
}

func (is issue) toTicket() model.Ticket {
	t := model.Ticket{
		Key:         is.Key,
		ID:          is.ID,
		Summary:     is.Fields.Summary,
		Description: is.Fields.Description,
		Status:      is.Fields.Status.Name,
		StatusID:    is.Fields.Status.ID,
		Priority:    is.Fields.Priority.Name,
		Created:     is.Fields.Created,
		Updated:     is.Fields.Updated,
		Project:     is.Fields.Project.Key,
		IssueType:   is.Fields.IssueType.Name,
		Labels:      is.Fields.Labels,
	}
	if is.Fields.Assignee != nil {
		t.Assignee = is.Fields.Assignee.DisplayName
	}
	if is.Fields.Reporter != nil {
		t.Reporter = is.Fields.Reporter.DisplayName
	}
	texts := append([]string{t.Summary, t.Description}, t.Labels...)
	t.ServerID = tickets.ExtractServerID(texts...)
	return t
}

var _ tickets.Source = (*Client)(nil)
