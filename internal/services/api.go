// Client for the spotsync job server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// JobClient starts and polls jobs on a running `spotsync serve`.
type JobClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewJobClient creates a client for the job server at baseURL.
func NewJobClient(baseURL string, client *http.Client) *JobClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5001"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &JobClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes a 2xx response into result.
func (c *JobClient) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/status/") {
		return fmt.Errorf("%w: %s", shared.ErrTaskNotFound, strings.TrimPrefix(path, "/status/"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, eb.Error)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Health returns the server's health payload.
func (c *JobClient) Health(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StartSync launches a sync job.
func (c *JobClient) StartSync(ctx context.Context, req models.SyncRequest) (*models.TaskStarted, error) {
	var out models.TaskStarted
	if err := c.do(ctx, http.MethodPost, "/sync", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartAnalysis launches an analysis job.
func (c *JobClient) StartAnalysis(ctx context.Context) (*models.TaskStarted, error) {
	var out models.TaskStarted
	if err := c.do(ctx, http.MethodPost, "/analysis", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status polls a single task.
func (c *JobClient) Status(ctx context.Context, taskID string) (*models.Task, error) {
	var out models.Task
	if err := c.do(ctx, http.MethodGet, "/status/"+url.PathEscape(taskID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tasks lists every task the server knows about.
func (c *JobClient) Tasks(ctx context.Context) ([]models.Task, error) {
	var out struct {
		Tasks []models.Task `json:"tasks"`
		Count int           `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}
