package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the HTTP implementation of JobClient. Polling timeouts are
// enforced by the driver, so individual requests get short, fixed timeouts.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client targeting the given job-service base URL.
// apiKey may be empty when the service is reachable without auth.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Submit starts a new transcription job via POST /v1/jobs.
func (c *Client) Submit(ctx context.Context, spec JobSpec) error {
	payload, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("encoding job spec: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/v1/jobs", bytes.NewReader(payload))
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submitting job %s: %w", spec.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("submitting job %s: unexpected status %d", spec.Name, resp.StatusCode)
	}
	return nil
}

// GetJob polls job status via GET /v1/jobs/{name}.
func (c *Client) GetJob(ctx context.Context, name string) (JobStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/v1/jobs/"+name, nil)
	if err != nil {
		return JobStatus{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return JobStatus{}, fmt.Errorf("polling job %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JobStatus{}, fmt.Errorf("polling job %s: unexpected status %d", name, resp.StatusCode)
	}

	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return JobStatus{}, fmt.Errorf("decoding job status: %w", err)
	}
	return status, nil
}

// FetchResult downloads the result document from the URI the provider
// returned on completion. The URI is absolute and may be pre-signed.
func (c *Client) FetchResult(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("creating result request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching result: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}
	return data, nil
}

// DeleteJob removes the remote job via DELETE /v1/jobs/{name}. A 404 is not
// an error; the job may already be gone.
func (c *Client) DeleteJob(ctx context.Context, name string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.baseURL+"/v1/jobs/"+name, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deleting job %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("deleting job %s: unexpected status %d", name, resp.StatusCode)
	}
	return nil
}
