package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newClient() *apiClient {
	return &apiClient{
		baseURL: serverURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// doRequest performs an HTTP request with auth headers and decodes the JSON
// response into v when v is non-nil.
func (c *apiClient) doRequest(method, path string, body any, v any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := resolvedToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if v != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

func (c *apiClient) getJSON(path string, v any) error {
	return c.doRequest(http.MethodGet, path, nil, v)
}

func (c *apiClient) postJSON(path string, body, v any) error {
	return c.doRequest(http.MethodPost, path, body, v)
}

func (c *apiClient) patchJSON(path string, body, v any) error {
	return c.doRequest(http.MethodPatch, path, body, v)
}

func (c *apiClient) delete(path string) error {
	return c.doRequest(http.MethodDelete, path, nil, nil)
}
