package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/models"
)

// apiClient talks to a running kotae server.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// do sends body as JSON and decodes the response into out. A status other than want is
// returned as an error carrying the server's error message.
func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}, want int) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) Ask(ctx context.Context, req *models.AskRequest) (*models.AskResponse, error) {
	var out models.AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/ask", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Retrieve(ctx context.Context, req *models.RetrieveRequest) (*models.RetrieveResponse, error) {
	var out models.RetrieveResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/retrieve", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Index(ctx context.Context, req *models.IndexRequest) (*models.IndexResponse, error) {
	var out models.IndexResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/documents", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Documents(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	var out struct {
		Documents []*models.Document `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/documents?"+q.Encode(), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

func (c *apiClient) Status(ctx context.Context) (*models.Status, error) {
	var out models.Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/index", nil, nil, http.StatusOK)
}

func (c *apiClient) WatchDirectories(ctx context.Context) ([]string, error) {
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/watch/directories", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Directories, nil
}

func (c *apiClient) AddWatchDirectory(ctx context.Context, path string) error {
	body := map[string]interface{}{"path": path, "sync": true}
	return c.do(ctx, http.MethodPost, "/api/v1/watch/directories", body, nil, http.StatusCreated)
}

func (c *apiClient) RemoveWatchDirectory(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/watch/directories?path="+url.QueryEscape(path), nil, nil, http.StatusOK)
}
