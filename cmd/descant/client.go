package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"descant/internal/store"
)

// apiClient talks JSON to a running descant daemon.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Minute},
	}
}

type analyzeResult struct {
	Status      string `json:"status"`
	TotalScenes int    `json:"total_scenes"`
}

type updateResult struct {
	Status   string  `json:"status"`
	Duration float64 `json:"duration"`
}

type exportResult struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Scenes  []store.Scene `json:"scenes"`
}

func (c *apiClient) Upload(ctx context.Context, videoPath string) (*store.Project, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(videoPath))
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read video: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var project store.Project
	if err := c.do(req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *apiClient) Analyze(ctx context.Context, projectID string) (analyzeResult, error) {
	var result analyzeResult
	err := c.post(ctx, "/api/analyze/"+projectID, nil, &result)
	return result, err
}

func (c *apiClient) Projects(ctx context.Context) ([]store.Project, error) {
	var projects []store.Project
	err := c.get(ctx, "/api/projects", &projects)
	return projects, err
}

func (c *apiClient) Scenes(ctx context.Context, projectID string) ([]store.Scene, error) {
	var scenes []store.Scene
	err := c.get(ctx, "/api/projects/"+projectID+"/scenes", &scenes)
	return scenes, err
}

func (c *apiClient) UpdateScene(ctx context.Context, sceneID, description string) (updateResult, error) {
	var result updateResult
	payload, err := json.Marshal(map[string]string{"description": description})
	if err != nil {
		return result, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/scenes/"+sceneID, bytes.NewReader(payload))
	if err != nil {
		return result, err
	}
	req.Header.Set("Content-Type", "application/json")
	err = c.do(req, &result)
	return result, err
}

func (c *apiClient) Export(ctx context.Context, projectID string) (exportResult, error) {
	var result exportResult
	err := c.post(ctx, "/api/export/"+projectID, nil, &result)
	return result, err
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *apiClient) post(ctx context.Context, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w (is descantd running?)", c.baseURL, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
