package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultMarkerURL is the hosted marker conversion endpoint.
const DefaultMarkerURL = "https://www.datalab.to/api/v1/marker"

// MarkerClient converts PDFs with a remote marker service. Requests are
// accepted asynchronously and polled until complete.
type MarkerClient struct {
	url          string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	maxPolls     int
}

func NewMarkerClient(url, apiKey string) *MarkerClient {
	if url == "" {
		url = DefaultMarkerURL
	}
	return &MarkerClient{
		url:          url,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		pollInterval: 2 * time.Second,
		maxPolls:     300,
	}
}

type markerResponse struct {
	Success         bool   `json:"success"`
	Status          string `json:"status"`
	Error           string `json:"error"`
	Markdown        string `json:"markdown"`
	RequestCheckURL string `json:"request_check_url"`
	PageCount       int    `json:"page_count"`
}

// Convert uploads the file and returns paginated markdown.
func (c *MarkerClient) Convert(ctx context.Context, r io.Reader, filename string, maxPages int) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"output_format":            "markdown",
		"paginate":                 "true",
		"force_ocr":                "false",
		"mode":                     "balanced",
		"use_llm":                  "false",
		"disable_image_extraction": "false",
	}
	if maxPages > 0 {
		fields["max_pages"] = strconv.Itoa(maxPages)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("marker upload: %w", err)
	}
	if res.RequestCheckURL == "" {
		return c.finish(res)
	}

	for range c.maxPolls {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.RequestCheckURL, nil)
		if err != nil {
			return "", fmt.Errorf("create poll request: %w", err)
		}
		poll, err := c.do(req)
		if err != nil {
			return "", fmt.Errorf("marker poll: %w", err)
		}
		switch poll.Status {
		case "complete":
			return c.finish(poll)
		case "error", "failed":
			return "", fmt.Errorf("marker conversion failed: %s", poll.Error)
		}
	}
	return "", errors.New("marker conversion timed out")
}

func (c *MarkerClient) finish(res *markerResponse) (string, error) {
	if res.Error != "" && res.Markdown == "" {
		return "", fmt.Errorf("marker conversion failed: %s", res.Error)
	}
	return SinglePage(res.Markdown), nil
}

func (c *MarkerClient) do(req *http.Request) (*markerResponse, error) {
	req.Header.Set("X-API-Key", c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	var out markerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// RemotePDF adapts a MarkerClient to the Converter interface.
type RemotePDF struct {
	Client   *MarkerClient
	MaxPages int
}

func (p *RemotePDF) Convert(ctx context.Context, r io.Reader, filename string) (string, error) {
	return p.Client.Convert(ctx, r, filename, p.MaxPages)
}
