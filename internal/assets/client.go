package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
)

// Client talks to the media host over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload posts the binary as multipart form data and returns the handle.
// Any failure is wrapped as an UploadError so callers can abort before
// writing documents.
func (c *Client) Upload(ctx context.Context, u Upload) (Asset, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", u.FileName)
	if err != nil {
		return Asset{}, &apperr.UploadError{Err: err}
	}
	if _, err := part.Write(u.Data); err != nil {
		return Asset{}, &apperr.UploadError{Err: err}
	}
	if err := mw.Close(); err != nil {
		return Asset{}, &apperr.UploadError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/assets", &buf)
	if err != nil {
		return Asset{}, &apperr.UploadError{Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return Asset{}, &apperr.UploadError{Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Asset{}, &apperr.UploadError{
			Err: fmt.Errorf("asset host status %d: %s", res.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var a Asset
	if err := json.NewDecoder(res.Body).Decode(&a); err != nil {
		return Asset{}, &apperr.UploadError{Err: fmt.Errorf("decode upload response: %w", err)}
	}
	if a.AssetID == "" || a.URL == "" {
		return Asset{}, &apperr.UploadError{Err: fmt.Errorf("asset host returned empty handle")}
	}
	return a, nil
}

// Delete removes a previously uploaded asset by handle.
func (c *Client) Delete(ctx context.Context, assetID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/assets/"+assetID, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	// 404 counts as deleted; retries must stay idempotent.
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("asset host status %d", res.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
