package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Profile fetches the caller's account payload.
func (c *Client) Profile(ctx context.Context, token string) ([]byte, error) {
	payload, status, err := c.get(ctx, c.base()+"/profile", token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("profile returned status %d", status)
	}
	return payload, nil
}

// Lookup fetches reference data; flags select which lookup groups to return
// (category=true and the like).
func (c *Client) Lookup(ctx context.Context, token string, flags map[string]bool) ([]byte, error) {
	values := url.Values{}
	for name, on := range flags {
		if on {
			values.Set(name, "true")
		}
	}
	endpoint := c.base() + "/lookup"
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}

	payload, status, err := c.get(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("lookup returned status %d", status)
	}
	return payload, nil
}

// Upload sends a file as multipart form data and returns the raw payload
// for URL resolution.
func (c *Client) Upload(ctx context.Context, token, filename string, file io.Reader) ([]byte, error) {
	if c.host == "" {
		return nil, ErrNotConfigured
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base()+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}
	if !statusOK(resp.StatusCode) {
		return nil, fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return payload, nil
}
