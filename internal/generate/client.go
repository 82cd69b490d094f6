package generate

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

const maxResponseSize = 16 << 20

// Client calls a generator speaking JSON over HTTP: POST {base}/expand and
// POST {base}/illustrate. The server's Handler exposes the same routes, so
// browsers point a Client at the server and the server points one upstream.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

type expandRequest struct {
	Topic   string  `json:"topic" validate:"required,max=2000"`
	Options Options `json:"options"`
}

type illustrateRequest struct {
	Prompt string `json:"prompt" validate:"required,max=2000"`
}

func (c *Client) Expand(ctx context.Context, topic string, opts Options) (*Tree, error) {
	var tree *Tree
	if err := c.post(ctx, "/expand", expandRequest{Topic: topic, Options: opts}, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func (c *Client) Illustrate(ctx context.Context, prompt string) (*Image, error) {
	var img *Image
	if err := c.post(ctx, "/illustrate", illustrateRequest{Prompt: prompt}, &img); err != nil {
		return nil, err
	}
	return img, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if c.base == "" {
		return ErrUnavailable
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("generator returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
