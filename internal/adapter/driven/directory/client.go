// Package directory talks to the external room CRUD service.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Wyydra/rendezvous/internal/core/port"
)

var ErrNotFound = errors.New("room not found")

// APIError is a {success: false} reply or a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("directory: status %d", e.Status)
	}
	return fmt.Sprintf("directory: %s (status %d)", e.Message, e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client implements port.RoomDirectory over REST with a bearer token.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

func New(baseURL, token string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("directory url: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: u, token: token, http: hc}, nil
}

func (c *Client) Create(ctx context.Context, room port.RoomRecord) (port.RoomRecord, error) {
	var out port.RoomRecord
	_, err := c.do(ctx, http.MethodPost, "/api/rooms", room, &out)
	return out, err
}

func (c *Client) List(ctx context.Context) ([]port.RoomRecord, error) {
	var out []port.RoomRecord
	_, err := c.do(ctx, http.MethodGet, "/api/rooms", nil, &out)
	return out, err
}

func (c *Client) Get(ctx context.Context, id string) (port.RoomRecord, error) {
	var out port.RoomRecord
	_, err := c.do(ctx, http.MethodGet, roomPath(id, ""), nil, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, id string, room port.RoomRecord) (port.RoomRecord, error) {
	var out port.RoomRecord
	_, err := c.do(ctx, http.MethodPut, roomPath(id, ""), room, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	return c.do(ctx, http.MethodDelete, roomPath(id, ""), nil, nil)
}

func (c *Client) Join(ctx context.Context, id string) (string, error) {
	return c.do(ctx, http.MethodPost, roomPath(id, "/join"), nil, nil)
}

func (c *Client) Leave(ctx context.Context, id string) (string, error) {
	return c.do(ctx, http.MethodPost, roomPath(id, "/leave"), nil, nil)
}

func roomPath(id, suffix string) string {
	return "/api/rooms/" + url.PathEscape(id) + suffix
}

// do sends body as JSON and decodes the envelope's data into out. It
// returns the envelope message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (string, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return "", err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rd)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("directory %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env port.DirectoryResult
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return "", &APIError{Status: resp.StatusCode, Message: "malformed response"}
	}
	if resp.StatusCode/100 != 2 || !env.Success {
		return env.Message, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env.Message, fmt.Errorf("directory data: %w", err)
		}
	}
	return env.Message, nil
}
