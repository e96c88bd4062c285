package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/SergeyParamoshkin/myblog/internal/model"
)

// Client talks to the myblog HTTP API.
type Client struct {
	http.Client
	Addr string
}

// Query filters ListArticles. The zero value lists everything.
type Query struct {
	ID      string `json:"id,omitempty"`
	Keyword string `json:"keyword,omitempty"`
}

// APIError is a non-zero envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("myblog: %d %s (http %d)", e.Code, e.Message, e.StatusCode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) Ping() (string, error) {
	req, err := http.NewRequest(http.MethodGet, c.Addr+"/ping", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), err
}

// ListArticles returns the articles matching q.
func (c *Client) ListArticles(ctx context.Context, q Query) ([]model.Article, error) {
	var out []model.Article
	if err := c.call(ctx, http.MethodGet, "/articles", q, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// CreateArticle stores a and returns the assigned id.
func (c *Client) CreateArticle(ctx context.Context, a *model.Article) (string, error) {
	var id string
	if err := c.call(ctx, http.MethodPost, "/articles", a, &id); err != nil {
		return "", err
	}

	return id, nil
}

// UpdateArticle merges the non-nil fields of a into the article and
// returns the modified count.
func (c *Client) UpdateArticle(ctx context.Context, id string, a *model.Article) (int64, error) {
	var n int64
	if err := c.call(ctx, http.MethodPut, "/articles/"+url.PathEscape(id), a, &n); err != nil {
		return 0, err
	}

	return n, nil
}

// DeleteArticle removes the article and returns the deleted count.
func (c *Client) DeleteArticle(ctx context.Context, id string) (int64, error) {
	var n int64
	if err := c.call(ctx, http.MethodDelete, "/articles/"+url.PathEscape(id), nil, &n); err != nil {
		return 0, err
	}

	return n, nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Addr+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("myblog: decode response (http %d): %w", resp.StatusCode, err)
	}

	if env.Code != 0 {
		return &APIError{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	if out == nil {
		return nil
	}

	return json.Unmarshal(env.Data, out)
}
