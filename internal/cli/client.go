package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/themattbirch/screen-time-guardian/internal/errors"
	"github.com/themattbirch/screen-time-guardian/internal/model"
	"github.com/themattbirch/screen-time-guardian/internal/service"
)

const defaultRequestTimeout = 10 * time.Second

// Client calls the guardian HTTP API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: defaultRequestTimeout},
	}
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{"email": email, "password": password}, &out)
	return &out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &out)
	return &out, err
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Command posts one of start, pause, resume or visibility.
func (c *Client) Command(ctx context.Context, verb string) (*service.StateView, error) {
	var out struct {
		State service.StateView `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/timer/"+verb, nil, &out); err != nil {
		return nil, err
	}
	return &out.State, nil
}

func (c *Client) Reset(ctx context.Context, mode model.Mode, interval int) (*service.StateView, error) {
	var out struct {
		State service.StateView `json:"state"`
	}
	body := map[string]interface{}{"mode": mode, "interval": interval}
	if err := c.do(ctx, http.MethodPost, "/api/timer/reset", body, &out); err != nil {
		return nil, err
	}
	return &out.State, nil
}

func (c *Client) Statistics(ctx context.Context) (*model.Statistics, error) {
	var out struct {
		Statistics model.Statistics `json:"statistics"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/statistics", nil, &out); err != nil {
		return nil, err
	}
	return &out.Statistics, nil
}

func (c *Client) Achievements(ctx context.Context) ([]model.Achievement, error) {
	var out struct {
		Achievements []model.Achievement `json:"achievements"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/achievements", nil, &out); err != nil {
		return nil, err
	}
	return out.Achievements, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error apperrors.APIError `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) != nil || envelope.Error.Code == "" {
			return apperrors.New(resp.StatusCode, "http_error", resp.Status)
		}
		apiErr := envelope.Error
		apiErr.Status = resp.StatusCode
		return &apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
