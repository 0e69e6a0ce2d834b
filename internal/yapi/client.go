// Package yapi fetches interface definitions from a YApi documentation server.
package yapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/apidecl/pkg/types"
)

// ErrNotFound is returned when the server has no interface with the given id.
var ErrNotFound = errors.New("interface not found")

const defaultMaxRetries = 3

// Client calls the YApi open API.
type Client struct {
	BaseURL    string
	Token      string
	MaxRetries int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

var sleepFn = time.Sleep

type envelope struct {
	ErrCode int             `json:"errcode"`
	ErrMsg  string          `json:"errmsg"`
	Data    json.RawMessage `json:"data"`
}

type interfaceData struct {
	ID                  int64  `json:"_id"`
	ProjectID           int64  `json:"project_id"`
	Title               string `json:"title"`
	Method              string `json:"method"`
	Path                string `json:"path"`
	ReqBodyType         string `json:"req_body_type"`
	ReqBodyOther        string `json:"req_body_other"`
	ReqBodyIsJSONSchema bool   `json:"req_body_is_json_schema"`
	ResBodyType         string `json:"res_body_type"`
	ResBody             string `json:"res_body"`
	ResBodyIsJSONSchema bool   `json:"res_body_is_json_schema"`
}

// GetInterface fetches one interface by id.
func (c *Client) GetInterface(ctx context.Context, id int64) (*types.Interface, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, errors.New("yapi base url is empty")
	}
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))
	if c.Token != "" {
		q.Set("token", c.Token)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/api/interface/get?" + q.Encode()

	data, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode yapi response: %w", err)
	}
	if env.ErrCode != 0 {
		if isNotFound(env.ErrMsg) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("yapi error %d: %s", env.ErrCode, env.ErrMsg)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	var d interfaceData
	if err := json.Unmarshal(env.Data, &d); err != nil {
		return nil, fmt.Errorf("decode yapi interface: %w", err)
	}
	if d.ID == 0 {
		d.ID = id
	}
	return &types.Interface{
		ID:          d.ID,
		ProjectID:   d.ProjectID,
		Title:       d.Title,
		Method:      strings.ToUpper(d.Method),
		Path:        d.Path,
		ReqBodyType: d.ReqBodyType,
		ReqSchema:   d.ReqBodyOther,
		ReqIsSchema: d.ReqBodyIsJSONSchema,
		ResBodyType: d.ResBodyType,
		ResSchema:   d.ResBody,
		ResIsSchema: d.ResBodyIsJSONSchema,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if c.Logger != nil {
		c.Logger.Debug("yapi request", "url", redact(endpoint))
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt < maxRetries {
				sleepFn(backoff(attempt))
				continue
			}
			return nil, err
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			if attempt < maxRetries {
				sleepFn(backoff(attempt))
				continue
			}
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("yapi error status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			if attempt < maxRetries {
				wait := backoff(attempt)
				if resp.StatusCode == http.StatusTooManyRequests {
					if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
						if secs, err := strconv.Atoi(ra); err == nil {
							wait = time.Duration(secs) * time.Second
						}
					}
				}
				sleepFn(wait)
				continue
			}
			return nil, lastErr
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("yapi error status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		if c.Logger != nil {
			c.Logger.Debug("yapi response", "status", resp.StatusCode, "bytes", len(data))
		}
		return data, nil
	}
	if lastErr == nil {
		lastErr = errors.New("yapi request failed")
	}
	return nil, lastErr
}

// ParseInterfaceURL extracts the interface id from a YApi page URL such as
// https://yapi.example.com/project/12/interface/api/345.
func ParseInterfaceURL(raw string) (int64, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse interface url: %w", err)
	}
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return 0, fmt.Errorf("no interface id in %q", raw)
	}
	id, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("no interface id in %q", raw)
	}
	return id, nil
}

func isNotFound(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "不存在") || strings.Contains(m, "not exist") || strings.Contains(m, "not found")
}

func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Second << attempt
}
