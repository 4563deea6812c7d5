// Package backend is the REST client for the HR/safety entity stores the
// calendar reads from and writes generic calendar events to.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	appLog "safetycal/internal/log"
	"safetycal/internal/model"
)

const (
	pathTasks               = "/api/tasks"
	pathTrainings           = "/api/trainings"
	pathAdditionalTrainings = "/api/additional-trainings"
	pathSafetyInstructions  = "/api/safety-instructions"
	pathCalendarEvents      = "/api/calendar-events"
)

// ErrStatus is wrapped by StatusError so callers can errors.Is on it.
var ErrStatus = errors.New("backend: unexpected status")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration // zero means no timeout
	PageSize int
	CacheDir string // empty disables the disk cache
	HTTP     *http.Client
}

// Client talks to the entity REST API. It satisfies every store interface the
// source adapters, dashboard and dispatcher depend on.
type Client struct {
	base     *url.URL
	token    string
	pageSize int
	http     *http.Client
	cache    diskCache
}

// New creates a Client. BaseURL must be an absolute URL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		base:     base,
		token:    opts.Token,
		pageSize: opts.PageSize,
		http:     hc,
		cache:    diskCache{dir: opts.CacheDir},
	}, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	if err := c.getList(ctx, pathTasks, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTrainings(ctx context.Context) ([]model.Training, error) {
	var out []model.Training
	if err := c.getList(ctx, pathTrainings, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAdditionalTrainings(ctx context.Context) ([]model.AdditionalTraining, error) {
	var out []model.AdditionalTraining
	if err := c.getList(ctx, pathAdditionalTrainings, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSafetyInstructions(ctx context.Context) ([]model.SafetyInstruction, error) {
	var out []model.SafetyInstruction
	if err := c.getList(ctx, pathSafetyInstructions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCalendarEvents(ctx context.Context) ([]model.StoredEvent, error) {
	var out []model.StoredEvent
	if err := c.getList(ctx, pathCalendarEvents, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCalendarEvent posts ev to the generic calendar-event store and returns
// the stored record (with its new id).
func (c *Client) CreateCalendarEvent(ctx context.Context, ev model.StoredEvent) (model.StoredEvent, error) {
	ev.ID = nil
	payload, err := json.Marshal(ev)
	if err != nil {
		return model.StoredEvent{}, fmt.Errorf("marshal calendar event: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(pathCalendarEvents, nil), bytes.NewReader(payload))
	if err != nil {
		return model.StoredEvent{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.StoredEvent{}, fmt.Errorf("create calendar event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.StoredEvent{}, statusError(resp)
	}

	var created model.StoredEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return model.StoredEvent{}, fmt.Errorf("decode created calendar event: %w", err)
	}
	return created, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// getList performs a read-all GET, honoring ETag and Last-Modified when the
// disk cache is enabled and falling back to the cached body on failure.
func (c *Client) getList(ctx context.Context, path string, into any) error {
	var q url.Values
	if c.pageSize > 0 {
		q = url.Values{"size": []string{strconv.Itoa(c.pageSize)}}
	}
	target := c.endpoint(path, q)

	body, fromCache, err := c.fetch(ctx, target)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	appLog.Debug("backend list fetched", "path", path, "from_cache", fromCache)
	return nil
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, bool, error) {
	meta, cachedBody := c.cache.load(target)

	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, err
	}
	if len(cachedBody) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// A canceled request is not a backend failure; do not mask it with cache.
		if ctx.Err() == nil && len(cachedBody) > 0 {
			appLog.Warn("backend network error, using cached body", "url", redactURL(target), "err", err)
			return cachedBody, true, nil
		}
		return nil, false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, err
		}
		newMeta := cacheEntry{
			URL:          target,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := c.cache.save(newMeta, body); err != nil {
			appLog.Error("backend cache save failed", err, "url", redactURL(target))
		}
		return body, false, nil

	case resp.StatusCode == http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, false, errors.New("received 304 Not Modified but no cached body available")
		}
		return cachedBody, true, nil

	default:
		serr := statusError(resp)
		if len(cachedBody) > 0 {
			appLog.Warn("backend non-OK, using cached body", "url", redactURL(target), "status", resp.StatusCode)
			return cachedBody, true, nil
		}
		return nil, false, serr
	}
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// redactURL keeps scheme, host and path but hides the query string.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "(unparseable url)"
	}
	parsed.RawQuery = ""
	parsed.User = nil
	return parsed.String()
}
