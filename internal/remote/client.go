package remote

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
)

// Client implements Service against the pmdash HTTP server.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	logger  *slog.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

var _ Service = (*Client)(nil)

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h; c.stream = h }
}

func WithClientLogger(logger *slog.Logger) ClientOption { return func(c *Client) { c.logger = logger } }

// WithReconnectBackoff bounds the delay between change stream reconnects.
func WithReconnectBackoff(lo, hi time.Duration) ClientOption {
	return func(c *Client) { c.minBackoff, c.maxBackoff = lo, hi }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).DialContext,
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Transport: transport, Timeout: 30 * time.Second},
		stream:     &http.Client{Transport: transport},
		logger:     slog.New(slog.DiscardHandler),
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody is the JSON error envelope returned by the server.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const (
	codeUnknownEntityType = "unknown_entity_type"
	codeProjectNotFound   = "project_not_found"
	codeMissingEntityID   = "missing_entity_id"
)

func (c *Client) GetAllProjects(ctx context.Context, tenant string) ([]domain.Project, error) {
	var projects []domain.Project
	if err := c.do(ctx, http.MethodGet, c.tenantURL(tenant, "projects"), nil, &projects); err != nil {
		return nil, fmt.Errorf("get all projects: %w", err)
	}
	for i := range projects {
		projects[i].Normalize()
	}
	return projects, nil
}

func (c *Client) UpsertEntity(ctx context.Context, tenant, projectID string, kind domain.EntityType, entity any) error {
	if !kind.Valid() {
		return fmt.Errorf("upsert %q: %w", kind, ErrUnknownEntityType)
	}
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("upsert %s: encoding entity: %w", kind, err)
	}
	id, err := entityKey(projectID, kind, body)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", kind, err)
	}
	if err := c.do(ctx, http.MethodPut, c.entityURL(tenant, projectID, kind, id), body, nil); err != nil {
		return fmt.Errorf("upsert %s: %w", kind, err)
	}
	return nil
}

func (c *Client) DeleteEntity(ctx context.Context, tenant, projectID string, kind domain.EntityType, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("delete %q: %w", kind, ErrUnknownEntityType)
	}
	if err := c.do(ctx, http.MethodDelete, c.entityURL(tenant, projectID, kind, id), nil, nil); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}

func (c *Client) tenantURL(tenant string, parts ...string) string {
	u := c.baseURL + "/api/tenants/" + url.PathEscape(tenant)
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

func (c *Client) entityURL(tenant, projectID string, kind domain.EntityType, id string) string {
	return c.tenantURL(tenant, "projects", projectID, string(kind), id)
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	var e errorBody
	_ = json.Unmarshal(body, &e)
	switch e.Code {
	case codeUnknownEntityType:
		return ErrUnknownEntityType
	case codeProjectNotFound:
		return ErrProjectNotFound
	case codeMissingEntityID:
		return ErrMissingEntityID
	}
	msg := e.Error
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return fmt.Errorf("server returned status %d: %s", status, msg)
}

// Subscribe opens the server-sent change stream. The first connection is made
// before returning so an unreachable server surfaces as an error. Later drops
// reconnect with backoff and emit a ChangeResync.
func (c *Client) Subscribe(ctx context.Context, tenant string, tables []domain.EntityType, onChange func(Change)) (Subscription, error) {
	q := url.Values{}
	for _, t := range tables {
		if !t.Valid() {
			return nil, fmt.Errorf("subscribe %q: %w", t, ErrUnknownEntityType)
		}
		q.Add("table", string(t))
	}
	u := c.tenantURL(tenant, "changes")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	ctx, cancel := context.WithCancel(ctx)
	body, err := c.openStream(ctx, u)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	sub := &streamSub{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		c.readLoop(ctx, tenant, u, body, onChange)
	}()
	return sub, nil
}

func (c *Client) openStream(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, b)
	}
	return resp.Body, nil
}

func (c *Client) readLoop(ctx context.Context, tenant, u string, body io.ReadCloser, onChange func(Change)) {
	backoff := c.minBackoff
	for {
		err := readEvents(body, onChange)
		body.Close()
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("change stream dropped", "tenant", tenant, "error", err)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.maxBackoff)

			body, err = c.openStream(ctx, u)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("change stream reconnect failed", "tenant", tenant, "error", err)
		}
		backoff = c.minBackoff
		onChange(Change{Tenant: tenant, Op: ChangeResync, At: time.Now().UTC()})
	}
}

// readEvents parses "change" events until the stream ends.
func readEvents(r io.Reader, onChange func(Change)) error {
	scanner := bufio.NewScanner(r)
	var event string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event == "change" && data.Len() > 0 {
				var ch Change
				if err := json.Unmarshal([]byte(data.String()), &ch); err == nil {
					onChange(ch)
				}
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("stream closed by server")
}

type streamSub struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops the stream and waits for the reader to exit.
func (s *streamSub) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}
