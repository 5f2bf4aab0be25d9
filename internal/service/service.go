// Package service is the typed HTTP client for the /contacts REST resource.
// Each operation issues exactly one request; there is no caching or retry.
package service

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smileynet/contactbook/internal/contact"
)

// ErrTransport covers network failures, undecodable responses, and any
// status the taxonomy does not map to contact.ErrNotFound or
// contact.ErrValidation.
var ErrTransport = errors.New("service: transport failure")

// requestIDHeader matches the header the server echoes.
const requestIDHeader = "X-Request-ID"

// resourcePath is the collection path under the base URL.
const resourcePath = "contacts"

// Client talks to a contact store over HTTP. It is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithLogger sets the logger used for per-request debug logs.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Client for the store rooted at baseURL, e.g.
// "http://localhost:3000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("service: parsing base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("service: base URL %q must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetAll fetches the full collection.
func (c *Client) GetAll(ctx context.Context) ([]contact.Contact, error) {
	var out []contact.Contact
	if err := c.do(ctx, http.MethodGet, c.collection(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []contact.Contact{}
	}
	return out, nil
}

// GetByID fetches one contact.
func (c *Client) GetByID(ctx context.Context, id int64) (contact.Contact, error) {
	var out contact.Contact
	if err := c.do(ctx, http.MethodGet, c.item(id), nil, &out); err != nil {
		return contact.Contact{}, err
	}
	return out, nil
}

// Create submits a new contact; the store assigns the id.
func (c *Client) Create(ctx context.Context, f contact.Fields) (contact.Contact, error) {
	var out contact.Contact
	if err := c.do(ctx, http.MethodPost, c.collection(), f, &out); err != nil {
		return contact.Contact{}, err
	}
	return out, nil
}

// Update replaces the stored fields of ct, which must carry an id.
func (c *Client) Update(ctx context.Context, ct contact.Contact) (contact.Contact, error) {
	if ct.ID == nil {
		return contact.Contact{}, fmt.Errorf("%w: update requires an id", contact.ErrValidation)
	}
	var out contact.Contact
	if err := c.do(ctx, http.MethodPut, c.item(*ct.ID), ct, &out); err != nil {
		return contact.Contact{}, err
	}
	return out, nil
}

// Delete removes a contact.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, c.item(id), nil, nil)
}

func (c *Client) collection() string {
	return c.base.JoinPath(resourcePath).String()
}

func (c *Client) item(id int64) string {
	return c.base.JoinPath(resourcePath, strconv.FormatInt(id, 10)).String()
}

// do performs one request, encoding in as JSON when non-nil and decoding the
// response into out when non-nil.
func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("service: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrTransport, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("contact request failed",
			zap.String("request_id", reqID),
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, target, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("contact request",
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s %s response: %v", ErrTransport, method, target, err)
	}
	return nil
}

// statusError maps a non-2xx response onto the error taxonomy, carrying the
// server's message when it sent one.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := serverMessage(resp.Body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", contact.ErrNotFound, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", contact.ErrValidation, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, msg)
	}
}

// serverMessage extracts {"error": "..."} from a response body, falling back
// to the raw text.
func serverMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var eb struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
		return eb.Error
	}
	return strings.TrimSpace(string(data))
}
