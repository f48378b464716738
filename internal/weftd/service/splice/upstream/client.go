// Package upstream holds the HTTP client for the fronted text-generation
// endpoint. It owns per-dialect authentication and maps connect failures
// onto the registered error code so callers can tell "upstream unreachable"
// apart from everything else.
package upstream

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/weft-sh/weft/internal/pkg/options"
	"github.com/weft-sh/weft/internal/weftd/service/splice/dialect"
	"github.com/weft-sh/weft/pkg/errorx"
)

// Upstream error codes.
// Code format: 1XXYYZ with resource group 05 (upstream).
const (
	// ErrUpstreamConnect - 502: Failed to connect to the upstream endpoint.
	ErrUpstreamConnect = 100501
	// ErrUpstreamStatus - 502: Upstream endpoint rejected the request.
	ErrUpstreamStatus = 100502
)

func init() {
	errorx.MustRegister(newCoder(ErrUpstreamConnect, http.StatusBadGateway, "Failed to connect to the upstream endpoint"))
	errorx.MustRegister(newCoder(ErrUpstreamStatus, http.StatusBadGateway, "Upstream endpoint rejected the request"))
}

type coder struct {
	code int
	http int
	msg  string
}

func newCoder(code, httpStatus int, msg string) *coder {
	return &coder{code: code, http: httpStatus, msg: msg}
}

func (c *coder) Code() int         { return c.code }
func (c *coder) HTTPStatus() int   { return c.http }
func (c *coder) String() string    { return c.msg }
func (c *coder) Reference() string { return "" }

const anthropicVersion = "2023-06-01"

// errBodyLimit caps how much of an upstream error body is echoed into logs
// and error messages.
const errBodyLimit = 2048

// Client talks to one upstream endpoint in one dialect. It is safe for
// concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	adapter dialect.Adapter
	client  *http.Client
}

// NewClient creates a Client from the upstream options. The HTTP client has
// no overall timeout: streams stay open as long as the upstream produces
// output, only dialing and header wait are bounded.
func NewClient(opts *options.UpstreamOptions, adapter dialect.Adapter) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: opts.ConnectTimeout,
		}).DialContext,
		ResponseHeaderTimeout: opts.ConnectTimeout,
		MaxIdleConnsPerHost:   16,
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		adapter: adapter,
		client:  &http.Client{Transport: transport},
	}
}

// StreamChat posts the request body to the dialect's chat endpoint and
// returns the raw response body for frame-level consumption. The caller
// owns closing the reader. Connect failures and non-2xx statuses return
// an ErrUpstreamConnect/ErrUpstreamStatus coded error.
func (c *Client) StreamChat(ctx context.Context, body []byte) (io.ReadCloser, error) {
	resp, err := c.do(ctx, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := readSnippet(resp.Body)
		resp.Body.Close()

		return nil, errorx.WithCode(ErrUpstreamStatus, "upstream returned %d: %s", resp.StatusCode, snippet)
	}

	return resp.Body, nil
}

// Chat posts a non-streaming request and returns the upstream status code
// and raw body verbatim, so unrecognized responses pass through untouched.
// Only transport-level failures return an error.
func (c *Client) Chat(ctx context.Context, body []byte) (int, []byte, error) {
	resp, err := c.do(ctx, body)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errorx.WrapC(err, ErrUpstreamConnect, "read upstream response")
	}

	return resp.StatusCode, respBody, nil
}

func (c *Client) do(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.adapter.Path(), bytes.NewReader(body))
	if err != nil {
		return nil, errorx.WrapC(err, ErrUpstreamConnect, "create upstream request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if c.apiKey != "" {
		switch c.adapter.Name() {
		case options.DialectAnthropic:
			req.Header.Set("x-api-key", c.apiKey)
			req.Header.Set("anthropic-version", anthropicVersion)
		default:
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errorx.WrapC(err, ErrUpstreamConnect, "post %s", c.adapter.Path())
	}

	return resp, nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, errBodyLimit))

	return strings.TrimSpace(string(b))
}
