// Package search is the web-search capability provider client. One call per
// invocation, bounded result count, hard timeout, no retries.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/weft-sh/weft/internal/pkg/options"
	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
	"github.com/weft-sh/weft/pkg/logger"
	"github.com/weft-sh/weft/pkg/utils/json"
)

// Executor performs one external capability call for a query. The result is
// never partially observable; it arrives only after the call completed,
// failed, or timed out.
type Executor interface {
	Execute(ctx context.Context, query string) *entity.ActionResult
}

// googleResponse is the Custom Search JSON API response shape.
type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	SearchInformation struct {
		SearchTime float64 `json:"searchTime"`
	} `json:"searchInformation"`
}

// GoogleExecutor calls a Google Custom Search shaped endpoint.
type GoogleExecutor struct {
	endpoint   string
	apiKey     string
	engineID   string
	maxResults int
	timeout    time.Duration

	client *http.Client
}

// NewGoogleExecutor builds an executor from search options.
func NewGoogleExecutor(opts *options.SearchOptions) *GoogleExecutor {
	return &GoogleExecutor{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		engineID:   opts.EngineID,
		maxResults: opts.MaxResults,
		timeout:    opts.Timeout,
		client:     &http.Client{},
	}
}

// Execute performs exactly one provider call. Failures are carried inside
// the ActionResult so the splicer can inject them into the continuation.
func (e *GoogleExecutor) Execute(ctx context.Context, query string) *entity.ActionResult {
	result := &entity.ActionResult{Query: query}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", query)
	q.Set("key", e.apiKey)
	q.Set("cx", e.engineID)
	q.Set("num", strconv.Itoa(e.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		result.Err = fmt.Sprintf("build request: %v", err)
		return result
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			result.Err = "timeout"
		} else {
			result.Err = fmt.Sprintf("provider unreachable: %v", err)
		}
		logger.Warn("[Search] query %q failed: %s", query, result.Err)
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if ctx.Err() != nil {
			result.Err = "timeout"
		} else {
			result.Err = fmt.Sprintf("read response: %v", err)
		}
		return result
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Err = fmt.Sprintf("provider returned %d: %s", resp.StatusCode, truncate(string(body), 256))
		logger.Warn("[Search] query %q failed: %s", query, result.Err)
		return result
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		result.Err = fmt.Sprintf("malformed provider response: %v", err)
		return result
	}

	for i, item := range parsed.Items {
		if i >= e.maxResults {
			break
		}
		result.Items = append(result.Items, entity.SearchItem{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}

	result.ElapsedSeconds = parsed.SearchInformation.SearchTime
	if result.ElapsedSeconds == 0 {
		result.ElapsedSeconds = time.Since(start).Seconds()
	}

	logger.Info("[Search] query %q returned %d items in %.2fs", query, len(result.Items), result.ElapsedSeconds)
	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
