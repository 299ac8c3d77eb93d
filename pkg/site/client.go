package site

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"

	"postscraper/pkg/errors"
	"postscraper/pkg/logger"
	"postscraper/pkg/models"
)

// MaxBodySize caps how much of a listing page is read
const MaxBodySize = 10 << 20

// Client fetches listing pages by number
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a client for cfg.BaseURL sending cfg.Headers with every
// request and giving up on a request after cfg.RequestTimeout
func NewClient(cfg models.RunConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		headers: headers,
		baseURL: cfg.BaseURL,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// PageURL returns the address of page n: the base URL with n appended
func (c *Client) PageURL(page int) string {
	return c.baseURL + strconv.Itoa(page)
}

// Fetch performs one GET for the given page and returns the body decoded to
// UTF-8. Failures are returned as fetch errors; nothing is retried here.
func (c *Client) Fetch(ctx context.Context, page int) ([]byte, error) {
	url := c.PageURL(page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFetchError(page, errors.ErrorTypeUnknown, 0, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.doRequest(req, page)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp, page); err != nil {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodySize))
		return nil, err
	}

	body, err := readBody(resp)
	if err != nil {
		c.logger.ErrorWithFields("failed to read response body", map[string]interface{}{
			"page":  page,
			"url":   url,
			"error": err.Error(),
		})
		return nil, errors.NewFetchError(page, classify(err), resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.DebugWithFields("fetched page", map[string]interface{}{
		"page":  page,
		"bytes": len(body),
	})

	return body, nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request, page int) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.NewFetchError(page, classify(err), 0, err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus turns any non-2xx status into a fetch error
func (c *Client) checkResponseStatus(resp *http.Response, page int) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errorType := errors.TypeForStatus(resp.StatusCode)
	c.logger.DebugWithFields("unexpected status", map[string]interface{}{
		"page":   page,
		"status": resp.StatusCode,
		"type":   string(errorType),
	})
	return errors.NewFetchError(page, errorType, resp.StatusCode, nil)
}

// readBody reads up to MaxBodySize bytes, transcoding from the charset named
// by the Content-Type header or sniffed from the document
func readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxBodySize)

	r, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			// Empty body
			return []byte{}, nil
		}
		return nil, err
	}

	return io.ReadAll(r)
}

// classify maps a transport error to an error type
func classify(err error) errors.ErrorType {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.ErrorTypeTimeout
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.ErrorTypeTimeout
	}
	return errors.ErrorTypeNetwork
}
