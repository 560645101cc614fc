// Package arga is a client for the ARGA admin REST API and the editing sessions built
// on top of it.
package arga

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/zenibako/arga-golang/endpoints"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 250 * time.Millisecond
	defaultPageSize   = 100
)

type Client struct {
	baseURL        string
	http           *http.Client
	builder        *endpoints.Builder
	dryRun         bool          // log writes instead of sending them
	dryRunCounter  int           // counter for generating unique mock IDs in dry-run mode
	dryRunMux      sync.Mutex    // protects dryRunCounter
	maxRetries     int           // retries on transport errors and 5xx replies (default 0)
	retryDelay     time.Duration // pause between retries
	pageSize       int           // page size used when walking every page of a listing
	onUnauthorized func()        // called on every 401 reply
}

// NewClient creates a client for the admin API rooted at baseURL. The session cookie
// set by Login is kept in a cookie jar and sent with every later request.
func NewClient(baseURL string) *Client {
	// cookiejar.New only fails on a bad PublicSuffixList
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:    baseURL,
		http:       &http.Client{Jar: jar, Timeout: defaultTimeout},
		builder:    endpoints.NewBuilder(baseURL),
		retryDelay: defaultRetryDelay,
		pageSize:   defaultPageSize,
	}
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.builder.BaseURL()
}

// SetDryRun sets whether to run in dry-run mode (writes are logged, not sent)
func (c *Client) SetDryRun(dryRun bool) {
	c.dryRun = dryRun
}

// DryRun reports whether writes are only logged
func (c *Client) DryRun() bool {
	return c.dryRun
}

// SetMaxRetries sets the maximum number of retry attempts for a request
func (c *Client) SetMaxRetries(retries int) {
	c.maxRetries = retries
}

// SetRetryDelay sets the pause between retry attempts
func (c *Client) SetRetryDelay(delay time.Duration) {
	c.retryDelay = delay
}

// SetTimeout sets the timeout of a single HTTP request
func (c *Client) SetTimeout(timeout time.Duration) {
	c.http.Timeout = timeout
	if timeout > defaultTimeout {
		log.Infof("HTTP timeout increased to %v", timeout)
	}
}

// SetPageSize sets the page size used by the All* listing helpers
func (c *Client) SetPageSize(size int) {
	if size > 0 {
		c.pageSize = size
	}
}

// SetHTTPClient replaces the underlying HTTP client. A client without a cookie jar
// gets one so the session survives.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc.Jar == nil {
		hc.Jar = c.http.Jar
	}
	c.http = hc
}

// HTTPClient returns the underlying HTTP client
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// OnUnauthorized sets a callback for when the API rejects the session
func (c *Client) OnUnauthorized(callback func()) {
	c.onUnauthorized = callback
}

// Cookies returns the session cookies the client holds for the API root, by name
func (c *Client) Cookies() map[string]string {
	u, err := url.Parse(c.builder.BaseURL())
	if err != nil || c.http.Jar == nil {
		return nil
	}
	cookies := make(map[string]string)
	for _, cookie := range c.http.Jar.Cookies(u) {
		cookies[cookie.Name] = cookie.Value
	}
	return cookies
}

// RestoreCookies puts session cookies saved from Cookies back into the jar
func (c *Client) RestoreCookies(cookies map[string]string) {
	u, err := url.Parse(c.builder.BaseURL())
	if err != nil || c.http.Jar == nil || len(cookies) == 0 {
		return
	}
	restored := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		restored = append(restored, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	c.http.Jar.SetCookies(u, restored)
	log.Debugf("Restored %d session cookies for %s", len(restored), u.Host)
}
