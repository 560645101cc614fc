package arga

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/zenibako/arga-golang/endpoints"
)

// request describes one call to the admin API
type request struct {
	method      string
	route       endpoints.Route
	params      map[string]string
	query       url.Values
	payload     []byte
	contentType string
}

// doJSON sends in as a JSON body (when not nil) and decodes the reply into out (when
// not nil).
func (c *Client) doJSON(ctx context.Context, method string, route endpoints.Route, params map[string]string, query url.Values, in, out any) error {
	req := request{method: method, route: route, params: params, query: query}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", route, err)
		}
		req.payload = payload
		req.contentType = "application/json"
	}

	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return formatErrorWithJSON(fmt.Sprintf("failed to decode %s reply", route), string(body))
	}
	return nil
}

// send performs the request, retrying transport errors and 5xx replies up to
// maxRetries times. Writes are short-circuited in dry-run mode.
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	target := c.builder.URL(req.route, req.params, req.query)
	if target == "" || endpoints.Unresolved(target) {
		return nil, fmt.Errorf("cannot build URL for %s with params %v", req.route, req.params)
	}

	// logging in changes no data and is needed for reads
	if c.dryRun && endpoints.IsWrite(req.method) && req.route != endpoints.RouteLogin {
		log.Infof("[DRY RUN] Would send %s %s", req.method, target)
		logDebugJSON("[DRY RUN] Request body", req.payload)
		return c.mockDryRunResponse(req), nil
	}

	maxRetries := c.maxRetries
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		var body io.Reader
		if req.payload != nil {
			body = bytes.NewReader(req.payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Accept", "application/json")
		if req.contentType != "" {
			httpReq.Header.Set("Content-Type", req.contentType)
		}
		if req.contentType == "application/json" {
			logDebugJSON(fmt.Sprintf("%s %s", req.method, target), req.payload)
		} else {
			log.Debugf("%s %s (attempt %d/%d)", req.method, target, attempt+1, maxRetries+1)
		}

		startTime := time.Now()
		resp, err := c.http.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%s %s: %w", req.method, target, err)
			if attempt < maxRetries {
				log.Warnf("Request to %s failed (attempt %d/%d), retrying: %v", target, attempt+1, maxRetries+1, err)
			}
			continue
		}

		reply, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read reply from %s: %w", target, err)
			continue
		}
		log.Debugf("Reply %d received for %s %s in %v", resp.StatusCode, req.method, target, time.Since(startTime))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			logDebugJSON("Reply body", reply)
			return reply, nil

		case resp.StatusCode == http.StatusUnauthorized:
			if c.onUnauthorized != nil {
				c.onUnauthorized()
			}
			return nil, newAPIError(req.method, target, resp.StatusCode, reply)

		case resp.StatusCode >= 500:
			lastErr = newAPIError(req.method, target, resp.StatusCode, reply)
			if attempt < maxRetries {
				log.Warnf("Server error %d from %s (attempt %d/%d), retrying...", resp.StatusCode, target, attempt+1, maxRetries+1)
			}
			continue

		default:
			return nil, newAPIError(req.method, target, resp.StatusCode, reply)
		}
	}

	log.Warnf("Request to %s failed after all retry attempts", target)
	return nil, lastErr
}

// mockDryRunResponse fabricates a plausible reply for a write that was not sent
func (c *Client) mockDryRunResponse(req request) []byte {
	if req.method != http.MethodPost {
		// PUT echoes the body, DELETE returns nothing
		if req.method == http.MethodPut {
			return req.payload
		}
		return nil
	}

	c.dryRunMux.Lock()
	c.dryRunCounter++
	n := c.dryRunCounter
	c.dryRunMux.Unlock()
	mockID := fmt.Sprintf("DRYRUN-%08X-%04X-4000-8000-000000000%03X", n, n, n)

	if req.contentType != "application/json" {
		// uploads reply with the stored file id
		return []byte(mockID)
	}

	var record map[string]any
	if err := json.Unmarshal(req.payload, &record); err != nil || record == nil {
		return nil
	}
	if id, _ := record["id"].(string); id == "" {
		record["id"] = mockID
	}
	reply, err := json.Marshal(record)
	if err != nil {
		return nil
	}
	return reply
}
