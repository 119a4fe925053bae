// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP boundary shared across stages.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// MaxBodyBytes caps how much of a response body Fetch reads. A longer body
// is a fatal outcome rather than a silently truncated one.
const MaxBodyBytes = 32 << 20

// bodyLimit is MaxBodyBytes; tests lower it.
var bodyLimit int64 = MaxBodyBytes

// Outcome is the result of a single HTTP exchange. Exactly one of Body or
// Err is meaningful: OK reports which.
type Outcome struct {
	// Body is the response body, read in full up to MaxBodyBytes.
	Body []byte

	// Status is the HTTP status code, or 0 when no response arrived.
	Status int

	// Err describes the failure. Nil on success.
	Err error

	// Retryable marks failures a later attempt could plausibly clear:
	// transport errors, HTTP 429, and HTTP 5xx. Nothing in this package
	// retries; callers use it to classify what they log and report.
	Retryable bool
}

// OK reports whether the exchange produced a 2xx response body.
func (o Outcome) OK() bool { return o.Err == nil }

// Class returns "ok", "retryable", or "fatal" for logging.
func (o Outcome) Class() string {
	switch {
	case o.Err == nil:
		return "ok"
	case o.Retryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// StatusError is the Outcome error for a non-2xx response.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Status, e.URL)
}

// Fetch executes req with client and converts every failure into an
// Outcome instead of an error return. It never retries.
//
// Context cancellation is reported as a fatal outcome wrapping ctx.Err(),
// so callers can stop a stage with errors.Is(o.Err, context.Canceled).
func Fetch(ctx context.Context, client *http.Client, req *http.Request) Outcome {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{Err: fmt.Errorf("%s: %w", req.URL, ctxErr)}
		}
		return Outcome{Err: fmt.Errorf("HTTP request: %w", err), Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, bodyLimit))
		return Outcome{
			Status:    resp.StatusCode,
			Err:       &StatusError{Status: resp.StatusCode, URL: req.URL.String()},
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, bodyLimit+1))
	if err != nil {
		return Outcome{Status: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err), Retryable: true}
	}
	if int64(len(body)) > bodyLimit {
		return Outcome{Status: resp.StatusCode, Err: fmt.Errorf("response from %s exceeds %d bytes", req.URL, bodyLimit)}
	}
	return Outcome{Body: body, Status: resp.StatusCode}
}

// Get builds a GET request for target with the given User-Agent and fetches it.
func Get(ctx context.Context, client *http.Client, target, userAgent string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Err: fmt.Errorf("creating request: %w", err)}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return Fetch(ctx, client, req)
}

// PostForm sends form as an application/x-www-form-urlencoded POST body to
// target and fetches the response.
func PostForm(ctx context.Context, client *http.Client, target string, form url.Values, userAgent string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return Fetch(ctx, client, req)
}

// IsCanceled reports whether o failed because its context ended.
func IsCanceled(o Outcome) bool {
	if o.Err == nil || o.Retryable || o.Status != 0 {
		return false
	}
	return errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded)
}
