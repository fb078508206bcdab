package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// DefaultStreamTimeout bounds a model-stream call when the caller did
// not set a deadline of its own.
const DefaultStreamTimeout = 5 * time.Minute

// EnsureTimeout returns ctx unchanged when it already carries a
// deadline, and a child context with the given timeout otherwise. Every
// outbound call goes through this so no upstream read can hang forever.
func EnsureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// PostStream issues a streaming POST with a JSON body and returns the
// open response. Non-2xx statuses are drained (bounded) and reported as
// an *APIError so the gateway can classify them.
func PostStream(ctx context.Context, client *http.Client, name, url string, body []byte, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer res.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &APIError{Provider: name, Status: res.StatusCode, Body: string(raw)}
	}
	return res, nil
}

// Emit delivers ev unless the caller has gone away. Returning false
// tells the producer to stop issuing upstream reads.
func Emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
