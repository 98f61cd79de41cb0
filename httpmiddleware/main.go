package httpmiddleware

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Shared client so every upstream call rides the same otel-instrumented transport.
var httpClient = &http.Client{
	Transport: otelhttp.NewTransport(http.DefaultTransport),
}

type HttpRequestStruct struct {
	Method  string
	Url     string
	Body    io.Reader
	Headers map[string]string
}

// HttpError is returned for any non-2xx upstream status. The raw response
// body is kept for server-side diagnostics; callers decide what leaks out.
type HttpError struct {
	StatusCode int
	Body       []byte
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, string(e.Body))
}

func HttpRequest(ctx context.Context, args HttpRequestStruct) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, args.Method, args.Url, args.Body)
	if err != nil {
		return nil, fmt.Errorf("could not build request: %w", err)
	}

	for key, value := range args.Headers {
		req.Header.Set(key, value)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", args.Url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HttpError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return respBody, nil
}
