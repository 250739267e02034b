package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Transport returns an http.RoundTripper that applies the client's retry policy, so
// SDKs that own their request building still share it. After the last attempt a
// failing status is returned as a normal response for the SDK to interpret.
func (c *Client) Transport() http.RoundTripper {
	return &retryTransport{client: c}
}

type retryTransport struct {
	client *Client
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, fmt.Errorf("fetch: request body for %s %s cannot be replayed", req.Method, req.URL)
	}

	build := func(ctx context.Context) (*http.Request, error) {
		clone := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			clone.Body = body
		}
		return clone, nil
	}

	resp, err := t.client.execute(req.Context(), req.Method, req.URL.String(), build)

	var statusErr *StatusError
	if err != nil && !errors.As(err, &statusErr) {
		return nil, err
	}
	if statusErr != nil {
		resp = statusErr.Response
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		StatusCode:    resp.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        resp.Headers,
		Body:          io.NopCloser(bytes.NewReader(resp.Body)),
		ContentLength: int64(len(resp.Body)),
		Request:       req,
	}, nil
}
