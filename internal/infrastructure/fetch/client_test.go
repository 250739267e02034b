package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

// statusSequence replies with the given statuses in order, then 200 {"ok":true}.
func statusSequence(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			_, _ = w.Write([]byte(`{"error":"upstream"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(sleeper *recordingSleeper, opts ...Option) *Client {
	opts = append([]Option{WithSleeper(sleeper.sleep)}, opts...)
	return NewClient(Config{}, zap.NewNop(), opts...)
}

func TestClient_RetriesServerErrorsWithExponentialBackoff(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable)
	sleeper := &recordingSleeper{}
	client := newTestClient(sleeper)

	resp, err := client.Do(context.Background(), http.MethodGet, srv.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond, 4000 * time.Millisecond}, sleeper.delays)
}

func TestClient_DoesNotRetryNotFound(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusNotFound)
	sleeper := &recordingSleeper{}
	client := newTestClient(sleeper)

	resp, err := client.Do(context.Background(), http.MethodGet, srv.URL, nil)

	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.False(t, statusErr.Transient())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, sleeper.delays)
}

func TestClient_RetriesRateLimit(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusTooManyRequests)
	sleeper := &recordingSleeper{}

	var reasons []string
	client := newTestClient(sleeper, WithRetryHook(func(reason string, _ int, _ time.Duration) {
		reasons = append(reasons, reason)
	}))

	_, err := client.Do(context.Background(), http.MethodGet, srv.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"rate_limited"}, reasons)
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	srv, calls := statusSequence(t,
		http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway)
	sleeper := &recordingSleeper{}
	client := newTestClient(sleeper)

	_, err := client.Do(context.Background(), http.MethodGet, srv.URL, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, int32(4), calls.Load(), "one initial attempt plus three retries")
	assert.Len(t, sleeper.delays, 3)
}

func TestClient_RetriesPerCallTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	client := NewClient(Config{Timeout: 50 * time.Millisecond}, zap.NewNop(), WithSleeper(sleeper.sleep))

	resp, err := client.Do(context.Background(), http.MethodGet, srv.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{DefaultBaseDelay}, sleeper.delays)
}

func TestClient_GetJSONDecodeErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := newTestClient(&recordingSleeper{})

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), srv.URL, nil, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_SendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "loc_1", r.URL.Query().Get("locationId"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := newTestClient(&recordingSleeper{})

	var out struct {
		OK bool `json:"ok"`
	}
	err := client.GetJSON(context.Background(), srv.URL+"?limit=100", &Options{
		Headers: map[string]string{"Authorization": "Bearer key"},
		Query:   map[string][]string{"locationId": {"loc_1"}},
	}, &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestClient_StopsWhenContextCancelled(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusInternalServerError, http.StatusInternalServerError)
	ctx, cancel := context.WithCancel(context.Background())

	client := NewClient(Config{}, zap.NewNop(), WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := client.Do(ctx, http.MethodGet, srv.URL, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransport_RetriesAndReturnsFinalResponse(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		srv, calls := statusSequence(t, http.StatusServiceUnavailable, http.StatusServiceUnavailable)
		client := newTestClient(&recordingSleeper{})
		hc := &http.Client{Transport: client.Transport()}

		resp, err := hc.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"ok":true}`, string(body))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("returns last failing status", func(t *testing.T) {
		srv, calls := statusSequence(t,
			http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable)
		client := newTestClient(&recordingSleeper{})
		hc := &http.Client{Transport: client.Transport()}

		resp, err := hc.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, int32(4), calls.Load())
	})

	t.Run("client errors pass through once", func(t *testing.T) {
		srv, calls := statusSequence(t, http.StatusUnauthorized)
		client := newTestClient(&recordingSleeper{})
		hc := &http.Client{Transport: client.Transport()}

		resp, err := hc.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})
}
