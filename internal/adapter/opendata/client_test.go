package opendata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/edf-plant-map/internal/domain"
	"github.com/couchcryptid/edf-plant-map/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(timeout time.Duration) *Client {
	return NewClient(timeout, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// requestLog records values seen by a test server.
type requestLog struct {
	mu     sync.Mutex
	values []string
}

func (l *requestLog) add(v string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = append(l.values, v)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.values...)
}

// countThenFetchServer answers the count request with totalCount and the
// limited request with body. It records the limit of every request.
func countThenFetchServer(t *testing.T, totalCount string, body string, limits *requestLog) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		limit, ok := r.URL.Query()["limit"]
		if !ok {
			limits.add("")
			_, _ = io.WriteString(w, `{"total_count":`+totalCount+`,"results":[]}`)
			return
		}
		limits.add(limit[0])
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch_CountThenFetch(t *testing.T) {
	var limits requestLog
	body := `{"total_count":2,"results":[
		{"centrale":"Gravelines","sous_filiere":"REP 900 MW","point_gps_wsg84":{"lat":51.015,"lon":2.136}},
		{"centrale":"Flamanville","sous_filiere":"EPR"}
	]}`
	srv := countThenFetchServer(t, "2", body, &limits)

	c := testClient(5 * time.Second)
	resp, err := c.Fetch(context.Background(), domain.Dataset{Family: domain.Nuclear, URL: srv.URL + "/records"})
	require.NoError(t, err)

	assert.Equal(t, []string{"", "2"}, limits.all())
	assert.Equal(t, 2, resp.TotalCount)
	require.NotNil(t, resp.Results)
	require.Len(t, *resp.Results, 2)

	first := (*resp.Results)[0]
	assert.Equal(t, "Gravelines", first["centrale"])
	gps, ok := first["point_gps_wsg84"].(map[string]any)
	require.True(t, ok, "nested objects decode as maps")
	assert.Equal(t, 51.015, gps["lat"])

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("nuclear", "success")))
}

func TestClient_Fetch_ZeroCount(t *testing.T) {
	var limits requestLog
	srv := countThenFetchServer(t, "0", `{"total_count":0,"results":[]}`, &limits)

	c := testClient(5 * time.Second)
	resp, err := c.Fetch(context.Background(), domain.Dataset{Family: domain.Thermal, URL: srv.URL})
	require.NoError(t, err)

	assert.Equal(t, []string{"", "0"}, limits.all(), "second request still sent with limit=0")
	assert.Equal(t, 0, resp.TotalCount)
	require.NotNil(t, resp.Results)
	assert.Empty(t, *resp.Results)
}

func TestClient_Fetch_MissingResultsKey(t *testing.T) {
	var limits requestLog
	srv := countThenFetchServer(t, "1", `{"total_count":1}`, &limits)

	c := testClient(5 * time.Second)
	resp, err := c.Fetch(context.Background(), domain.Dataset{Family: domain.Hydraulic, URL: srv.URL})
	require.NoError(t, err)

	assert.Nil(t, resp.Results, "absent results is left for the normalizer to reject")
}

func TestClient_Fetch_PreservesExistingQuery(t *testing.T) {
	var seen requestLog
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.add(r.URL.RawQuery)
		_, _ = io.WriteString(w, `{"total_count":1,"results":[]}`)
	}))
	defer srv.Close()

	c := testClient(5 * time.Second)
	_, err := c.Fetch(context.Background(), domain.Dataset{Family: domain.Hydraulic, URL: srv.URL + "?lang=fr"})
	require.NoError(t, err)

	assert.Equal(t, []string{"lang=fr", "lang=fr&limit=1"}, seen.all())
}

func TestClient_Fetch_APIError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer srv.Close()

	c := testClient(5 * time.Second)
	_, err := c.Fetch(context.Background(), domain.Dataset{Family: domain.Nuclear, URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "nuclear count request")
	assert.Equal(t, int32(1), calls.Load(), "no retry after a failure")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("nuclear", "error")))
}

func TestClient_Fetch_SecondRequestFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("limit") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"total_count":500}`)
	}))
	defer srv.Close()

	c := testClient(5 * time.Second)
	_, err := c.Fetch(context.Background(), domain.Dataset{Family: domain.Hydraulic, URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hydraulic records request")
	assert.Contains(t, err.Error(), "400")
}

func TestClient_Fetch_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html>not json</html>`)
	}))
	defer srv.Close()

	c := testClient(5 * time.Second)
	_, err := c.Fetch(context.Background(), domain.Dataset{Family: domain.Thermal, URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(50 * time.Millisecond)
	_, err := c.Fetch(context.Background(), domain.Dataset{Family: domain.Thermal, URL: srv.URL})
	require.Error(t, err)
}

func TestClient_Fetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := testClient(time.Second)
	_, err := c.Fetch(context.Background(), domain.Dataset{Family: domain.Thermal, URL: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thermal count request")
}
