package quickstats

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agridata/quickstats-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-api-key"

func testClient(baseURL string) *Client {
	return &Client{
		key:        testKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testQuery() domain.Query {
	return domain.Query{Commodity: "CORN", MinYear: 2007, StateAlpha: "NE"}
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/api_GET/", r.URL.Path)
		assert.Equal(t, testKey, r.URL.Query().Get("key"))
		assert.Equal(t, "CORN", r.URL.Query().Get("commodity_desc"))
		assert.Equal(t, "2007", r.URL.Query().Get("year__GE"))
		assert.Equal(t, "NE", r.URL.Query().Get("state_alpha"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{"data":[
			{"agg_level_desc":"COUNTY","unit_desc":"ACRES","Value":"1,000","county_code":"001","state_fips_code":"31","year":"2007","prodn_practice_desc":"IRRIGATED"},
			{"agg_level_desc":"COUNTY","unit_desc":"ACRES","Value":"(D)","county_code":"003","state_fips_code":"31","year":"2007","prodn_practice_desc":"IRRIGATED"}
		]}`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	records, err := c.Fetch(context.Background(), testQuery())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "1,000", records[0].Value)
	assert.Equal(t, "001", records[0].CountyCode)
	assert.Equal(t, "(D)", records[1].Value)
}

func TestClient_Fetch_OmitsStateFilterWhenEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["state_alpha"]
		assert.False(t, present)
		_, err := w.Write([]byte(`{"data":[]}`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	records, err := c.Fetch(context.Background(), domain.Query{Commodity: "CORN", MinYear: 2007})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClient_Fetch_RequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Fetch(context.Background(), testQuery())

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusServiceUnavailable, reqErr.StatusCode)
}

func TestClient_Fetch_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, err := w.Write([]byte(`{"data": not json`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Fetch(context.Background(), testQuery())

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestClient_Fetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused

	c := testClient(srv.URL)
	_, err := c.Fetch(context.Background(), testQuery())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.NotContains(t, err.Error(), testKey, "API key must not leak into errors")
}

func TestClient_Fetch_RejectsBadMinYear(t *testing.T) {
	c := testClient("http://localhost:0")
	_, err := c.Fetch(context.Background(), domain.Query{Commodity: "CORN", MinYear: 99})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4-digit year")
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("", "", 5*time.Second, slog.Default())
	require.Error(t, err)

	c, err := NewClient(testKey, "", 5*time.Second, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
