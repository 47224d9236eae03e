package liteapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(url string, retries uint64) *Client {
	return NewClient(url, "key-123", 2*time.Second, retries, zap.NewNop())
}

func TestFetchHotel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hotel", r.URL.Path)
		assert.Equal(t, "lp1897", r.URL.Query().Get("hotelId"))
		assert.Equal(t, "4", r.URL.Query().Get("timeout"))
		assert.Equal(t, "key-123", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"data":{"name":"Grand","city":"Paris","starRating":4,"location":{"latitude":48.8,"longitude":2.3}}}`))
	}))
	defer srv.Close()

	h, err := newTestClient(srv.URL, 0).FetchHotel(context.Background(), "lp1897")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "Grand", h.Name)
	assert.Equal(t, "Paris", *h.City)
	assert.Nil(t, h.Country)
	assert.Equal(t, 4.0, *h.StarRating)
	require.NotNil(t, h.Location)
	assert.Equal(t, 48.8, *h.Location.Latitude)
}

func TestFetchHotel_NoData(t *testing.T) {
	for _, body := range []string{`{}`, `{"data":null}`, `{"data":{}}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		h, err := newTestClient(srv.URL, 0).FetchHotel(context.Background(), "x")
		srv.Close()

		require.NoError(t, err, body)
		assert.Nil(t, h, body)
	}
}

func TestFetchHotel_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"name":"Grand"}}`))
	}))
	defer srv.Close()

	h, err := newTestClient(srv.URL, 2).FetchHotel(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Grand", h.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchHotel_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).FetchHotel(context.Background(), "x")
	assert.ErrorContains(t, err, "status 401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
