package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherSuccess(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(testFeedXML))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "RSS Desk/test", time.Second)
	data, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, testFeedXML, string(data))
	assert.Equal(t, "RSS Desk/test", userAgent)
}

func TestFetcherNonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusMovedPermanently} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if status == http.StatusMovedPermanently {
					// No Location header, so the client hands the 301 back.
					w.WriteHeader(status)
					return
				}
				http.Error(w, "nope", status)
			}))
			defer server.Close()

			_, err := NewFetcher(server.Client(), "", 0).Fetch(context.Background(), server.URL)

			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
			assert.Equal(t, status, fetchErr.StatusCode)
			assert.Equal(t, server.URL, fetchErr.URL)
		})
	}
}

func TestFetcherTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewFetcher(nil, "", 0).Fetch(context.Background(), url)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.NotNil(t, fetchErr.Unwrap())
}

func TestFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := NewFetcher(server.Client(), "", 50*time.Millisecond).Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
}

func TestFetcherInvalidURL(t *testing.T) {
	_, err := NewFetcher(nil, "", 0).Fetch(context.Background(), "://bad")

	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
}
