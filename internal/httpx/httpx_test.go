package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientCapsRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/again", http.StatusFound)
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{MaxRedirects: 3})
	require.NoError(t, err)

	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL, nil, DefaultUserAgent)
	require.NoError(t, err)

	resp, err := client.Do(req)
	if resp != nil {
		resp.Body.Close()
	}
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyRedirects))
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	_, err := NewClient(ClientConfig{ProxyURL: "gopher://not-a-proxy"})
	assert.Error(t, err)
}

func TestNewRequestSetsHeaders(t *testing.T) {
	req, err := NewRequest(context.Background(), http.MethodGet, "https://example.com/u", nil, "test-agent/1.0")
	require.NoError(t, err)
	assert.Equal(t, "test-agent/1.0", req.Header.Get("User-Agent"))
	assert.NotEmpty(t, req.Header.Get("Accept"))
}
