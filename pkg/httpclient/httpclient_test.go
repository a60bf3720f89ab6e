package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyClientGetAndPost(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "trendpress-test", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("hello"))
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte(payload["q"]))
		}
	}))
	defer server.Close()

	client := NewRestyClient(time.Second)
	ctx := context.Background()

	resp, err := client.Get(ctx, server.URL, map[string]string{"User-Agent": "trendpress-test"})
	require.NoError(t, err)
	assert.True(t, IsSuccess(resp))
	assert.Equal(t, "hello", string(resp.Body()))

	resp, err = client.PostJSON(ctx, server.URL, nil, map[string]string{"q": "copa do brasil"})
	require.NoError(t, err)
	assert.False(t, IsSuccess(resp))
	assert.Equal(t, "copa", Snippet(resp, 4))
}
