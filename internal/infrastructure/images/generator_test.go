package images

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPress/internal/config"
	"TrendPress/internal/domain"
	"TrendPress/pkg/httpclient"
)

func article() domain.RewrittenArticle {
	return domain.RewrittenArticle{
		Item:  domain.NewsItem{Trend: domain.Trend{Term: "Copa do Brasil"}},
		Title: "Flamengo avança",
		Body:  "<article><h1>Flamengo avança</h1><p>O time venceu por 2 a 0.</p></article>",
	}
}

func newGenerator(t *testing.T, server *httptest.Server, apiKey string) *Generator {
	t.Helper()

	gen := NewGenerator(httpclient.NewRestyClient(time.Second), config.ImagesConfig{
		Endpoint:    server.URL + "/v1/images/generations",
		Model:       "dall-e-3",
		Size:        "1024x1024",
		Quality:     "standard",
		FallbackURL: server.URL + "/stock/?%s",
	}, apiKey, t.TempDir(), nil)
	gen.now = func() time.Time { return time.Unix(1760860800, 0) }
	return gen
}

func TestGenerateDownloadsImage(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/images/generations":
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "dall-e-3", req["model"])
			assert.Contains(t, req["prompt"], "Flamengo avança")
			_, _ = w.Write([]byte(`{"data":[{"url":"` + server.URL + `/generated.png"}]}`))
		case "/generated.png":
			_, _ = w.Write([]byte("generated"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	gen := newGenerator(t, server, "sk-test")
	path, err := gen.Generate(context.Background(), article())
	require.NoError(t, err)

	assert.Equal(t, "image_1760860800_Flamengo_avan_a.png", filepath.Base(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "generated", string(raw))
}

func TestGenerateFallsBackToStockImage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/stock") {
			assert.Equal(t, "Copa+do+Brasil", r.URL.RawQuery)
			_, _ = w.Write([]byte("stock"))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"content policy"}}`))
	}))
	defer server.Close()

	gen := newGenerator(t, server, "sk-test")
	path, err := gen.Generate(context.Background(), article())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".jpg"))
}

func TestGenerateFailsWhenEverythingFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gen := newGenerator(t, server, "")
	_, err := gen.Generate(context.Background(), article())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(article())
	assert.Contains(t, prompt, `"Flamengo avança"`)
	assert.Contains(t, prompt, "O time venceu por 2 a 0.")
	assert.NotContains(t, prompt, "<p>")
}
