package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPress/internal/config"
	"TrendPress/internal/domain"
	"TrendPress/internal/search"
	"TrendPress/pkg/httpclient"
)

const newsAPIBody = `{
  "status": "ok",
  "totalResults": 3,
  "articles": [
    {
      "source": {"id": null, "name": "Folha"},
      "title": "Inflação desacelera em outubro",
      "description": "IPCA-15 fica abaixo do esperado.",
      "url": "https://folha.example/inflacao",
      "urlToImage": "https://folha.example/inflacao.jpg",
      "publishedAt": "2026-10-19T10:00:00Z",
      "content": "O índice de preços ao consumidor desacelerou… [+2345 chars]"
    },
    {
      "source": {"name": "Removed"},
      "title": "[Removed]",
      "url": "https://removed.example"
    },
    {
      "source": {"name": "G1"},
      "title": "Banco Central mantém juros",
      "description": "Copom decide manter a Selic.",
      "url": "https://g1.example/copom",
      "publishedAt": "2026-10-19T11:00:00Z",
      "content": ""
    }
  ]
}`

func newNewsAPI(t *testing.T, handler http.HandlerFunc) *NewsAPIStrategy {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	strategy := NewNewsAPIStrategy(httpclient.NewRestyClient(time.Second), config.NewsConfig{
		APIKey:      "secret",
		APIEndpoint: server.URL + "/v2/everything",
		Language:    "pt",
		SortBy:      "relevancy",
	})
	strategy.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return strategy
}

func TestNewsAPISearch(t *testing.T) {
	t.Parallel()

	strategy := newNewsAPI(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "inflação", q.Get("q"))
		assert.Equal(t, "pt", q.Get("language"))
		assert.Equal(t, "3", q.Get("pageSize"))
		assert.Equal(t, "2026-10-19", q.Get("from"))
		_, _ = w.Write([]byte(newsAPIBody))
	})

	items, err := strategy.Search(context.Background(), search.Query{Trend: domain.Trend{Term: "inflação"}, Limit: 3})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Inflação desacelera em outubro", items[0].Title)
	assert.Equal(t, "O índice de preços ao consumidor desacelerou…", items[0].Body)
	assert.Equal(t, "Folha", items[0].SourceName)
	assert.Equal(t, "newsapi", items[0].Origin)
	assert.Equal(t, "Copom decide manter a Selic.", items[1].Text())
}

func TestNewsAPIErrorStatus(t *testing.T) {
	t.Parallel()

	strategy := newNewsAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`))
	})

	_, err := strategy.Search(context.Background(), search.Query{Trend: domain.Trend{Term: "x"}, Limit: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apiKeyInvalid")
}

func TestNewsAPIAvailability(t *testing.T) {
	t.Parallel()

	without := NewNewsAPIStrategy(nil, config.NewsConfig{APIEndpoint: "https://newsapi.org/v2/everything"})
	assert.False(t, without.Available())

	with := NewNewsAPIStrategy(nil, config.NewsConfig{APIKey: "k", APIEndpoint: "https://newsapi.org/v2/everything"})
	assert.True(t, with.Available())
}
