package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"TrendPress/internal/config"
	"TrendPress/internal/domain"
	"TrendPress/internal/ports"
	"TrendPress/internal/textutil"
	"TrendPress/pkg/httpclient"
)

// Generator creates a featured image with the OpenAI images API,
// falling back to a stock photo search when generation fails.
type Generator struct {
	client    httpclient.Client
	cfg       config.ImagesConfig
	apiKey    string
	outputDir string
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.ImageGenerator = (*Generator)(nil)

// NewGenerator wires the HTTP client and the directory images are saved to.
func NewGenerator(client httpclient.Client, cfg config.ImagesConfig, apiKey, outputDir string, log *slog.Logger) *Generator {
	if client == nil {
		client = httpclient.NewRestyClient(cfg.Timeout)
	}
	return &Generator{
		client:    client,
		cfg:       cfg,
		apiKey:    apiKey,
		outputDir: outputDir,
		logger:    log,
		now:       time.Now,
	}
}

type generationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate returns the path of the saved image.
func (g *Generator) Generate(ctx context.Context, article domain.RewrittenArticle) (string, error) {
	stem := fmt.Sprintf("image_%d_%s", g.now().Unix(), textutil.SafeFileName(article.Title, 50))

	path, err := g.generate(ctx, article, stem+".png")
	if err == nil {
		return path, nil
	}
	g.warn("image generation failed, trying fallback", "title", article.Title, "error", err)

	path, fbErr := g.fallback(ctx, article, stem+".jpg")
	if fbErr != nil {
		return "", errors.Join(err, fbErr)
	}
	return path, nil
}

func (g *Generator) generate(ctx context.Context, article domain.RewrittenArticle, name string) (string, error) {
	if g.apiKey == "" || g.cfg.Endpoint == "" {
		return "", errors.New("image generation is not configured")
	}

	resp, err := g.client.PostJSON(ctx, g.cfg.Endpoint, map[string]string{
		"Authorization": "Bearer " + g.apiKey,
	}, map[string]any{
		"model":           g.cfg.Model,
		"prompt":          BuildPrompt(article),
		"n":               1,
		"size":            g.cfg.Size,
		"quality":         g.cfg.Quality,
		"response_format": "url",
	})
	if err != nil {
		return "", fmt.Errorf("request image: %w", err)
	}
	if !httpclient.IsSuccess(resp) {
		return "", fmt.Errorf("images api error %s: %s", resp.Status(), strings.TrimSpace(httpclient.Snippet(resp, 512)))
	}

	var payload generationResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if payload.Error != nil {
		return "", fmt.Errorf("images api error: %s", payload.Error.Message)
	}
	if len(payload.Data) == 0 || payload.Data[0].URL == "" {
		return "", errors.New("images api returned no url")
	}

	return g.download(ctx, payload.Data[0].URL, name)
}

func (g *Generator) fallback(ctx context.Context, article domain.RewrittenArticle, name string) (string, error) {
	if g.cfg.FallbackURL == "" {
		return "", errors.New("no fallback image source configured")
	}

	query := article.Item.Trend.Term
	if query == "" {
		query = article.Title
	}
	source := g.cfg.FallbackURL
	if strings.Contains(source, "%s") {
		source = fmt.Sprintf(source, url.QueryEscape(query))
	}
	return g.download(ctx, source, name)
}

func (g *Generator) download(ctx context.Context, source, name string) (string, error) {
	resp, err := g.client.Get(ctx, source, nil)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	if !httpclient.IsSuccess(resp) || len(resp.Body()) == 0 {
		return "", fmt.Errorf("download image: %s", resp.Status())
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(g.outputDir, name)
	if err := os.WriteFile(path, resp.Body(), 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

func (g *Generator) warn(msg string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}

// BuildPrompt describes the illustration for an article.
func BuildPrompt(article domain.RewrittenArticle) string {
	summary := textutil.Truncate(textutil.PlainText(article.Body), 200)
	return fmt.Sprintf(
		"Create a realistic, high quality editorial image for a news article titled %q. "+
			"Context: %s. Do not include any text, letters or logos in the image.",
		article.Title, summary)
}
