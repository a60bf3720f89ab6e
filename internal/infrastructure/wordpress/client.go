package wordpress

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kolo/xmlrpc"

	"TrendPress/internal/config"
	"TrendPress/internal/domain"
	"TrendPress/internal/ports"
)

const blogID = 0

// Client publishes posts through the WordPress XML-RPC API.
type Client struct {
	cfg      config.WordPressConfig
	rpc      *xmlrpc.Client
	verified bool
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.Publisher = (*Client)(nil)

// NewClient builds an XML-RPC client for cfg.URL. A nil transport gets the configured timeout.
func NewClient(cfg config.WordPressConfig, transport http.RoundTripper, log *slog.Logger) (*Client, error) {
	c := &Client{cfg: cfg, logger: log, now: time.Now}
	if !cfg.Configured() {
		return c, nil
	}

	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: cfg.Timeout,
		}
	}

	rpc, err := xmlrpc.NewClient(Endpoint(cfg.URL), transport)
	if err != nil {
		return nil, fmt.Errorf("xmlrpc client: %w", err)
	}
	c.rpc = rpc
	return c, nil
}

// Endpoint turns a site URL into its xmlrpc.php endpoint.
func Endpoint(siteURL string) string {
	siteURL = strings.TrimRight(strings.TrimSpace(siteURL), "/")
	if strings.HasSuffix(siteURL, "xmlrpc.php") {
		return siteURL
	}
	return siteURL + "/xmlrpc.php"
}

// Publish verifies the credentials and creates a new post.
// Every call creates a new post; there is no deduplication.
func (c *Client) Publish(ctx context.Context, article domain.RewrittenArticle) (domain.PublishResult, error) {
	if c.rpc == nil {
		err := fmt.Errorf("%w: wordpress credentials not configured", domain.ErrPublishFailed)
		return domain.FailedResult(err), err
	}
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrPublishFailed, err)
		return domain.FailedResult(err), err
	}

	if err := c.authenticate(); err != nil {
		return domain.FailedResult(err), err
	}

	var reply interface{}
	if err := c.rpc.Call("wp.newPost", c.args(c.buildPost(article)), &reply); err != nil {
		err = classify("wp.newPost", err)
		return domain.FailedResult(err), err
	}

	postID, err := toInt(reply)
	if err != nil {
		err = fmt.Errorf("%w: wp.newPost returned %v", domain.ErrPublishFailed, reply)
		return domain.FailedResult(err), err
	}

	if article.ImagePath != "" {
		if err := c.attachImage(postID, article.ImagePath); err != nil {
			c.warn("featured image not attached", "post_id", postID, "error", err)
		}
	}

	c.info("post published", "post_id", postID, "title", article.Title)
	return domain.PublishResult{Success: true, PostID: postID}, nil
}

func (c *Client) authenticate() error {
	if c.verified {
		return nil
	}

	var profile map[string]interface{}
	if err := c.rpc.Call("wp.getProfile", c.args(), &profile); err != nil {
		return classify("wp.getProfile", err)
	}
	c.verified = true
	c.info("connected to wordpress", "user", profile["display_name"])
	return nil
}

func (c *Client) buildPost(article domain.RewrittenArticle) map[string]interface{} {
	status := c.cfg.Status
	if status == "" {
		status = "publish"
	}

	post := map[string]interface{}{
		"post_title":   article.Title,
		"post_content": CleanContent(article.Body),
		"post_status":  status,
		"post_date":    c.now(),
	}
	if article.Excerpt != "" {
		post["post_excerpt"] = article.Excerpt
	}

	terms := map[string]interface{}{}
	if len(article.Categories) > 0 {
		terms["category"] = article.Categories
	}
	if len(article.Tags) > 0 {
		terms["post_tag"] = article.Tags
	}
	if len(terms) > 0 {
		post["terms_names"] = terms
	}
	return post
}

func (c *Client) attachImage(postID int, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	name := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	var upload map[string]interface{}
	err = c.rpc.Call("wp.uploadFile", c.args(map[string]interface{}{
		"name":      name,
		"type":      mimeType,
		"bits":      xmlrpc.Base64(base64.StdEncoding.EncodeToString(raw)),
		"overwrite": true,
	}), &upload)
	if err != nil {
		return fmt.Errorf("wp.uploadFile: %w", err)
	}

	attachmentID, err := toInt(upload["id"])
	if err != nil {
		return fmt.Errorf("wp.uploadFile returned id %v", upload["id"])
	}

	var ok bool
	err = c.rpc.Call("wp.editPost", c.args(postID, map[string]interface{}{
		"post_thumbnail": attachmentID,
	}), &ok)
	if err != nil {
		return fmt.Errorf("wp.editPost: %w", err)
	}
	return nil
}

func (c *Client) args(extra ...interface{}) []interface{} {
	return append([]interface{}{blogID, c.cfg.Username, c.cfg.Password}, extra...)
}

// CleanContent strips line breaks and Markdown fences that WordPress would render literally.
func CleanContent(body string) string {
	body = strings.NewReplacer("\r\n", "", "\r", "", "\n", "").Replace(body)
	body = strings.ReplaceAll(body, "```html", "")
	return strings.ReplaceAll(body, "```", "")
}

func classify(method string, err error) error {
	var fault xmlrpc.FaultError
	if errors.As(err, &fault) && (fault.Code == 401 || fault.Code == 403) {
		return fmt.Errorf("%w: %s: %w", domain.ErrAuthenticationFailed, method, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "fault(403)"),
		strings.Contains(msg, "fault(401)"),
		strings.Contains(msg, "incorrect username or password"),
		strings.Contains(msg, "bad status code - 401"),
		strings.Contains(msg, "bad status code - 403"):
		return fmt.Errorf("%w: %s: %w", domain.ErrAuthenticationFailed, method, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPublishFailed, method, err)
}

func toInt(v interface{}) (int, error) {
	switch id := v.(type) {
	case int:
		return id, nil
	case int64:
		return int(id), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(id))
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}

func (c *Client) info(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Client) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
