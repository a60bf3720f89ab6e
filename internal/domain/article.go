package domain

import "time"

// Trend is a currently popular search term pulled from the trends feed.
type Trend struct {
	Term      string    `json:"term"`
	Rank      int       `json:"rank"`
	Traffic   string    `json:"traffic,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewsItem is a news article related to a trend, before rewriting.
type NewsItem struct {
	Trend       Trend
	Title       string
	Body        string
	Summary     string
	URL         string
	SourceName  string
	ImageURL    string
	PublishedAt time.Time
	Origin      string
}

// Text returns the best available body text of the item.
func (n NewsItem) Text() string {
	if n.Body != "" {
		return n.Body
	}
	return n.Summary
}

// RewrittenArticle is the generated article handed to the publisher.
type RewrittenArticle struct {
	Item       NewsItem
	Title      string
	Body       string
	Excerpt    string
	Tags       []string
	Categories []string
	ImagePath  string
}

// PublishResult describes what happened to one article on the remote site.
type PublishResult struct {
	Success   bool   `json:"success"`
	PostID    int    `json:"post_id,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// FailedResult converts an error into a negative PublishResult.
func FailedResult(err error) PublishResult {
	if err == nil {
		return PublishResult{}
	}
	return PublishResult{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: KindOf(err),
	}
}

// Stage names the last pipeline step an item reached.
type Stage string

const (
	StageRewrite Stage = "rewrite"
	StagePublish Stage = "publish"
	StageDone    Stage = "done"
)
