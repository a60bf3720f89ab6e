package domain

import "time"

// Outcome records what happened to a single fetched news item.
type Outcome struct {
	Trend       string        `json:"trend"`
	NewsTitle   string        `json:"news_title"`
	NewsURL     string        `json:"news_url,omitempty"`
	Title       string        `json:"title,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Stage       Stage         `json:"stage"`
	Result      PublishResult `json:"result"`
	FilePath    string        `json:"file_path,omitempty"`
	ImagePath   string        `json:"image_path,omitempty"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// SkippedTrend is a trend for which no news could be retrieved.
type SkippedTrend struct {
	Trend  string `json:"trend"`
	Reason string `json:"reason"`
}

// RunSummary aggregates one pipeline execution.
type RunSummary struct {
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Trends        []Trend        `json:"trends"`
	SkippedTrends []SkippedTrend `json:"skipped_trends"`
	Aborted       string         `json:"aborted,omitempty"`
	Outcomes      []Outcome      `json:"results"`
}

// Total is the number of processed news items.
func (s RunSummary) Total() int {
	return len(s.Outcomes)
}

// Succeeded counts outcomes with a published post.
func (s RunSummary) Succeeded() int {
	var n int
	for _, o := range s.Outcomes {
		if o.Result.Success {
			n++
		}
	}
	return n
}

// Failed counts outcomes that did not end in a published post.
func (s RunSummary) Failed() int {
	return s.Total() - s.Succeeded()
}
