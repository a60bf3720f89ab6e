package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"TrendPress/internal/domain"
	"TrendPress/internal/ports"
	"TrendPress/internal/textutil"
)

const (
	resultsFile = "results.json"
	trendsFile  = "trends.json"
)

// FileStore writes run artifacts as JSON and HTML files under one directory.
type FileStore struct {
	dir string
	now func() time.Time
}

var _ ports.SummaryStore = (*FileStore)(nil)

// NewFileStore keeps artifacts in dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// Dir returns the artifact directory.
func (s *FileStore) Dir() string {
	return s.dir
}

type trendsRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Trends    []domain.Trend `json:"trends"`
}

// SaveTrends writes the fetched trends to trends.json.
func (s *FileStore) SaveTrends(trends []domain.Trend) (string, error) {
	if trends == nil {
		trends = []domain.Trend{}
	}
	return s.writeJSON(trendsFile, trendsRecord{Timestamp: s.now().UTC(), Trends: trends})
}

// SaveArticle writes the rewritten body to article_<ts>_<title>.html.
func (s *FileStore) SaveArticle(article domain.RewrittenArticle) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("article_%d_%s.html", s.now().Unix(), textutil.SafeFileName(article.Title, 50))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(article.Body), 0o644); err != nil {
		return "", fmt.Errorf("write article: %w", err)
	}
	return path, nil
}

type outcomeRecord struct {
	Trend       string    `json:"trend"`
	NewsTitle   string    `json:"news_title"`
	NewsURL     string    `json:"news_url,omitempty"`
	Title       string    `json:"title,omitempty"`
	Stage       string    `json:"stage"`
	Success     bool      `json:"success"`
	PostID      int       `json:"post_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	ImagePath   string    `json:"image_path,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

type summaryRecord struct {
	Timestamp      time.Time             `json:"timestamp"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
	TotalProcessed int                   `json:"total_processed"`
	Succeeded      int                   `json:"succeeded"`
	Failed         int                   `json:"failed"`
	Aborted        string                `json:"aborted,omitempty"`
	Trends         []domain.Trend        `json:"trends"`
	SkippedTrends  []domain.SkippedTrend `json:"skipped_trends"`
	Results        []outcomeRecord       `json:"results"`
}

// WriteSummary writes results.json, replacing the previous run's file.
func (s *FileStore) WriteSummary(summary domain.RunSummary) (string, error) {
	record := summaryRecord{
		Timestamp:      s.now().UTC(),
		StartedAt:      summary.StartedAt,
		FinishedAt:     summary.FinishedAt,
		TotalProcessed: summary.Total(),
		Succeeded:      summary.Succeeded(),
		Failed:         summary.Failed(),
		Aborted:        summary.Aborted,
		Trends:         summary.Trends,
		SkippedTrends:  summary.SkippedTrends,
		Results:        make([]outcomeRecord, 0, len(summary.Outcomes)),
	}
	if record.Trends == nil {
		record.Trends = []domain.Trend{}
	}
	if record.SkippedTrends == nil {
		record.SkippedTrends = []domain.SkippedTrend{}
	}

	for _, o := range summary.Outcomes {
		record.Results = append(record.Results, outcomeRecord{
			Trend:       o.Trend,
			NewsTitle:   o.NewsTitle,
			NewsURL:     o.NewsURL,
			Title:       o.Title,
			Stage:       string(o.Stage),
			Success:     o.Result.Success,
			PostID:      o.Result.PostID,
			Error:       o.Result.Error,
			ErrorKind:   o.Result.ErrorKind,
			FilePath:    o.FilePath,
			ImagePath:   o.ImagePath,
			ProcessedAt: o.ProcessedAt,
		})
	}

	return s.writeJSON(resultsFile, record)
}

// ReadSummary loads the last results.json; os.ErrNotExist when no run finished yet.
func (s *FileStore) ReadSummary() (json.RawMessage, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, resultsFile))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// Remove deletes an artifact; missing files are ignored.
func (s *FileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) writeJSON(name string, v any) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replace %s: %w", name, err)
	}
	return path, nil
}
