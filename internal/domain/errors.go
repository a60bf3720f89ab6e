package domain

import "errors"

var (
	// ErrSourceUnavailable means the trends service could not be reached or refused the request.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrNoNewsFound means every news strategy came back empty for a trend.
	ErrNoNewsFound = errors.New("no news found")
	// ErrRewriteFailed covers API errors, exhausted quota and unusable completions.
	ErrRewriteFailed = errors.New("rewrite failed")
	// ErrAuthenticationFailed means the publishing endpoint rejected the credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrPublishFailed covers network and endpoint errors while creating a post.
	ErrPublishFailed = errors.New("publish failed")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrSourceUnavailable, "SourceUnavailable"},
	{ErrNoNewsFound, "NoNewsFound"},
	{ErrRewriteFailed, "RewriteFailed"},
	{ErrAuthenticationFailed, "AuthenticationFailed"},
	{ErrPublishFailed, "PublishFailed"},
}

// KindOf maps an error to the name of its failure kind, or "Unknown".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Unknown"
}
