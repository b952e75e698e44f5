package domain

import (
	"strings"
	"time"
)

// KeywordFilter decides which candidates become accepted items.
//
// Policy for an empty keyword set: reject everything. Operators who want
// every post must configure a keyword that always matches.
type KeywordFilter struct {
	keywords []string

	// MaxAge rejects candidates posted longer ago than this.
	// Zero disables the check; unknown posting times always pass.
	MaxAge time.Duration
}

// NewKeywordFilter lower-cases and trims keywords, dropping empty entries.
func NewKeywordFilter(keywords []string, maxAge time.Duration) *KeywordFilter {
	kws := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		kws = append(kws, kw)
	}
	return &KeywordFilter{keywords: kws, MaxAge: maxAge}
}

// Keywords returns the normalized keyword set.
func (f *KeywordFilter) Keywords() []string {
	out := make([]string, len(f.keywords))
	copy(out, f.keywords)
	return out
}

// Empty reports whether the filter rejects everything.
func (f *KeywordFilter) Empty() bool {
	return len(f.keywords) == 0
}

// Match reports whether text contains at least one keyword (case-insensitive).
func (f *KeywordFilter) Match(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Accept applies the keyword match and the age limit to a candidate.
func (f *KeywordFilter) Accept(c Candidate, now time.Time) bool {
	if NormalizeText(c.Text) == "" {
		return false
	}
	if f.MaxAge > 0 && !c.PostedAt.IsZero() && c.PostedAt.Before(now.Add(-f.MaxAge)) {
		return false
	}
	return f.Match(c.Text)
}
