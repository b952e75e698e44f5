package domain

import (
	"net/url"
	"strings"
	"time"
)

// Provider kinds a Source can be polled with.
const (
	ProviderFacebook = "facebook"
	ProviderRSS      = "rss"
)

// Source is an external group or feed monitored by the scheduler.
//
// Sources are long-lived configuration: created and toggled through the
// administrative API and only removed by an explicit delete.
type Source struct {
	// ID is the storage primary key.
	ID int64 `json:"id"`

	// SourceID identifies the group/feed at the provider.
	// Facebook: group slug or numeric id. RSS: feed URL.
	SourceID string `json:"source_id"`

	// Name is the display name, copied onto every accepted item.
	Name string `json:"source_name"`

	// Provider selects the fetcher ("facebook" or "rss").
	Provider string `json:"provider"`

	// Enabled sources are polled, disabled ones are skipped.
	Enabled bool `json:"enabled"`

	AddedAt time.Time `json:"added_at"`
}

// SourceInput is what the administrative API accepts to create a source.
type SourceInput struct {
	SourceID string
	Name     string
	Provider string
}

// Normalize fills defaults and reduces Facebook group URLs to their id.
// It returns false when the input cannot describe a source.
func (in SourceInput) Normalize() (SourceInput, bool) {
	in.Provider = strings.ToLower(strings.TrimSpace(in.Provider))
	if in.Provider == "" {
		in.Provider = ProviderFacebook
	}
	if !IsKnownProvider(in.Provider) {
		return in, false
	}

	in.SourceID = strings.TrimSpace(in.SourceID)
	if in.Provider == ProviderFacebook {
		in.SourceID = ExtractSourceID(in.SourceID)
	}
	if in.SourceID == "" {
		return in, false
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = in.SourceID
	}
	return in, true
}

// IsKnownProvider reports whether p names a supported provider.
func IsKnownProvider(p string) bool {
	return p == ProviderFacebook || p == ProviderRSS
}

// ExtractSourceID pulls the group slug/id out of a Facebook group URL.
//
//	https://www.facebook.com/groups/ProjectAmazon     -> ProjectAmazon
//	https://www.facebook.com/groups/187743251645949/  -> 187743251645949
//
// Anything that is not a group URL is returned unchanged.
func ExtractSourceID(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil {
		return link
	}

	parts := make([]string, 0, 4)
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	for i, p := range parts {
		if p == "groups" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return link
}
