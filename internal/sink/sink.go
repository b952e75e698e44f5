// Package sink hands accepted items to durable storage exactly once per
// fingerprint, either directly or through a remote /post endpoint.
package sink

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

// Sink persists accepted items. A repeated fingerprint is reported as
// domain.SubmitDuplicate, never as an error. Errors wrap domain.ErrValidation
// or domain.ErrStorage.
type Sink interface {
	Submit(ctx context.Context, item domain.AcceptedItem) (domain.SubmitStatus, error)
}

// Notifier is told about every newly stored item. Notify must not block.
type Notifier interface {
	Notify(item domain.AcceptedItem)
}

// Payload is the JSON body of POST /post.
type Payload struct {
	SourceName  string  `json:"source_name"`
	GroupName   string  `json:"group_name,omitempty"` // legacy alias of source_name
	Text        string  `json:"text"`
	Link        *string `json:"link"`
	ContentHash string  `json:"content_hash"`
	SourceType  string  `json:"source_type"`
}

// NewPayload builds the wire body for item. group_name is filled too so
// legacy /post endpoints keep the source name.
func NewPayload(item domain.AcceptedItem) Payload {
	p := Payload{
		SourceName:  item.SourceName,
		GroupName:   item.SourceName,
		Text:        item.Text,
		ContentHash: item.ContentHash,
		SourceType:  item.SourceType,
	}
	if item.Link != "" {
		link := item.Link
		p.Link = &link
	}
	return p
}

// Item converts a decoded payload, applying the legacy defaults. The text is
// taken as sent: the hash was computed over it by the submitter.
func (p Payload) Item() domain.AcceptedItem {
	name := p.SourceName
	if name == "" {
		name = p.GroupName
	}
	sourceType := strings.TrimSpace(p.SourceType)
	if sourceType == "" {
		sourceType = domain.ProviderFacebook
	}
	var link string
	if p.Link != nil {
		link = *p.Link
	}
	return domain.AcceptedItem{
		SourceName:  name,
		Text:        p.Text,
		Link:        link,
		ContentHash: strings.ToLower(strings.TrimSpace(p.ContentHash)),
		SourceType:  sourceType,
	}
}

// Response is the JSON body returned by POST /post.
type Response struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}
