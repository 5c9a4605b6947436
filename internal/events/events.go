// Package events defines the domain events emitted by the shortener and the sink that
// records them.
package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlink/internal/messaging"
)

const (
	TopicLinkCreated  = "link.created"
	TopicLinkResolved = "link.resolved"
)

// LinkCreated is emitted when a URL is shortened.
type LinkCreated struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"originalUrl"`
	ShortURL    string    `json:"shortUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	ClientIP    string    `json:"clientIp"`
	UserAgent   string    `json:"userAgent"`
}

// LinkResolved is emitted when a short code is resolved to its original URL.
type LinkResolved struct {
	Code       string    `json:"code"`
	ResolvedAt time.Time `json:"resolvedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer,omitempty"`
}

// Publishers holds the typed publish functions used by the HTTP handlers.
type Publishers struct {
	LinkCreated  messaging.Publish[LinkCreated]
	LinkResolved messaging.Publish[LinkResolved]
}

// NewPublishers binds the typed publish functions to publisher.
func NewPublishers(publisher message.Publisher) Publishers {
	return Publishers{
		LinkCreated:  messaging.NewPublishFunc[LinkCreated](publisher, TopicLinkCreated),
		LinkResolved: messaging.NewPublishFunc[LinkResolved](publisher, TopicLinkResolved),
	}
}

// DiscardPublishers drops every event. Used when event publishing is disabled.
func DiscardPublishers() Publishers {
	return Publishers{
		LinkCreated:  messaging.Discard[LinkCreated](),
		LinkResolved: messaging.Discard[LinkResolved](),
	}
}
