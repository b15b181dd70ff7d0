// internal/domain/models/analyticsevent.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Analytics event types.
const (
	EventPageView      = "page_view"
	EventPropertyView  = "property_view"
	EventBlogView      = "blog_view"
	EventAgentView     = "agent_view"
	EventSearch        = "search"
	EventContactSubmit = "contact_submit"
)

// EventTypes lists every accepted event_type value.
var EventTypes = []string{EventPageView, EventPropertyView, EventBlogView, EventAgentView, EventSearch, EventContactSubmit}

// AnalyticsRetention is how long events are kept before the TTL index
// removes them.
const AnalyticsRetention = 365 * 24 * time.Hour

// AnalyticsEvent is one tracked usage event.
type AnalyticsEvent struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	EventType string              `bson:"event_type" json:"event_type"`
	EntityID  *primitive.ObjectID `bson:"entity_id,omitempty" json:"entity_id,omitempty"`
	UserID    *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	SessionID string              `bson:"session_id" json:"session_id"`
	Page      string              `bson:"page,omitempty" json:"page,omitempty"`
	Referrer  string              `bson:"referrer,omitempty" json:"referrer,omitempty"`
	Query     string              `bson:"query,omitempty" json:"query,omitempty"`
	IP        string              `bson:"ip,omitempty" json:"-"`
	UserAgent string              `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
}
