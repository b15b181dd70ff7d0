// internal/app/store/catalog/catalog.go
//
// Package catalog declares the filter, sort and search surface of every
// listable collection. Handlers and stores look descriptors up here; the
// query engine itself holds no entity-specific code.
package catalog

import (
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/domain/models"
)

// Collection names.
const (
	Properties      = "properties"
	Agents          = "agents"
	Blogs           = "blogs"
	Contacts        = "contacts"
	AnalyticsEvents = "analytics_events"
	Users           = "users"
)

var personSummary = []string{"name", "email", "phone"}

var Property = filters.Descriptor{
	Name:       "property",
	Collection: Properties,
	Fields: []filters.Field{
		{Param: "propertyType", Path: "property_type", Kind: filters.Enum, Allowed: models.PropertyTypes},
		{Param: "listingType", Path: "listing_type", Kind: filters.Enum, Allowed: models.ListingTypes},
		{Param: "status", Path: "status", Kind: filters.Enum, Allowed: models.PropertyStatuses},
		{Param: "price", Path: "price", Kind: filters.Float},
		{Param: "bedrooms", Path: "bedrooms", Kind: filters.Integer},
		{Param: "bathrooms", Path: "bathrooms", Kind: filters.Float},
		{Param: "area", Path: "area.size", Kind: filters.NestedRange},
		{Param: "city", Path: "address.city", Kind: filters.StringRegex},
		{Param: "state", Path: "address.state", Kind: filters.StringRegex},
		{Param: "zipCode", Path: "address.zip_code", Kind: filters.StringExact},
		{Param: "featured", Path: "featured", Kind: filters.Boolean},
		{Param: "agent", Path: "agent", Kind: filters.ObjectID},
		{Param: "owner", Path: "owner", Kind: filters.ObjectID},
		{Param: "createdAt", Path: "created_at", Kind: filters.DateRange},
	},
	TextSearch:  []string{"title", "description", "address.city", "address.street"},
	DefaultSort: filters.Sort{Path: "created_at", Direction: filters.Desc},
	Sortable: map[string]string{
		"price":     "price",
		"bedrooms":  "bedrooms",
		"bathrooms": "bathrooms",
		"area":      "area.size",
		"views":     "views",
		"title":     "title",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Populations: []filters.Population{
		{Field: "agent", From: Agents, As: "agent_info", Fields: personSummary},
		{Field: "owner", From: Users, As: "owner_info", Fields: personSummary},
	},
}

var Agent = filters.Descriptor{
	Name:       "agent",
	Collection: Agents,
	Fields: []filters.Field{
		{Param: "agency", Path: "agency", Kind: filters.StringRegex},
		{Param: "specialty", Path: "specialties", Kind: filters.StringRegex},
		{Param: "language", Path: "languages", Kind: filters.StringRegex},
		{Param: "yearsExperience", Path: "years_experience", Kind: filters.Integer},
		{Param: "rating", Path: "rating", Kind: filters.Float},
		{Param: "isActive", Path: "is_active", Kind: filters.Boolean},
	},
	TextSearch:  []string{"name", "agency", "bio"},
	DefaultSort: filters.Sort{Path: "name_ci", Direction: filters.Asc},
	Sortable: map[string]string{
		"name":            "name_ci",
		"rating":          "rating",
		"yearsExperience": "years_experience",
		"createdAt":       "created_at",
	},
	ListExclude: []string{"testimonials"},
}

var Blog = filters.Descriptor{
	Name:       "blog",
	Collection: Blogs,
	Fields: []filters.Field{
		{Param: "category", Path: "category", Kind: filters.Enum, Allowed: models.BlogCategories},
		{Param: "status", Path: "status", Kind: filters.Enum, Allowed: models.BlogStatuses},
		{Param: "tag", Path: "tags", Kind: filters.StringExact},
		{Param: "featured", Path: "featured", Kind: filters.Boolean},
		{Param: "author", Path: "author", Kind: filters.ObjectID},
		{Param: "slug", Path: "slug", Kind: filters.StringExact},
		{Param: "publishedAt", Path: "published_at", Kind: filters.DateRange},
	},
	TextSearch:  []string{"title", "excerpt", "content"},
	DefaultSort: filters.Sort{Path: "created_at", Direction: filters.Desc},
	Sortable: map[string]string{
		"title":       "title",
		"views":       "views",
		"publishedAt": "published_at",
		"createdAt":   "created_at",
	},
	ListExclude: []string{"content"},
	Populations: []filters.Population{
		{Field: "author", From: Users, As: "author_info", Fields: personSummary},
	},
}

var Contact = filters.Descriptor{
	Name:       "contact",
	Collection: Contacts,
	Fields: []filters.Field{
		{Param: "status", Path: "status", Kind: filters.Enum, Allowed: models.ContactStatuses},
		{Param: "inquiryType", Path: "inquiry_type", Kind: filters.Enum, Allowed: models.InquiryTypes},
		{Param: "property", Path: "property", Kind: filters.ObjectID},
		{Param: "agent", Path: "agent", Kind: filters.ObjectID},
		{Param: "email", Path: "email", Kind: filters.StringRegex},
		{Param: "createdAt", Path: "created_at", Kind: filters.DateRange},
	},
	TextSearch:  []string{"name", "email", "subject", "message"},
	DefaultSort: filters.Sort{Path: "created_at", Direction: filters.Desc},
	Sortable: map[string]string{
		"name":      "name",
		"status":    "status",
		"createdAt": "created_at",
	},
	Populations: []filters.Population{
		{Field: "property", From: Properties, As: "property_info", Fields: []string{"title", "price", "address"}},
		{Field: "agent", From: Agents, As: "agent_info", Fields: personSummary},
	},
}

var AnalyticsEvent = filters.Descriptor{
	Name:       "analytics event",
	Collection: AnalyticsEvents,
	Fields: []filters.Field{
		{Param: "eventType", Path: "event_type", Kind: filters.Enum, Allowed: models.EventTypes},
		{Param: "entityId", Path: "entity_id", Kind: filters.ObjectID},
		{Param: "userId", Path: "user_id", Kind: filters.ObjectID},
		{Param: "sessionId", Path: "session_id", Kind: filters.StringExact},
		{Param: "page", Path: "page", Kind: filters.StringRegex},
		{Param: "timestamp", Path: "timestamp", Kind: filters.DateRange},
	},
	TextSearch:  []string{"page", "query", "referrer"},
	DefaultSort: filters.Sort{Path: "timestamp", Direction: filters.Desc},
	Sortable: map[string]string{
		"timestamp": "timestamp",
		"eventType": "event_type",
	},
}

var User = filters.Descriptor{
	Name:       "user",
	Collection: Users,
	Fields: []filters.Field{
		{Param: "role", Path: "role", Kind: filters.Enum, Allowed: models.UserRoles},
		{Param: "isActive", Path: "is_active", Kind: filters.Boolean},
		{Param: "email", Path: "email", Kind: filters.StringRegex},
		{Param: "createdAt", Path: "created_at", Kind: filters.DateRange},
	},
	TextSearch:  []string{"name", "email"},
	DefaultSort: filters.Sort{Path: "name_ci", Direction: filters.Asc},
	Sortable: map[string]string{
		"name":      "name_ci",
		"email":     "email",
		"createdAt": "created_at",
	},
	ListExclude: []string{"password_hash"},
}

// All lists every descriptor, in a stable order.
func All() []filters.Descriptor {
	return []filters.Descriptor{Property, Agent, Blog, Contact, AnalyticsEvent, User}
}
