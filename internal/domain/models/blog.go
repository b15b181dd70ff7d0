// internal/domain/models/blog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blog categories and statuses.
const (
	BlogDraft     = "draft"
	BlogPublished = "published"
	BlogArchived  = "archived"
)

// BlogCategories lists every accepted blog category.
var BlogCategories = []string{"buying", "selling", "renting", "investment", "market-news", "tips"}

// BlogStatuses lists every accepted blog status.
var BlogStatuses = []string{BlogDraft, BlogPublished, BlogArchived}

// Blog is a content post. Content holds sanitized HTML.
type Blog struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title      string              `bson:"title" json:"title"`
	Slug       string              `bson:"slug" json:"slug"`
	Content    string              `bson:"content" json:"content"`
	Excerpt    string              `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	Author     primitive.ObjectID  `bson:"author" json:"author"`
	AuthorInfo *PersonSummary      `bson:"author_info,omitempty" json:"author_info,omitempty"`
	Category   string              `bson:"category" json:"category"`
	Tags       []string            `bson:"tags,omitempty" json:"tags,omitempty"`
	Status     string              `bson:"status" json:"status"`
	Featured   bool                `bson:"featured" json:"featured"`
	Views      int64               `bson:"views" json:"views"`

	PublishedAt *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}
