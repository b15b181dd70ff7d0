// internal/app/store/blogs/blogstore.go
package blogstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	"github.com/dalemusser/listinghub/internal/app/store/query"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/listinghub/internal/app/system/inputval"
	"github.com/dalemusser/listinghub/internal/app/system/metrics"
	"github.com/dalemusser/listinghub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ExcerptLength is the rune length of generated excerpts.
const ExcerptLength = 200

// slugAttempts bounds the "-2", "-3", ... suffixes tried on collision.
const slugAttempts = 5

type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection(catalog.Blogs)}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetName("uniq_blogs_slug").SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: -1}}, Options: options.Index().SetName("idx_blogs_status_published")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_blogs_category")},
		{Keys: bson.D{{Key: "tags", Value: 1}}, Options: options.Index().SetName("idx_blogs_tags")},
		{Keys: bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("idx_blogs_views")},
	})
	return err
}

// Slugify lowercases title, folds diacritics and joins words with "-".
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range text.Fold(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func validate(b models.Blog) error {
	return inputval.First(
		inputval.Required("title", b.Title),
		inputval.Required("content", b.Content),
		inputval.OneOf("category", b.Category, models.BlogCategories),
		inputval.OneOf("status", b.Status, models.BlogStatuses),
		authorValid(b.Author),
	)
}

func authorValid(id primitive.ObjectID) error {
	if id.IsZero() {
		return filters.Invalid("author", "", "is required")
	}
	return nil
}

// Create inserts a post. Content is sanitized, slug and excerpt are derived
// when missing, and a published post gets its publish time.
func (s *Store) Create(ctx context.Context, b models.Blog) (out models.Blog, err error) {
	done := metrics.Observe(catalog.Blogs, "create")
	defer func() { done(err) }()

	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.Title = strings.TrimSpace(b.Title)
	b.Content = htmlsanitize.Sanitize(b.Content)
	if b.Excerpt == "" {
		b.Excerpt = htmlsanitize.Excerpt(b.Content, ExcerptLength)
	} else {
		b.Excerpt = htmlsanitize.StripTags(b.Excerpt)
	}
	if b.Status == "" {
		b.Status = models.BlogDraft
	}
	if b.Status == models.BlogPublished && b.PublishedAt == nil {
		b.PublishedAt = &now
	}
	b.Slug = Slugify(b.Slug)
	if b.Slug == "" {
		b.Slug = Slugify(b.Title)
	}
	b.Views = 0
	b.AuthorInfo = nil
	b.CreatedAt = now
	b.UpdatedAt = now

	if err = validate(b); err != nil {
		return models.Blog{}, err
	}
	if b.Slug == "" {
		return models.Blog{}, filters.Invalid("slug", b.Title, "title must contain letters or digits")
	}

	base := b.Slug
	for i := 1; i <= slugAttempts; i++ {
		if i > 1 {
			b.Slug = fmt.Sprintf("%s-%d", base, i)
		}
		_, err = s.c.InsertOne(ctx, b)
		if err == nil {
			return b, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Blog{}, err
		}
	}
	return models.Blog{}, query.ErrDuplicate
}

// GetByID returns a post with its author summary and counts the read.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Blog, error) {
	if err := s.incrementViews(ctx, bson.M{"_id": id}); err != nil {
		return models.Blog{}, err
	}
	return query.Get[models.Blog](ctx, s.db, catalog.Blog, id)
}

// GetBySlug is GetByID keyed by slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Blog, error) {
	var ref struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"slug": slug},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetProjection(bson.M{"_id": 1}),
	).Decode(&ref)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Blog{}, query.ErrNotFound
	}
	if err != nil {
		return models.Blog{}, err
	}
	return query.Get[models.Blog](ctx, s.db, catalog.Blog, ref.ID)
}

func (s *Store) incrementViews(ctx context.Context, filter bson.M) (err error) {
	done := metrics.Observe(catalog.Blogs, "view")
	defer func() { done(err) }()

	err = s.c.FindOneAndUpdate(ctx, filter,
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return query.ErrNotFound
	}
	return err
}

// Patch carries the mutable fields of an update.
type Patch struct {
	Title    *string   `json:"title"`
	Slug     *string   `json:"slug"`
	Content  *string   `json:"content"`
	Excerpt  *string   `json:"excerpt"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
	Status   *string   `json:"status"`
	Featured *bool     `json:"featured"`
}

// Update applies a patch. Publishing a post for the first time stamps
// published_at.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.Blog, error) {
	var cur models.Blog
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cur); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Blog{}, query.ErrNotFound
		}
		return models.Blog{}, err
	}

	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	if p.Title != nil {
		cur.Title = strings.TrimSpace(*p.Title)
		set["title"] = cur.Title
	}
	if p.Slug != nil {
		cur.Slug = Slugify(*p.Slug)
		if cur.Slug == "" {
			return models.Blog{}, filters.Invalid("slug", *p.Slug, "must contain letters or digits")
		}
		set["slug"] = cur.Slug
	}
	if p.Content != nil {
		cur.Content = htmlsanitize.Sanitize(*p.Content)
		set["content"] = cur.Content
	}
	if p.Excerpt != nil {
		set["excerpt"] = htmlsanitize.StripTags(*p.Excerpt)
	}
	if p.Category != nil {
		cur.Category = *p.Category
		set["category"] = cur.Category
	}
	if p.Tags != nil {
		set["tags"] = *p.Tags
	}
	if p.Status != nil {
		cur.Status = *p.Status
		set["status"] = cur.Status
		if cur.Status == models.BlogPublished && cur.PublishedAt == nil {
			set["published_at"] = now
		}
	}
	if p.Featured != nil {
		set["featured"] = *p.Featured
	}
	if err := validate(cur); err != nil {
		return models.Blog{}, err
	}

	if _, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Blog{}, query.ErrDuplicate
		}
		return models.Blog{}, err
	}
	return query.Get[models.Blog](ctx, s.db, catalog.Blog, id)
}

// Delete removes a post. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns one page of posts without their content.
func (s *Store) List(ctx context.Context, params filters.Params) (query.Page[models.Blog], error) {
	spec, err := query.Prepare(catalog.Blog, params)
	if err != nil {
		return query.Page[models.Blog]{}, err
	}
	return query.List[models.Blog](ctx, s.db, spec)
}

// Count returns how many posts match params.
func (s *Store) Count(ctx context.Context, params filters.Params) (int64, error) {
	spec, err := query.Prepare(catalog.Blog, params)
	if err != nil {
		return 0, err
	}
	return query.Count(ctx, s.db, spec)
}
