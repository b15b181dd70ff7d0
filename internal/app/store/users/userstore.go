// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	"github.com/dalemusser/listinghub/internal/app/store/query"
	"github.com/dalemusser/listinghub/internal/app/system/actor"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/inputval"
	"github.com/dalemusser/listinghub/internal/app/system/metrics"
	"github.com/dalemusser/listinghub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password Create and SetPassword accept.
const MinPasswordLength = 8

const bcryptCost = 12

type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection(catalog.Users)}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("uniq_users_email").SetUnique(true)},
		{Keys: bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("idx_users_name_ci")},
		{Keys: bson.D{{Key: "role", Value: 1}}, Options: options.Index().SetName("idx_users_role")},
	})
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validate(u models.User) error {
	return inputval.First(
		inputval.Required("name", u.Name),
		inputval.Required("email", u.Email),
		inputval.Email("email", u.Email),
		inputval.OneOf("role", u.Role, models.UserRoles),
	)
}

// hashPassword hashes a password using bcrypt.
func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", filters.Invalid("password", "", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Create inserts a new user. Role defaults to user. An empty password
// creates an account that cannot sign in.
func (s *Store) Create(ctx context.Context, u models.User, password string) (out models.User, err error) {
	done := metrics.Observe(catalog.Users, "create")
	defer func() { done(err) }()

	u.ID = primitive.NewObjectID()
	u.Name = strings.TrimSpace(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if err = validate(u); err != nil {
		return models.User{}, err
	}
	u.PasswordHash = ""
	if password != "" {
		if u.PasswordHash, err = hashPassword(password); err != nil {
			return models.User{}, err
		}
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err = s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, query.ErrDuplicate
		}
		return models.User{}, err
	}
	return u, nil
}

// EnsureSystemUser creates the account behind the system actor if it does
// not exist yet. An existing document is left untouched.
func (s *Store) EnsureSystemUser(ctx context.Context, a actor.Actor) (created bool, err error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": a.ID},
		bson.M{"$setOnInsert": bson.M{
			"name":       a.Name,
			"name_ci":    text.Fold(a.Name),
			"email":      normalizeEmail(a.Email),
			"role":       models.RoleSystem,
			"is_active":  true,
			"created_at": now,
			"updated_at": now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return false, query.ErrDuplicate
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return query.Get[models.User](ctx, s.db, catalog.User, id)
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, query.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// CheckPassword reports whether password matches the stored hash for email.
// Unknown users and hashless accounts both report false.
func (s *Store) CheckPassword(ctx context.Context, email, password string) (bool, error) {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, query.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if u.PasswordHash == "" {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil, nil
}

// SetPassword replaces a user's password.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return query.ErrNotFound
	}
	return nil
}

// Patch holds the fields that can be updated for a user.
type Patch struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

// Update applies a patch. Returns query.ErrDuplicate if the email belongs
// to another user.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.User, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	set := bson.M{}
	if p.Name != nil {
		cur.Name = strings.TrimSpace(*p.Name)
		cur.NameCI = text.Fold(cur.Name)
		set["name"], set["name_ci"] = cur.Name, cur.NameCI
	}
	if p.Email != nil {
		cur.Email = normalizeEmail(*p.Email)
		set["email"] = cur.Email
	}
	if p.Phone != nil {
		cur.Phone = *p.Phone
		set["phone"] = cur.Phone
	}
	if p.Role != nil {
		cur.Role = *p.Role
		set["role"] = cur.Role
	}
	if p.IsActive != nil {
		cur.IsActive = *p.IsActive
		set["is_active"] = cur.IsActive
	}
	if err := validate(cur); err != nil {
		return models.User{}, err
	}
	if p.Password != nil {
		hash, err := hashPassword(*p.Password)
		if err != nil {
			return models.User{}, err
		}
		set["password_hash"] = hash
	}
	cur.UpdatedAt = time.Now().UTC()
	set["updated_at"] = cur.UpdatedAt

	if _, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, query.ErrDuplicate
		}
		return models.User{}, err
	}
	cur.PasswordHash = ""
	return cur, nil
}

// Delete deletes a user by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns one page of users. Password hashes are never included.
func (s *Store) List(ctx context.Context, params filters.Params) (query.Page[models.User], error) {
	spec, err := query.Prepare(catalog.User, params)
	if err != nil {
		return query.Page[models.User]{}, err
	}
	return query.List[models.User](ctx, s.db, spec)
}

func (s *Store) Count(ctx context.Context, params filters.Params) (int64, error) {
	spec, err := query.Prepare(catalog.User, params)
	if err != nil {
		return 0, err
	}
	return query.Count(ctx, s.db, spec)
}
