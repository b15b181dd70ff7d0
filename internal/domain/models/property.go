// internal/domain/models/property.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Property type, listing type and status values.
const (
	PropertyHouse      = "house"
	PropertyApartment  = "apartment"
	PropertyCondo      = "condo"
	PropertyTownhouse  = "townhouse"
	PropertyLand       = "land"
	PropertyCommercial = "commercial"

	ListingSale = "sale"
	ListingRent = "rent"

	PropertyAvailable = "available"
	PropertyPending   = "pending"
	PropertySold      = "sold"
	PropertyRented    = "rented"
)

// PropertyTypes lists every accepted property_type value.
var PropertyTypes = []string{PropertyHouse, PropertyApartment, PropertyCondo, PropertyTownhouse, PropertyLand, PropertyCommercial}

// ListingTypes lists every accepted listing_type value.
var ListingTypes = []string{ListingSale, ListingRent}

// PropertyStatuses lists every accepted property status.
var PropertyStatuses = []string{PropertyAvailable, PropertyPending, PropertySold, PropertyRented}

// Address is the postal location of a property.
type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zip_code,omitempty" json:"zip_code,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// Area is the floor or lot size of a property.
type Area struct {
	Size float64 `bson:"size" json:"size"`
	Unit string  `bson:"unit,omitempty" json:"unit,omitempty"` // "sqft" or "sqm"
}

// Property is a listing offered for sale or rent.
//
// Agent and Owner are references; AgentInfo and OwnerInfo are only filled
// when a list query populates them and are never written back.
type Property struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	PropertyType string             `bson:"property_type" json:"property_type"`
	ListingType  string             `bson:"listing_type" json:"listing_type"`
	Status       string             `bson:"status" json:"status"`

	Price     float64 `bson:"price" json:"price"`
	Bedrooms  int     `bson:"bedrooms" json:"bedrooms"`
	Bathrooms float64 `bson:"bathrooms" json:"bathrooms"`
	Area      Area    `bson:"area" json:"area"`
	Address   Address `bson:"address" json:"address"`

	Features []string `bson:"features,omitempty" json:"features,omitempty"`
	Images   []string `bson:"images,omitempty" json:"images,omitempty"`
	Featured bool     `bson:"featured" json:"featured"`

	Agent     *primitive.ObjectID `bson:"agent,omitempty" json:"agent,omitempty"`
	AgentInfo *PersonSummary      `bson:"agent_info,omitempty" json:"agent_info,omitempty"`
	Owner     *primitive.ObjectID `bson:"owner,omitempty" json:"owner,omitempty"`
	OwnerInfo *PersonSummary      `bson:"owner_info,omitempty" json:"owner_info,omitempty"`

	Views int64 `bson:"views" json:"views"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
