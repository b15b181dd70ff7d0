// internal/domain/models/summary.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PersonSummary is the embedded view of a referenced user or agent.
type PersonSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone string             `bson:"phone,omitempty" json:"phone,omitempty"`
}

// PropertySummary is the embedded view of a referenced property.
type PropertySummary struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	Title   string             `bson:"title" json:"title"`
	Price   float64            `bson:"price" json:"price"`
	Address Address            `bson:"address" json:"address"`
}
