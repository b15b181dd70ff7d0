// internal/domain/models/agent.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Testimonial is a client review attached to an agent.
type Testimonial struct {
	ClientName string    `bson:"client_name" json:"client_name"`
	Comment    string    `bson:"comment" json:"comment"`
	Rating     int       `bson:"rating" json:"rating"`
	Date       time.Time `bson:"date" json:"date"`
}

// Agent is a real estate agent. Testimonials are left out of list
// responses and only returned by single fetches.
type Agent struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	NameCI          string             `bson:"name_ci" json:"-"`
	Email           string             `bson:"email" json:"email"`
	Phone           string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Bio             string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Agency          string             `bson:"agency,omitempty" json:"agency,omitempty"`
	LicenseNumber   string             `bson:"license_number,omitempty" json:"license_number,omitempty"`
	Specialties     []string           `bson:"specialties,omitempty" json:"specialties,omitempty"`
	Languages       []string           `bson:"languages,omitempty" json:"languages,omitempty"`
	YearsExperience int                `bson:"years_experience" json:"years_experience"`
	Rating          float64            `bson:"rating" json:"rating"`
	Photo           string             `bson:"photo,omitempty" json:"photo,omitempty"`
	IsActive        bool               `bson:"is_active" json:"is_active"`
	Testimonials    []Testimonial      `bson:"testimonials,omitempty" json:"testimonials,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
