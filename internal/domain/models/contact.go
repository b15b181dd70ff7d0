// internal/domain/models/contact.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact statuses.
const (
	ContactNew        = "new"
	ContactInProgress = "in-progress"
	ContactResolved   = "resolved"
	ContactClosed     = "closed"
)

// InquiryTypes lists every accepted inquiry_type value.
var InquiryTypes = []string{"general", "buying", "selling", "renting", "viewing"}

// ContactStatuses lists every accepted contact status.
var ContactStatuses = []string{ContactNew, ContactInProgress, ContactResolved, ContactClosed}

// Contact is an inbound enquiry, optionally about a property or addressed
// to an agent.
type Contact struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Email        string              `bson:"email" json:"email"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Subject      string              `bson:"subject,omitempty" json:"subject,omitempty"`
	Message      string              `bson:"message" json:"message"`
	InquiryType  string              `bson:"inquiry_type" json:"inquiry_type"`
	Status       string              `bson:"status" json:"status"`
	Property     *primitive.ObjectID `bson:"property,omitempty" json:"property,omitempty"`
	PropertyInfo *PropertySummary    `bson:"property_info,omitempty" json:"property_info,omitempty"`
	Agent        *primitive.ObjectID `bson:"agent,omitempty" json:"agent,omitempty"`
	AgentInfo    *PersonSummary      `bson:"agent_info,omitempty" json:"agent_info,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
