package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Enrollment request statuses.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// StudentEntry is one roster member of a ticket class. Legacy documents
// store the roster as plain id strings; newer ones store sub-documents
// with enrollment details. Both shapes decode into this type so nothing
// downstream branches on document age.
type StudentEntry struct {
	StudentID  string     `bson:"studentId" json:"studentId"`
	ProductID  string     `bson:"productId,omitempty" json:"productId,omitempty"`
	OrderID    string     `bson:"orderId,omitempty" json:"orderId,omitempty"`
	EnrolledAt *time.Time `bson:"enrolledAt,omitempty" json:"enrolledAt,omitempty"`
}

// UnmarshalBSONValue accepts either a bare string id (legacy) or an
// embedded document (current).
func (e *StudentEntry) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeString:
		e.StudentID = raw.StringValue()
		return nil
	case bson.TypeEmbeddedDocument:
		var doc struct {
			StudentID  string     `bson:"studentId"`
			ProductID  string     `bson:"productId"`
			OrderID    string     `bson:"orderId"`
			EnrolledAt *time.Time `bson:"enrolledAt"`
		}
		if err := raw.Unmarshal(&doc); err != nil {
			return err
		}
		e.StudentID = doc.StudentID
		e.ProductID = doc.ProductID
		e.OrderID = doc.OrderID
		e.EnrolledAt = doc.EnrolledAt
		return nil
	default:
		return fmt.Errorf("cannot decode %v into StudentEntry", t)
	}
}

// StudentRequest is a pending enrollment request for classes that need
// manual approval before a roster spot is granted.
type StudentRequest struct {
	StudentID   string    `bson:"studentId" json:"studentId"`
	Status      string    `bson:"status" json:"status"` // pending | accepted | rejected
	RequestedAt time.Time `bson:"requestedAt" json:"requestedAt"`
}

// TicketClass is a group class session with fixed capacity.
type TicketClass struct {
	ID              string           `bson:"id" json:"id"`
	Title           string           `bson:"title" json:"title"`
	ClassType       string           `bson:"classType,omitempty" json:"classType,omitempty"`
	Date            string           `bson:"date" json:"date"`   // "YYYY-MM-DD"
	Start           string           `bson:"start" json:"start"` // "HH:MM"
	End             string           `bson:"end" json:"end"`     // "HH:MM"
	Cupos           int              `bson:"cupos" json:"cupos"` // capacity
	RequireApproval bool             `bson:"requireApproval" json:"requireApproval"`
	Students        []StudentEntry   `bson:"students" json:"students"`
	StudentRequests []StudentRequest `bson:"studentRequests,omitempty" json:"studentRequests,omitempty"`
	CreatedAt       time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// AvailableSpots returns remaining roster capacity.
func (tc *TicketClass) AvailableSpots() int {
	return tc.Cupos - len(tc.Students)
}
