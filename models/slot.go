package models

import "time"

// Slot statuses. Stored as plain strings in the instructor document.
const (
	SlotStatusAvailable = "available"
	SlotStatusPending   = "pending"
	SlotStatusScheduled = "scheduled"
	SlotStatusCancelled = "cancelled"
)

// NormalizeSlotStatus maps legacy status aliases onto the canonical set.
// Older instructor documents carry "free" and "booked".
func NormalizeSlotStatus(s string) string {
	switch s {
	case "free", "":
		return SlotStatusAvailable
	case "booked":
		return SlotStatusScheduled
	default:
		return s
	}
}

// Slot is the atomic bookable unit inside an instructor's schedule.
// Start and End are wall-clock strings (e.g. "14:30"); Date lives on the
// enclosing Day. Booking metadata is only present while Status is
// pending or scheduled and is cleared as a whole when the slot reverts.
type Slot struct {
	Start           string     `bson:"start" json:"start"`                                         // "HH:MM"
	End             string     `bson:"end" json:"end"`                                             // "HH:MM"
	Status          string     `bson:"status" json:"status"`                                       // available | pending | scheduled | cancelled
	ClassType       string     `bson:"classType,omitempty" json:"classType,omitempty"`             // e.g. "B.E.S.T.", "road test"
	StudentID       string     `bson:"studentId,omitempty" json:"studentId,omitempty"`             // set only when Status != available
	Paid            bool       `bson:"paid" json:"paid"`                                           // true once payment confirmed
	SelectedProduct string     `bson:"selectedProduct,omitempty" json:"selectedProduct,omitempty"` // product/package purchased with this slot
	PaymentMethod   string     `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	PaymentID       string     `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	PickupLocation  string     `bson:"pickupLocation,omitempty" json:"pickupLocation,omitempty"`
	DropoffLocation string     `bson:"dropoffLocation,omitempty" json:"dropoffLocation,omitempty"`
	RequestedAt     *time.Time `bson:"requestedAt,omitempty" json:"requestedAt,omitempty"`
	ConfirmedAt     *time.Time `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
}

// Day groups an instructor's slots under one calendar date.
type Day struct {
	Date  string `bson:"date" json:"date"` // "YYYY-MM-DD", naive local date
	Slots []Slot `bson:"slots" json:"slots"`
}

// SlotKey is the canonical identifier for a slot inside an instructor
// document. Every lookup and conditional update goes through this key;
// there is no secondary by-id lookup path.
type SlotKey struct {
	ScheduleKind string `json:"scheduleKind" binding:"required"` // lesson | test | general
	Date         string `json:"date" binding:"required"`         // "YYYY-MM-DD"
	Start        string `json:"start" binding:"required"`        // "HH:MM"
	End          string `json:"end" binding:"required"`          // "HH:MM"
	ClassType    string `json:"classType,omitempty"`             // optional discriminator within a day
}

// BookingMeta carries the student-supplied details applied to a slot on
// reservation.
type BookingMeta struct {
	SelectedProduct string `json:"selectedProduct"`
	PaymentMethod   string `json:"paymentMethod,omitempty"`
	PickupLocation  string `json:"pickupLocation,omitempty"`
	DropoffLocation string `json:"dropoffLocation,omitempty"`
}
