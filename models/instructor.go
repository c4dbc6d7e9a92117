package models

import "time"

// Schedule kinds. Each instructor document owns one schedule array per
// kind; the kind selects which array a SlotKey addresses.
const (
	ScheduleKindLesson  = "lesson"
	ScheduleKindTest    = "test"
	ScheduleKindGeneral = "general"
)

// ScheduleFieldFor maps a schedule kind onto the instructor document
// field holding that schedule's days. Returns "" for unknown kinds.
func ScheduleFieldFor(kind string) string {
	switch kind {
	case ScheduleKindLesson:
		return "schedule"
	case ScheduleKindTest:
		return "scheduleDrivingTest"
	case ScheduleKindGeneral:
		return "scheduleGeneral"
	default:
		return ""
	}
}

// Instructor is the root document for slot booking. The three schedule
// arrays are ordered by date; days within them hold the bookable slots.
type Instructor struct {
	ID                  string    `bson:"id" json:"id"`
	Name                string    `bson:"name" json:"name"`
	Email               string    `bson:"email,omitempty" json:"email,omitempty"`
	PhotoURL            string    `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	Active              bool      `bson:"active" json:"active"`
	Schedule            []Day     `bson:"schedule,omitempty" json:"schedule,omitempty"`
	ScheduleDrivingTest []Day     `bson:"scheduleDrivingTest,omitempty" json:"scheduleDrivingTest,omitempty"`
	ScheduleGeneral     []Day     `bson:"scheduleGeneral,omitempty" json:"scheduleGeneral,omitempty"`
	CreatedAt           time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ScheduleFor returns the schedule days for the given kind.
func (i *Instructor) ScheduleFor(kind string) []Day {
	switch kind {
	case ScheduleKindLesson:
		return i.Schedule
	case ScheduleKindTest:
		return i.ScheduleDrivingTest
	case ScheduleKindGeneral:
		return i.ScheduleGeneral
	default:
		return nil
	}
}
