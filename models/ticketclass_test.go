package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestStudentEntryDecodesLegacyStringRoster(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"id":       "class-1",
		"title":    "Theory Session",
		"cupos":    10,
		"students": bson.A{"stud-1", "stud-2"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var class TicketClass
	if err := bson.Unmarshal(raw, &class); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(class.Students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(class.Students))
	}
	if class.Students[0].StudentID != "stud-1" || class.Students[1].StudentID != "stud-2" {
		t.Fatalf("legacy ids not decoded: %+v", class.Students)
	}
	if class.Students[0].ProductID != "" || class.Students[0].EnrolledAt != nil {
		t.Fatalf("legacy entry should carry only the id: %+v", class.Students[0])
	}
}

func TestStudentEntryDecodesDocumentRoster(t *testing.T) {
	enrolled := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(bson.M{
		"id":    "class-1",
		"cupos": 10,
		"students": bson.A{
			bson.M{
				"studentId":  "stud-1",
				"productId":  "theory-pack",
				"orderId":    "ord-7",
				"enrolledAt": enrolled,
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var class TicketClass
	if err := bson.Unmarshal(raw, &class); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(class.Students) != 1 {
		t.Fatalf("expected 1 student, got %d", len(class.Students))
	}
	st := class.Students[0]
	if st.StudentID != "stud-1" || st.ProductID != "theory-pack" || st.OrderID != "ord-7" {
		t.Fatalf("document entry not decoded: %+v", st)
	}
	if st.EnrolledAt == nil || !st.EnrolledAt.Equal(enrolled) {
		t.Fatalf("enrolledAt not decoded: %v", st.EnrolledAt)
	}
}

func TestStudentEntryDecodesMixedRoster(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"id":    "class-1",
		"cupos": 10,
		"students": bson.A{
			"stud-legacy",
			bson.M{"studentId": "stud-new", "productId": "pack"},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var class TicketClass
	if err := bson.Unmarshal(raw, &class); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if class.Students[0].StudentID != "stud-legacy" {
		t.Fatalf("legacy entry: %+v", class.Students[0])
	}
	if class.Students[1].StudentID != "stud-new" || class.Students[1].ProductID != "pack" {
		t.Fatalf("document entry: %+v", class.Students[1])
	}
}

func TestStudentEntryRejectsOtherTypes(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"id":       "class-1",
		"students": bson.A{int32(7)},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var class TicketClass
	if err := bson.Unmarshal(raw, &class); err == nil {
		t.Fatal("expected decode error for numeric roster entry")
	}
}
