package ticketclassRepo

import (
	"context"
	"fmt"
	"time"

	"driveschool/database"
	"driveschool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTicketClassRepo implements TicketClassRepository using MongoDB.
type MongoTicketClassRepo struct {
	coll *mongo.Collection
}

// NewMongoTicketClassRepo creates a new instance of TicketClassRepository using MongoDB.
func NewMongoTicketClassRepo() *MongoTicketClassRepo {
	coll := database.DB().Collection("ticketclasses")
	repo := &MongoTicketClassRepo{coll: coll}
	if err := repo.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("ticketclass indexes: %v", err))
	}
	return repo
}

func (r *MongoTicketClassRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	idIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	dateIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: 1}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{idIdx, dateIdx}); err != nil {
		return fmt.Errorf("failed to create ticketclass indexes: %w", err)
	}
	return nil
}

func (r *MongoTicketClassRepo) GetClassByID(ctx context.Context, classID string) (*models.TicketClass, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var class models.TicketClass
	if err := r.coll.FindOne(ctx, bson.M{"id": classID}).Decode(&class); err != nil {
		return nil, fmt.Errorf("failed to fetch class with id %s: %w", classID, err)
	}
	return &class, nil
}

func (r *MongoTicketClassRepo) CreateClass(ctx context.Context, class *models.TicketClass) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	class.CreatedAt = time.Now()
	class.UpdatedAt = class.CreatedAt
	if class.Students == nil {
		class.Students = []models.StudentEntry{}
	}
	if _, err := r.coll.InsertOne(ctx, class); err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

func (r *MongoTicketClassRepo) ListClasses(ctx context.Context) ([]models.TicketClass, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve classes: %w", err)
	}
	defer cursor.Close(ctx)
	var classes []models.TicketClass
	for cursor.Next(ctx) {
		var tc models.TicketClass
		if err := cursor.Decode(&tc); err != nil {
			return nil, fmt.Errorf("failed to decode class: %w", err)
		}
		classes = append(classes, tc)
	}
	return classes, nil
}

// rosterContains matches the student in either roster shape: a legacy
// plain id string or a current sub-document.
func rosterContains(studentID string) bson.A {
	return bson.A{
		bson.M{"students": studentID},
		bson.M{"students.studentId": studentID},
	}
}

// EnrollStudent appends the student iff absent from the roster and below
// capacity. The whole guard lives in the filter, making concurrent
// enrollments linearizable at the store.
func (r *MongoTicketClassRepo) EnrollStudent(ctx context.Context, classID string, entry models.StudentEntry) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":    classID,
		"$nor":  rosterContains(entry.StudentID),
		"$expr": bson.M{"$lt": bson.A{bson.M{"$size": "$students"}, "$cupos"}},
	}
	update := bson.M{
		"$push": bson.M{"students": entry},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to enroll student in class %s: %w", classID, err)
	}
	return res.MatchedCount > 0, nil
}

// AddEnrollmentRequest appends a pending request iff no pending request
// exists for the student and the roster still has spots.
func (r *MongoTicketClassRepo) AddEnrollmentRequest(ctx context.Context, classID string, req models.StudentRequest) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id": classID,
		"studentRequests": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"studentId": req.StudentID,
			"status":    models.RequestStatusPending,
		}}},
		"$expr": bson.M{"$lt": bson.A{bson.M{"$size": "$students"}, "$cupos"}},
	}
	update := bson.M{
		"$push": bson.M{"studentRequests": req},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to add enrollment request for class %s: %w", classID, err)
	}
	return res.MatchedCount > 0, nil
}

// RemoveStudent pulls the student from the roster. Two pulls cover the
// legacy and current element shapes.
func (r *MongoTicketClassRepo) RemoveStudent(ctx context.Context, classID, studentID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// No $set here: ModifiedCount must reflect the pull alone so an
	// absent student reads as not-enrolled.
	pulls := []bson.M{
		{"$pull": bson.M{"students": studentID}},
		{"$pull": bson.M{"students": bson.M{"studentId": studentID}}},
	}
	var modified int64
	for _, update := range pulls {
		res, err := r.coll.UpdateOne(ctx, bson.M{"id": classID}, update)
		if err != nil {
			return false, fmt.Errorf("failed to remove student from class %s: %w", classID, err)
		}
		if res.MatchedCount == 0 {
			return false, fmt.Errorf("class with id %s not found", classID)
		}
		modified += res.ModifiedCount
	}
	if modified > 0 {
		_, _ = r.coll.UpdateOne(ctx, bson.M{"id": classID}, bson.M{"$set": bson.M{"updatedAt": time.Now()}})
	}
	return modified > 0, nil
}

// RemovePendingRequest pulls the student's pending request.
func (r *MongoTicketClassRepo) RemovePendingRequest(ctx context.Context, classID, studentID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": classID}
	update := bson.M{
		"$pull": bson.M{"studentRequests": bson.M{
			"studentId": studentID,
			"status":    models.RequestStatusPending,
		}},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to remove request from class %s: %w", classID, err)
	}
	if res.MatchedCount == 0 {
		return false, fmt.Errorf("class with id %s not found", classID)
	}
	return res.ModifiedCount > 0, nil
}
