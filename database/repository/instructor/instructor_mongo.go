package instructorRepo

import (
	"context"
	"fmt"
	"time"

	"driveschool/database"
	"driveschool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoInstructorRepo implements InstructorRepository using MongoDB.
type MongoInstructorRepo struct {
	coll *mongo.Collection
}

// NewMongoInstructorRepo creates a new instance of InstructorRepository using MongoDB.
func NewMongoInstructorRepo() *MongoInstructorRepo {
	coll := database.DB().Collection("instructors")
	repo := &MongoInstructorRepo{coll: coll}
	if err := repo.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("instructor indexes: %v", err))
	}
	return repo
}

func (r *MongoInstructorRepo) GetInstructorByID(ctx context.Context, instructorID string) (*models.Instructor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var instructor models.Instructor
	filter := bson.M{"id": instructorID}
	if err := r.coll.FindOne(ctx, filter).Decode(&instructor); err != nil {
		return nil, fmt.Errorf("failed to fetch instructor with id %s: %w", instructorID, err)
	}
	return &instructor, nil
}

func (r *MongoInstructorRepo) CreateInstructor(ctx context.Context, instructor *models.Instructor) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	instructor.CreatedAt = time.Now()
	instructor.UpdatedAt = instructor.CreatedAt
	if _, err := r.coll.InsertOne(ctx, instructor); err != nil {
		return fmt.Errorf("failed to create instructor: %w", err)
	}
	return nil
}

func (r *MongoInstructorRepo) DeleteInstructor(ctx context.Context, instructorID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": instructorID})
	if err != nil {
		return fmt.Errorf("failed to delete instructor %s: %w", instructorID, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("instructor with id %s not found", instructorID)
	}
	return nil
}

func (r *MongoInstructorRepo) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve instructors: %w", err)
	}
	defer cursor.Close(ctx)
	var instructors []models.Instructor
	for cursor.Next(ctx) {
		var in models.Instructor
		if err := cursor.Decode(&in); err != nil {
			return nil, fmt.Errorf("failed to decode instructor: %w", err)
		}
		instructors = append(instructors, in)
	}
	return instructors, nil
}
