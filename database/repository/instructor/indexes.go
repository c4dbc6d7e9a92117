package instructorRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for frequently used fields in queries.
func (r *MongoInstructorRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	idIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	activeIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "active", Value: 1}},
	}
	// Day lookups hit one schedule array entry by date.
	lessonDateIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "schedule.date", Value: 1}},
	}
	testDateIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "scheduleDrivingTest.date", Value: 1}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{idIdx, activeIdx, lessonDateIdx, testDateIdx}); err != nil {
		return fmt.Errorf("failed to create instructor indexes: %w", err)
	}
	return nil
}
