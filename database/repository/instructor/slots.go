package instructorRepo

import (
	"context"
	"fmt"
	"time"

	"driveschool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetDaySlots fetches the slots for one instructor, schedule kind and date
// using an aggregation pipeline. A missing day yields an empty slice.
func (r *MongoInstructorRepo) GetDaySlots(ctx context.Context, instructorID, kind, date string) ([]models.Slot, error) {
	field := models.ScheduleFieldFor(kind)
	if field == "" {
		return nil, fmt.Errorf("unknown schedule kind %q", kind)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"id": instructorID}}},
		{{Key: "$project", Value: bson.M{
			"days": bson.M{
				"$filter": bson.M{
					"input": "$" + field,
					"as":    "d",
					"cond":  bson.M{"$eq": []interface{}{"$$d.date", date}},
				},
			},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating instructor with id %s: %w", instructorID, err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Days []models.Day `bson:"days"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("error decoding aggregation results: %w", err)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("instructor with id %s not found", instructorID)
	}
	if len(results[0].Days) == 0 {
		return []models.Slot{}, nil
	}
	slots := results[0].Days[0].Slots
	for i := range slots {
		slots[i].Status = models.NormalizeSlotStatus(slots[i].Status)
	}
	return slots, nil
}

// SetupDaySlots replaces the slot list for one day. If the schedule has no
// entry for the date, a new day is appended.
func (r *MongoInstructorRepo) SetupDaySlots(ctx context.Context, instructorID, kind, date string, slots []models.Slot) error {
	field := models.ScheduleFieldFor(kind)
	if field == "" {
		return fmt.Errorf("unknown schedule kind %q", kind)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	replaceFilter, appendFilter := setupDayFilters(instructorID, field, date)
	replaceUpdate := bson.M{
		"$set": bson.M{
			field + ".$.slots": slots,
			"updatedAt":        now,
		},
	}

	// Replace the existing day first.
	res, err := r.coll.UpdateOne(ctx, replaceFilter, replaceUpdate)
	if err != nil {
		return fmt.Errorf("failed to set slots for instructor %s on %s: %w", instructorID, date, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// No day entry yet: append one. The filter only matches while the date
	// is still absent, so two concurrent setups of a new day cannot push
	// duplicate entries.
	appendUpdate := bson.M{
		"$push": bson.M{field: models.Day{Date: date, Slots: slots}},
		"$set":  bson.M{"updatedAt": now},
	}
	res, err = r.coll.UpdateOne(ctx, appendFilter, appendUpdate)
	if err != nil {
		return fmt.Errorf("failed to append day for instructor %s on %s: %w", instructorID, date, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Lost the append race: the day exists now, replace it.
	res, err = r.coll.UpdateOne(ctx, replaceFilter, replaceUpdate)
	if err != nil {
		return fmt.Errorf("failed to set slots for instructor %s on %s: %w", instructorID, date, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("instructor with id %s not found", instructorID)
	}
	return nil
}

// setupDayFilters builds the filters for the two SetupDaySlots paths: one
// addressing an existing day entry, one matching only while no entry for
// the date exists yet.
func setupDayFilters(instructorID, field, date string) (replace, add bson.M) {
	replace = bson.M{
		"id":  instructorID,
		field: bson.M{"$elemMatch": bson.M{"date": date}},
	}
	add = bson.M{
		"id":  instructorID,
		field: bson.M{"$not": bson.M{"$elemMatch": bson.M{"date": date}}},
	}
	return replace, add
}
