package instructorRepo

import (
	"context"
	"fmt"
	"time"

	"driveschool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// slotMatch builds the embedded-slot condition for a key and expected
// status. Used both in the document filter ($elemMatch) and, with the
// "s." prefix, in positional array filters. The guard living in the
// filter is what makes every mutation a compare-and-swap: MatchedCount
// is zero unless the slot is currently in the expected state.
func slotMatch(key models.SlotKey, expectedStatus, prefix string) bson.M {
	m := bson.M{
		prefix + "start":  key.Start,
		prefix + "end":    key.End,
		prefix + "status": expectedStatus,
	}
	if key.ClassType != "" {
		m[prefix+"classType"] = key.ClassType
	}
	return m
}

// guardedFilter builds the document filter matching the instructor and a
// day containing a slot in the expected state.
func guardedFilter(instructorID, field string, key models.SlotKey, slotCond bson.M) bson.M {
	return bson.M{
		"id": instructorID,
		field: bson.M{"$elemMatch": bson.M{
			"date":  key.Date,
			"slots": bson.M{"$elemMatch": slotCond},
		}},
	}
}

// slotPos returns the array-filter options addressing the guarded slot.
func slotPos(key models.SlotKey, slotCond bson.M) *options.UpdateOptions {
	arrayCond := bson.M{}
	for k, v := range slotCond {
		arrayCond["s."+k] = v
	}
	return options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: bson.A{
			bson.M{"d.date": key.Date},
			arrayCond,
		},
	})
}

// ReserveSlot transitions available -> pending in a single conditional
// update. Exactly one of any set of concurrent reservations can match the
// available-state guard; the rest observe MatchedCount zero.
func (r *MongoInstructorRepo) ReserveSlot(ctx context.Context, instructorID string, key models.SlotKey, studentID string, meta models.BookingMeta) (bool, error) {
	field := models.ScheduleFieldFor(key.ScheduleKind)
	if field == "" {
		return false, fmt.Errorf("unknown schedule kind %q", key.ScheduleKind)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Defense in depth: the slot must also carry no studentId.
	cond := slotMatch(key, models.SlotStatusAvailable, "")
	cond["studentId"] = bson.M{"$in": bson.A{nil, ""}}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			field + ".$[d].slots.$[s].status":          models.SlotStatusPending,
			field + ".$[d].slots.$[s].studentId":       studentID,
			field + ".$[d].slots.$[s].paid":            false,
			field + ".$[d].slots.$[s].selectedProduct": meta.SelectedProduct,
			field + ".$[d].slots.$[s].paymentMethod":   meta.PaymentMethod,
			field + ".$[d].slots.$[s].pickupLocation":  meta.PickupLocation,
			field + ".$[d].slots.$[s].dropoffLocation": meta.DropoffLocation,
			field + ".$[d].slots.$[s].requestedAt":     now,
			"updatedAt":                                now,
		},
	}

	res, err := r.coll.UpdateOne(ctx, guardedFilter(instructorID, field, key, cond), update, slotPos(key, cond))
	if err != nil {
		return false, fmt.Errorf("failed to reserve slot for instructor %s: %w", instructorID, err)
	}
	return res.MatchedCount > 0, nil
}

// scheduleFields lists every embedded schedule array a bulk payment update
// must cover.
var scheduleFields = []string{"schedule", "scheduleDrivingTest", "scheduleGeneral"}

// ConfirmPaymentSlots bulk-transitions every pending slot matching
// (studentID, productID) to scheduled, stamping payment metadata. Retries
// and duplicate webhooks match nothing and modify nothing.
func (r *MongoInstructorRepo) ConfirmPaymentSlots(ctx context.Context, studentID, productID, paymentID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pendingCond := bson.M{
		"studentId":       studentID,
		"selectedProduct": productID,
		"status":          models.SlotStatusPending,
	}

	now := time.Now()
	var docsModified int64
	for _, field := range scheduleFields {
		filter := bson.M{field: bson.M{"$elemMatch": bson.M{
			"slots": bson.M{"$elemMatch": pendingCond},
		}}}
		update := bson.M{
			"$set": bson.M{
				field + ".$[d].slots.$[s].status":      models.SlotStatusScheduled,
				field + ".$[d].slots.$[s].paid":        true,
				field + ".$[d].slots.$[s].paymentId":   paymentID,
				field + ".$[d].slots.$[s].confirmedAt": now,
				"updatedAt":                            now,
			},
		}
		opts := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: bson.A{
				bson.M{"d.slots": bson.M{"$elemMatch": pendingCond}},
				bson.M{
					"s.studentId":       studentID,
					"s.selectedProduct": productID,
					"s.status":          models.SlotStatusPending,
				},
			},
		})
		res, err := r.coll.UpdateMany(ctx, filter, update, opts)
		if err != nil {
			return 0, fmt.Errorf("failed to confirm payment slots (%s): %w", field, err)
		}
		docsModified += res.ModifiedCount
	}

	if docsModified == 0 {
		return 0, nil
	}
	// Exact slot count: everything stamped with this paymentId.
	return r.countSlotsWithPaymentID(ctx, studentID, paymentID)
}

func (r *MongoInstructorRepo) countSlotsWithPaymentID(ctx context.Context, studentID, paymentID string) (int64, error) {
	var total int64
	for _, field := range scheduleFields {
		pipeline := []bson.M{
			{"$match": bson.M{field + ".slots.paymentId": paymentID}},
			{"$unwind": "$" + field},
			{"$unwind": "$" + field + ".slots"},
			{"$match": bson.M{
				field + ".slots.studentId": studentID,
				field + ".slots.paymentId": paymentID,
			}},
			{"$count": "n"},
		}
		cursor, err := r.coll.Aggregate(ctx, pipeline)
		if err != nil {
			return 0, fmt.Errorf("failed to count confirmed slots (%s): %w", field, err)
		}
		var results []struct {
			N int64 `bson:"n"`
		}
		if err := cursor.All(ctx, &results); err != nil {
			return 0, fmt.Errorf("failed to decode confirmed slot count: %w", err)
		}
		if len(results) > 0 {
			total += results[0].N
		}
	}
	return total, nil
}

// FailPaymentSlots bulk-reverts every pending slot matching (studentID,
// productID) to available, clearing all booking metadata. Idempotent for
// the same reason as ConfirmPaymentSlots.
func (r *MongoInstructorRepo) FailPaymentSlots(ctx context.Context, studentID, productID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pendingCond := bson.M{
		"studentId":       studentID,
		"selectedProduct": productID,
		"status":          models.SlotStatusPending,
	}

	now := time.Now()
	var docsModified int64
	for _, field := range scheduleFields {
		filter := bson.M{field: bson.M{"$elemMatch": bson.M{
			"slots": bson.M{"$elemMatch": pendingCond},
		}}}
		opts := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: bson.A{
				bson.M{"d.slots": bson.M{"$elemMatch": pendingCond}},
				bson.M{
					"s.studentId":       studentID,
					"s.selectedProduct": productID,
					"s.status":          models.SlotStatusPending,
				},
			},
		})
		res, err := r.coll.UpdateMany(ctx, filter, clearSlotUpdate(field, now), opts)
		if err != nil {
			return 0, fmt.Errorf("failed to revert payment slots (%s): %w", field, err)
		}
		docsModified += res.ModifiedCount
	}
	return docsModified, nil
}

// clearSlotUpdate resets a slot to the available state, removing every
// booking metadata field in the same write.
func clearSlotUpdate(field string, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			field + ".$[d].slots.$[s].status": models.SlotStatusAvailable,
			field + ".$[d].slots.$[s].paid":   false,
			"updatedAt":                       now,
		},
		"$unset": bson.M{
			field + ".$[d].slots.$[s].studentId":       "",
			field + ".$[d].slots.$[s].selectedProduct": "",
			field + ".$[d].slots.$[s].paymentMethod":   "",
			field + ".$[d].slots.$[s].paymentId":       "",
			field + ".$[d].slots.$[s].pickupLocation":  "",
			field + ".$[d].slots.$[s].dropoffLocation": "",
			field + ".$[d].slots.$[s].requestedAt":     "",
			field + ".$[d].slots.$[s].confirmedAt":     "",
		},
	}
}

// RevertSlot transitions one slot back to available, guarded by the
// expected current status and owning student. A false return means the
// guard did not match the slot's current state.
func (r *MongoInstructorRepo) RevertSlot(ctx context.Context, instructorID string, key models.SlotKey, studentID, expectedStatus string) (bool, error) {
	field := models.ScheduleFieldFor(key.ScheduleKind)
	if field == "" {
		return false, fmt.Errorf("unknown schedule kind %q", key.ScheduleKind)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cond := slotMatch(key, expectedStatus, "")
	cond["studentId"] = studentID

	res, err := r.coll.UpdateOne(ctx,
		guardedFilter(instructorID, field, key, cond),
		clearSlotUpdate(field, time.Now()),
		slotPos(key, cond),
	)
	if err != nil {
		return false, fmt.Errorf("failed to revert slot for instructor %s: %w", instructorID, err)
	}
	return res.MatchedCount > 0, nil
}

// BlockSlot marks an available slot cancelled (instructor blackout).
func (r *MongoInstructorRepo) BlockSlot(ctx context.Context, instructorID string, key models.SlotKey) (bool, error) {
	field := models.ScheduleFieldFor(key.ScheduleKind)
	if field == "" {
		return false, fmt.Errorf("unknown schedule kind %q", key.ScheduleKind)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cond := slotMatch(key, models.SlotStatusAvailable, "")
	update := bson.M{
		"$set": bson.M{
			field + ".$[d].slots.$[s].status": models.SlotStatusCancelled,
			"updatedAt":                       time.Now(),
		},
	}

	res, err := r.coll.UpdateOne(ctx, guardedFilter(instructorID, field, key, cond), update, slotPos(key, cond))
	if err != nil {
		return false, fmt.Errorf("failed to block slot for instructor %s: %w", instructorID, err)
	}
	return res.MatchedCount > 0, nil
}

// FindStalePending returns pending holds requested before the cutoff.
func (r *MongoInstructorRepo) FindStalePending(ctx context.Context, cutoff time.Time) ([]StaleHold, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kinds := map[string]string{
		"schedule":            models.ScheduleKindLesson,
		"scheduleDrivingTest": models.ScheduleKindTest,
		"scheduleGeneral":     models.ScheduleKindGeneral,
	}

	var holds []StaleHold
	for field, kind := range kinds {
		pipeline := []bson.M{
			{"$match": bson.M{field + ".slots.status": models.SlotStatusPending}},
			{"$unwind": "$" + field},
			{"$unwind": "$" + field + ".slots"},
			{"$match": bson.M{
				field + ".slots.status":      models.SlotStatusPending,
				field + ".slots.requestedAt": bson.M{"$lt": cutoff},
			}},
			{"$project": bson.M{
				"id":        1,
				"date":      "$" + field + ".date",
				"start":     "$" + field + ".slots.start",
				"end":       "$" + field + ".slots.end",
				"classType": "$" + field + ".slots.classType",
				"studentId": "$" + field + ".slots.studentId",
			}},
		}
		cursor, err := r.coll.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to find stale holds (%s): %w", field, err)
		}
		var rows []struct {
			ID        string `bson:"id"`
			Date      string `bson:"date"`
			Start     string `bson:"start"`
			End       string `bson:"end"`
			ClassType string `bson:"classType"`
			StudentID string `bson:"studentId"`
		}
		if err := cursor.All(ctx, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode stale holds: %w", err)
		}
		for _, row := range rows {
			holds = append(holds, StaleHold{
				InstructorID: row.ID,
				StudentID:    row.StudentID,
				Key: models.SlotKey{
					ScheduleKind: kind,
					Date:         row.Date,
					Start:        row.Start,
					End:          row.End,
					ClassType:    row.ClassType,
				},
			})
		}
	}
	return holds, nil
}
