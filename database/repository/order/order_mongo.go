package orderRepo

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

// MongoOrderRepo implements OrderRepository using MongoDB.
type MongoOrderRepo struct {
	coll *mongo.Collection
}

// NewMongoOrderRepo creates a new instance of OrderRepository using MongoDB.
func NewMongoOrderRepo() *MongoOrderRepo {
	coll := database.DB().Collection("orders")
	repo := &MongoOrderRepo{coll: coll}
	if err := repo.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("order indexes: %v", err))
	}
	return repo
}

func (r *MongoOrderRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	idIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	studentIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "createdAt", Value: -1}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{idIdx, studentIdx}); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

func (r *MongoOrderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	order.Status = models.OrderStatusPending
	order.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *MongoOrderRepo) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var order models.Order
	if err := r.coll.FindOne(ctx, bson.M{"id": orderID}).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to fetch order with id %s: %w", orderID, err)
	}
	return &order, nil
}

func (r *MongoOrderRepo) ListOrdersByStudent(ctx context.Context, studentID string) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"studentId": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders for student %s: %w", studentID, err)
	}
	defer cursor.Close(ctx)
	var orders []models.Order
	for cursor.Next(ctx) {
		var o models.Order
		if err := cursor.Decode(&o); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// CompleteOrder settles a pending order. The pending-state guard makes
// duplicate settlement webhooks a no-op.
func (r *MongoOrderRepo) CompleteOrder(ctx context.Context, orderID, paymentID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	now := time.Now()
	filter := bson.M{"id": orderID, "status": models.OrderStatusPending}
	update := bson.M{"$set": bson.M{
		"status":      models.OrderStatusCompleted,
		"paymentId":   paymentID,
		"completedAt": now,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to complete order %s: %w", orderID, err)
	}
	return res.MatchedCount > 0, nil
}

// FailOrder marks a pending order failed.
func (r *MongoOrderRepo) FailOrder(ctx context.Context, orderID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	filter := bson.M{"id": orderID, "status": models.OrderStatusPending}
	update := bson.M{"$set": bson.M{"status": models.OrderStatusFailed}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark order %s failed: %w", orderID, err)
	}
	return res.MatchedCount > 0, nil
}
