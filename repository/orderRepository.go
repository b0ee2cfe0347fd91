package repository

import (
	"context"

	"go-food-ordering/helpers"
	"go-food-ordering/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatusGuard narrows which order document a status write may touch.
// Zero-valued fields do not constrain the match.
type StatusGuard struct {
	RestaurantID primitive.ObjectID
	UserID       primitive.ObjectID
	From         []models.OrderStatus
}

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(coll *mongo.Collection) *OrderRepository {
	return &OrderRepository{coll: coll}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if order.StatusHistory == nil {
		order.StatusHistory = []models.StatusChange{}
	}
	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return helpers.Conflict("payment already used for another order")
		}
		return helpers.Internal("failed to create order", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, notFoundOr(err, "order")
	}
	return &order, nil
}

// UpdateStatus applies change.To, stamps updatedAt and appends the history
// entry in one document write. Concurrent writers race; the last one wins.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, guard StatusGuard, change models.StatusChange) (*models.Order, error) {
	filter := bson.D{{Key: "_id", Value: id}}
	if !guard.RestaurantID.IsZero() {
		filter = append(filter, bson.E{Key: "restaurantId", Value: guard.RestaurantID})
	}
	if !guard.UserID.IsZero() {
		filter = append(filter, bson.E{Key: "userId", Value: guard.UserID})
	}
	if len(guard.From) > 0 {
		filter = append(filter, bson.E{Key: "status", Value: bson.D{{Key: "$in", Value: guard.From}}})
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "status", Value: change.To},
			{Key: "updatedAt", Value: change.At},
		}},
		{Key: "$push", Value: bson.D{{Key: "statusHistory", Value: change}}},
	}

	var order models.Order
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&order); err != nil {
		return nil, notFoundOr(err, "order")
	}
	return &order, nil
}

func (r *OrderRepository) list(ctx context.Context, filter bson.D, page helpers.Page) ([]models.Order, int64, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, helpers.Internal("failed to count orders", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, helpers.Internal("failed to list orders", err)
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, helpers.Internal("failed to decode orders", err)
	}
	return orders, total, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, page helpers.Page) ([]models.Order, int64, error) {
	return r.list(ctx, bson.D{{Key: "userId", Value: userID}}, page)
}

func (r *OrderRepository) ListByRestaurant(ctx context.Context, restaurantID primitive.ObjectID, status models.OrderStatus, page helpers.Page) ([]models.Order, int64, error) {
	filter := bson.D{{Key: "restaurantId", Value: restaurantID}}
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}
	return r.list(ctx, filter, page)
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, helpers.Internal("failed to aggregate orders", err)
	}
	var rows []struct {
		Status models.OrderStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, helpers.Internal("failed to decode order counts", err)
	}
	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
