package repository

import (
	"context"
	"regexp"
	"time"

	"go-food-ordering/helpers"
	"go-food-ordering/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RestaurantFilter struct {
	Status  models.RestaurantStatus
	City    string
	Cuisine string
	OpenNow bool
}

func (f RestaurantFilter) toBSON() bson.D {
	filter := bson.D{}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.City != "" {
		filter = append(filter, bson.E{Key: "address.city", Value: caseInsensitive(f.City)})
	}
	if f.Cuisine != "" {
		filter = append(filter, bson.E{Key: "cuisine", Value: caseInsensitive(f.Cuisine)})
	}
	if f.OpenNow {
		filter = append(filter, bson.E{Key: "isOpen", Value: true})
	}
	return filter
}

func caseInsensitive(v string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(v) + "$", Options: "i"}
}

// RestaurantProfile holds the owner-editable fields; nil means unchanged.
type RestaurantProfile struct {
	Name         *string
	Description  *string
	Cuisine      *string
	Phone        *string
	ImageURL     *string
	Address      *models.Address
	OpeningHours *models.OpeningHours
}

type RestaurantRepository struct {
	coll *mongo.Collection
}

func NewRestaurantRepository(coll *mongo.Collection) *RestaurantRepository {
	return &RestaurantRepository{coll: coll}
}

func (r *RestaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	if restaurant.ID.IsZero() {
		restaurant.ID = primitive.NewObjectID()
	}
	if restaurant.Menu == nil {
		restaurant.Menu = []models.MenuItem{}
	}
	if _, err := r.coll.InsertOne(ctx, restaurant); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return helpers.Conflict("owner already has a restaurant")
		}
		return helpers.Internal("failed to create restaurant", err)
	}
	return nil
}

func (r *RestaurantRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return helpers.Internal("failed to delete restaurant", err)
	}
	return nil
}

func (r *RestaurantRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&restaurant); err != nil {
		return nil, notFoundOr(err, "restaurant")
	}
	return &restaurant, nil
}

func (r *RestaurantRepository) List(ctx context.Context, f RestaurantFilter, page helpers.Page) ([]models.Restaurant, int64, error) {
	filter := f.toBSON()
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, helpers.Internal("failed to count restaurants", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "averageRating", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, helpers.Internal("failed to list restaurants", err)
	}
	var restaurants []models.Restaurant
	if err := cursor.All(ctx, &restaurants); err != nil {
		return nil, 0, helpers.Internal("failed to decode restaurants", err)
	}
	return restaurants, total, nil
}

func (r *RestaurantRepository) update(ctx context.Context, filter bson.D, set bson.D, what string) (*models.Restaurant, error) {
	set = append(set, bson.E{Key: "updatedAt", Value: time.Now().UTC()})
	var restaurant models.Restaurant
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: set}}, returnAfter()).Decode(&restaurant)
	if err != nil {
		return nil, notFoundOr(err, what)
	}
	return &restaurant, nil
}

func (r *RestaurantRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, p RestaurantProfile) (*models.Restaurant, error) {
	var set bson.D
	if p.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *p.Name})
	}
	if p.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *p.Description})
	}
	if p.Cuisine != nil {
		set = append(set, bson.E{Key: "cuisine", Value: *p.Cuisine})
	}
	if p.Phone != nil {
		set = append(set, bson.E{Key: "phone", Value: *p.Phone})
	}
	if p.ImageURL != nil {
		set = append(set, bson.E{Key: "imageUrl", Value: *p.ImageURL})
	}
	if p.Address != nil {
		set = append(set, bson.E{Key: "address", Value: *p.Address})
	}
	if p.OpeningHours != nil {
		set = append(set, bson.E{Key: "openingHours", Value: *p.OpeningHours})
	}
	return r.update(ctx, bson.D{{Key: "_id", Value: id}}, set, "restaurant")
}

func (r *RestaurantRepository) SetOpen(ctx context.Context, id primitive.ObjectID, open bool) (*models.Restaurant, error) {
	return r.update(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "isOpen", Value: open}}, "restaurant")
}

// SetStatus moves the restaurant to status when its current status is one of from.
func (r *RestaurantRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.RestaurantStatus, from ...models.RestaurantStatus) (*models.Restaurant, error) {
	filter := bson.D{{Key: "_id", Value: id}}
	if len(from) > 0 {
		filter = append(filter, bson.E{Key: "status", Value: bson.D{{Key: "$in", Value: from}}})
	}
	return r.update(ctx, filter, bson.D{{Key: "status", Value: status}}, "restaurant")
}

func (r *RestaurantRepository) AddMenuItems(ctx context.Context, id primitive.ObjectID, items ...models.MenuItem) (*models.Restaurant, error) {
	for i := range items {
		if items[i].ID.IsZero() {
			items[i].ID = primitive.NewObjectID()
		}
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "menu", Value: bson.D{{Key: "$each", Value: items}}}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	var restaurant models.Restaurant
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter()).Decode(&restaurant)
	if err != nil {
		return nil, notFoundOr(err, "restaurant")
	}
	return &restaurant, nil
}

func (r *RestaurantRepository) UpdateMenuItem(ctx context.Context, id primitive.ObjectID, item models.MenuItem) (*models.Restaurant, error) {
	filter := bson.D{{Key: "_id", Value: id}, {Key: "menu._id", Value: item.ID}}
	set := bson.D{
		{Key: "menu.$.name", Value: item.Name},
		{Key: "menu.$.description", Value: item.Description},
		{Key: "menu.$.price", Value: item.Price},
		{Key: "menu.$.category", Value: item.Category},
		{Key: "menu.$.isAvailable", Value: item.IsAvailable},
		{Key: "menu.$.imageUrl", Value: item.ImageURL},
	}
	return r.update(ctx, filter, set, "menu item")
}

func (r *RestaurantRepository) RemoveMenuItem(ctx context.Context, id, itemID primitive.ObjectID) (*models.Restaurant, error) {
	filter := bson.D{{Key: "_id", Value: id}, {Key: "menu._id", Value: itemID}}
	update := bson.D{
		{Key: "$pull", Value: bson.D{{Key: "menu", Value: bson.D{{Key: "_id", Value: itemID}}}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	var restaurant models.Restaurant
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&restaurant); err != nil {
		return nil, notFoundOr(err, "menu item")
	}
	return &restaurant, nil
}

func (r *RestaurantRepository) CountByStatus(ctx context.Context) (map[models.RestaurantStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, helpers.Internal("failed to aggregate restaurants", err)
	}
	var rows []struct {
		Status models.RestaurantStatus `bson:"_id"`
		Count  int64                   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, helpers.Internal("failed to decode restaurant counts", err)
	}
	counts := make(map[models.RestaurantStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
