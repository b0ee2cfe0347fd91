package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RestaurantStatus string

const (
	RestaurantPending         RestaurantStatus = "pending"
	RestaurantPendingApproval RestaurantStatus = "pending_approval"
	RestaurantApproved        RestaurantStatus = "approved"
	RestaurantRejected        RestaurantStatus = "rejected"
)

func (s RestaurantStatus) Valid() bool {
	switch s {
	case RestaurantPending, RestaurantPendingApproval, RestaurantApproved, RestaurantRejected:
		return true
	}
	return false
}

// Every new restaurant starts with four virtual 4-star ratings so a single
// early review cannot swing the average to an extreme.
const (
	InitialRatingSum   = 16
	InitialRatingCount = 4
)

type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [lng, lat]
}

func NewGeoPoint(lng, lat float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

type Address struct {
	Street   string    `bson:"street" json:"street" validate:"required"`
	City     string    `bson:"city" json:"city" validate:"required"`
	State    string    `bson:"state" json:"state"`
	Zip      string    `bson:"zip" json:"zip"`
	Location *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
}

type OpeningHours struct {
	Open  string `bson:"open" json:"open"`
	Close string `bson:"close" json:"close"`
}

type MenuItem struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Category    string             `bson:"category" json:"category"`
	IsAvailable bool               `bson:"isAvailable" json:"isAvailable"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
}

type Restaurant struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	OwnerID          primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Name             string             `bson:"name" json:"name"`
	Description      string             `bson:"description" json:"description"`
	Cuisine          string             `bson:"cuisine" json:"cuisine"`
	Phone            string             `bson:"phone" json:"phone"`
	ImageURL         string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Address          Address            `bson:"address" json:"address"`
	Menu             []MenuItem         `bson:"menu" json:"menu"`
	Status           RestaurantStatus   `bson:"status" json:"status"`
	IsOpen           bool               `bson:"isOpen" json:"isOpen"`
	OpeningHours     OpeningHours       `bson:"openingHours" json:"openingHours"`
	TotalRatingSum   float64            `bson:"totalRatingSum" json:"totalRatingSum"`
	TotalRatingCount int                `bson:"totalRatingCount" json:"totalRatingCount"`
	AverageRating    float64            `bson:"averageRating" json:"averageRating"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MenuItemByID returns the embedded item with the given id, or nil.
func (r *Restaurant) MenuItemByID(id primitive.ObjectID) *MenuItem {
	for i := range r.Menu {
		if r.Menu[i].ID == id {
			return &r.Menu[i]
		}
	}
	return nil
}

// AcceptsOrders reports whether customers can check out against the restaurant.
func (r *Restaurant) AcceptsOrders() bool {
	return r.Status == RestaurantApproved && r.IsOpen
}
