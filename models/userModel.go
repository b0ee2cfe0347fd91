package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

type User struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Email        string              `bson:"email" json:"email"`
	Phone        string              `bson:"phone" json:"phone"`
	PasswordHash string              `bson:"password" json:"-"`
	Role         Role                `bson:"role" json:"role"`
	RestaurantID *primitive.ObjectID `bson:"restaurantId,omitempty" json:"restaurantId,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Principal is the authenticated caller resolved from the session token.
type Principal struct {
	UserID       primitive.ObjectID
	Role         Role
	RestaurantID primitive.ObjectID
}

func (p Principal) HasRestaurant() bool {
	return !p.RestaurantID.IsZero()
}
