package repository

import (
	"errors"

	"go-food-ordering/helpers"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// notFoundOr maps ErrNoDocuments to a NotFound error; anything else is internal.
func notFoundOr(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return helpers.NotFound("%s not found", what)
	}
	return helpers.Internal("failed to load "+what, err)
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
