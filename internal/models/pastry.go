package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pastry is a catalog item. Stock is measured in kilograms, so it is a
// float rather than a unit count. Deletion is soft: removed pastries stay in
// the collection with IsDeleted set so historical orders keep resolving.
type Pastry struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	ImageURL    string             `json:"image_url" bson:"image_url"`
	Price       float64            `json:"price" bson:"price"`
	Stock       float64            `json:"stock" bson:"stock"`
	IsDeleted   bool               `json:"-" bson:"is_deleted"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

type PastryCreate struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Price       float64 `json:"price"`
	Stock       float64 `json:"stock"`
}

type PastryUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Stock       *float64 `json:"stock,omitempty"`
}
