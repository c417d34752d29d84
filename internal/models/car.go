package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Car struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID      string             `json:"owner_id" bson:"owner_id"`
	Name         string             `json:"name" bson:"name"`
	Model        string             `json:"model" bson:"model"`
	LicensePlate string             `json:"license_plate" bson:"license_plate"`
	MaxCapacity  int                `json:"max_capacity" bson:"max_capacity"`
	Images       []string           `json:"images" bson:"images"`
	ImageURLs    []string           `json:"image_urls,omitempty" bson:"-"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}
