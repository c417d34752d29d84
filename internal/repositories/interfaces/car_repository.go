package interfaces

import (
	"context"

	"campusrides/internal/models"
	"campusrides/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CarRepository interface {
	Create(ctx context.Context, car *models.Car) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Car, error)
	GetByOwnerID(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Car, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	AddImage(ctx context.Context, id primitive.ObjectID, key string) error
}
