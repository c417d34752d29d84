package interfaces

import (
	"context"

	"campusrides/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Upsert creates the profile on first write and merges the given fields
	// afterwards.
	Upsert(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error)
	SetProfilePicture(ctx context.Context, id, key string) error
	// GetDevices reads push targets straight from the store; cached profiles
	// do not carry them.
	GetDevices(ctx context.Context, id string) ([]models.Device, error)
	AddDevice(ctx context.Context, id string, device models.Device) error
	RemoveDevice(ctx context.Context, id, token string) error
}
