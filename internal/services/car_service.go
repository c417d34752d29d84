package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campusrides/internal/models"
	"campusrides/internal/repositories/interfaces"
	"campusrides/internal/utils"
	"campusrides/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CarRequest struct {
	Name         string
	Model        string
	LicensePlate string
	MaxCapacity  int
}

type UpdateCarRequest struct {
	Name         *string
	Model        *string
	LicensePlate *string
	MaxCapacity  *int
}

type CarService interface {
	CreateCar(ctx context.Context, ownerID string, req *CarRequest) (*models.Car, error)
	GetCar(ctx context.Context, carID primitive.ObjectID) (*models.Car, error)
	ListMyCars(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Car, int64, error)
	UpdateCar(ctx context.Context, carID primitive.ObjectID, ownerID string, req *UpdateCarRequest) (*models.Car, error)
	AddCarImage(ctx context.Context, carID primitive.ObjectID, ownerID, key string) (*models.Car, error)
}

type carService struct {
	cars        interfaces.CarRepository
	media       MediaService
	maxCapacity int
	logger      *logger.Logger
}

func NewCarService(cars interfaces.CarRepository, media MediaService, maxCapacity int, log *logger.Logger) CarService {
	if log == nil {
		log = logger.NewNop()
	}
	if maxCapacity <= 0 {
		maxCapacity = 20
	}
	return &carService{
		cars:        cars,
		media:       media,
		maxCapacity: maxCapacity,
		logger:      log.WithField("service", "car"),
	}
}

func (s *carService) validCapacity(capacity int) bool {
	return capacity >= 1 && capacity <= s.maxCapacity
}

func (s *carService) CreateCar(ctx context.Context, ownerID string, req *CarRequest) (*models.Car, error) {
	if !s.validCapacity(req.MaxCapacity) {
		return nil, ErrInvalidCarCapacity
	}

	car := &models.Car{
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(req.Name),
		Model:        strings.TrimSpace(req.Model),
		LicensePlate: strings.ToUpper(strings.TrimSpace(req.LicensePlate)),
		MaxCapacity:  req.MaxCapacity,
		Images:       []string{},
	}
	if err := s.cars.Create(ctx, car); err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}

	s.logger.LogUserAction(ownerID, "car_created", map[string]interface{}{"car_id": car.ID.Hex()})
	return s.withImageURLs(ctx, car), nil
}

func (s *carService) GetCar(ctx context.Context, carID primitive.ObjectID) (*models.Car, error) {
	car, err := s.cars.GetByID(ctx, carID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	return s.withImageURLs(ctx, car), nil
}

func (s *carService) ListMyCars(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Car, int64, error) {
	cars, total, err := s.cars.GetByOwnerID(ctx, ownerID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cars: %w", err)
	}
	for _, car := range cars {
		s.withImageURLs(ctx, car)
	}
	return cars, total, nil
}

func (s *carService) UpdateCar(ctx context.Context, carID primitive.ObjectID, ownerID string, req *UpdateCarRequest) (*models.Car, error) {
	if _, err := s.ownedCar(ctx, carID, ownerID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Model != nil {
		updates["model"] = strings.TrimSpace(*req.Model)
	}
	if req.LicensePlate != nil {
		updates["license_plate"] = strings.ToUpper(strings.TrimSpace(*req.LicensePlate))
	}
	if req.MaxCapacity != nil {
		if !s.validCapacity(*req.MaxCapacity) {
			return nil, ErrInvalidCarCapacity
		}
		updates["max_capacity"] = *req.MaxCapacity
	}

	if len(updates) > 0 {
		if err := s.cars.Update(ctx, carID, updates); err != nil {
			return nil, fmt.Errorf("failed to update car: %w", err)
		}
	}
	return s.GetCar(ctx, carID)
}

func (s *carService) AddCarImage(ctx context.Context, carID primitive.ObjectID, ownerID, key string) (*models.Car, error) {
	if _, err := s.ownedCar(ctx, carID, ownerID); err != nil {
		return nil, err
	}
	if err := s.media.VerifyUpload(ctx, ownerID, MediaKindCar, key); err != nil {
		return nil, err
	}
	if err := s.cars.AddImage(ctx, carID, key); err != nil {
		return nil, fmt.Errorf("failed to add car image: %w", err)
	}
	return s.GetCar(ctx, carID)
}

func (s *carService) ownedCar(ctx context.Context, carID primitive.ObjectID, ownerID string) (*models.Car, error) {
	car, err := s.cars.GetByID(ctx, carID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	if car.OwnerID != ownerID {
		return nil, ErrNotCarOwner
	}
	return car, nil
}

func (s *carService) withImageURLs(ctx context.Context, car *models.Car) *models.Car {
	if s.media == nil {
		return car
	}
	car.ImageURLs = make([]string, 0, len(car.Images))
	for _, key := range car.Images {
		if url := s.media.ResolveURL(ctx, key); url != "" {
			car.ImageURLs = append(car.ImageURLs, url)
		}
	}
	return car
}
