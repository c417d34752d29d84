package validators

type CarRequest struct {
	Name         string `json:"name" validate:"required,max=80"`
	Model        string `json:"model" validate:"omitempty,max=80"`
	LicensePlate string `json:"license_plate" validate:"required,max=20"`
	MaxCapacity  int    `json:"max_capacity" validate:"required,min=1,max=20"`
}

type UpdateCarRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=80"`
	Model        *string `json:"model" validate:"omitempty,max=80"`
	LicensePlate *string `json:"license_plate" validate:"omitempty,min=1,max=20"`
	MaxCapacity  *int    `json:"max_capacity" validate:"omitempty,min=1,max=20"`
}

type CarImageRequest struct {
	Key string `json:"key" validate:"required,max=512,storage_key"`
}
