package validators

type ProfileRequest struct {
	FullName   *string `json:"full_name" validate:"omitempty,max=100"`
	Bio        *string `json:"bio" validate:"omitempty,max=500"`
	University *string `json:"university" validate:"omitempty,max=150"`
	Location   *string `json:"location" validate:"omitempty,max=150"`
}

type ProfilePictureRequest struct {
	Key string `json:"key" validate:"required,max=512,storage_key"`
}

type DeviceRequest struct {
	Token    string `json:"token" validate:"required,max=4096"`
	Platform string `json:"platform" validate:"required,platform"`
}

type RemoveDeviceRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}

type UploadURLRequest struct {
	Kind        string `json:"kind" validate:"required,media_kind"`
	ContentType string `json:"content_type" validate:"required,image_type"`
}
