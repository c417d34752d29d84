package validators

type BookSeatsRequest struct {
	Seats int `json:"seats" validate:"required,min=1,max=20"`
}
