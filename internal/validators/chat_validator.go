package validators

type CreateChatRequest struct {
	ParticipantID string `json:"participant_id" validate:"required,max=128"`
	RideID        string `json:"ride_id" validate:"required,object_id"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type EmailRequest struct {
	To      []string `json:"to" validate:"required,min=1,max=50,dive,required,email"`
	Subject string   `json:"subject" validate:"required,max=998"`
	HTML    string   `json:"html" validate:"required"`
}
