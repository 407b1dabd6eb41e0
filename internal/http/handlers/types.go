package handlers

const (
	StatusSuccess = "Success"
	StatusError   = "Error"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Data        any    `json:"data,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
