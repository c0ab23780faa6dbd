package proxy

type ErrorResponse struct {
	Message string `json:"message"`
}
