package http

// APIResponse is the envelope for validation and unexpected errors.
type APIResponse struct {
	Status  int         `json:"status" example:"500"`
	Message string      `json:"message" example:"Internal Server Error"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the flat error payload read by the browser front end.
type ErrorBody struct {
	Error string `json:"error" example:"6501.T: no data found"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"ticker"`
	Message string                 `json:"message,omitempty" example:"ticker is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
