package models

type ApiResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Success    bool        `json:"success"`
	Errors     []string    `json:"errors,omitempty"`
}

func SuccessResponse(statusCode int, data interface{}, message string) ApiResponse {
	return ApiResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	}
}

func ErrorResponse(statusCode int, message string, errors ...string) ApiResponse {
	return ApiResponse{
		StatusCode: statusCode,
		Message:    message,
		Success:    false,
		Errors:     errors,
	}
}
