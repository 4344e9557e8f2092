package models

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// ApiError is the controller-level failure taxonomy. Every failure a
// handler renders goes through one of these.
type ApiError struct {
	Status  int
	Message string
	Details []string
}

func (e *ApiError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...string) *ApiError {
	return &ApiError{Status: http.StatusBadRequest, Message: message, Details: details}
}

func NewUnauthorizedError(message string) *ApiError {
	return &ApiError{Status: http.StatusUnauthorized, Message: message}
}

func NewNotFoundError(message string) *ApiError {
	return &ApiError{Status: http.StatusNotFound, Message: message}
}

func NewConflictError(message string) *ApiError {
	return &ApiError{Status: http.StatusConflict, Message: message}
}

func NewUploadError(message string, details ...string) *ApiError {
	return &ApiError{Status: http.StatusInternalServerError, Message: message, Details: details}
}

func NewInternalError(message string) *ApiError {
	return &ApiError{Status: http.StatusInternalServerError, Message: message}
}

// AsApiError normalizes any error into an ApiError so handlers can
// render a uniform JSON body.
func AsApiError(err error) *ApiError {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, ErrExpiredToken):
		return NewUnauthorizedError(ErrExpiredToken.Error())
	case errors.Is(err, ErrInvalidToken):
		return NewUnauthorizedError(ErrInvalidToken.Error())
	}
	return NewInternalError(err.Error())
}

func IsNotFound(err error) bool {
	var apiErr *ApiError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
