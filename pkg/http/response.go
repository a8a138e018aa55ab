package http

import (
	apperrors "afribook/pkg/errors"
	"encoding/json"
	"net/http"
)

// MessageResponse is the error and acknowledgement shape of the bookings
// API: clients read `message` first.
type MessageResponse struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError answers with the status carried by an AppError, or 500 for
// anything else.
func WriteError(w http.ResponseWriter, err error) error {
	statusCode := http.StatusInternalServerError
	resp := MessageResponse{
		Message: "Internal server error",
		Code:    apperrors.CodeInternal,
	}

	if appErr, ok := err.(*apperrors.AppError); ok {
		if appErr.HTTPStatus != 0 {
			statusCode = appErr.HTTPStatus
		}
		resp = MessageResponse{
			Message: appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		}
	}

	return WriteJSON(w, statusCode, resp)
}

func WriteMessage(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, MessageResponse{Message: message})
}
