package models

import "errors"

// Domain specific errors shared across handlers, services and repositories.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")
	ErrSetupDone       = errors.New("setup already completed")
)

// StatusMessage is the shape every non-fatal failure is converted into before
// it reaches a client: a short human readable message plus a severity type.
type StatusMessage struct {
	Message string `json:"message"`
	Type    string `json:"type"` // "success", "error", "warning"
}

func SuccessMessage(msg string) StatusMessage {
	return StatusMessage{Message: msg, Type: "success"}
}

func ErrorMessage(msg string) StatusMessage {
	return StatusMessage{Message: msg, Type: "error"}
}
