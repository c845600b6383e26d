package domain

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: msg,
		Status:  e.Status,
	}
}

var (
	ErrInvalidRequest = &AppError{
		Code:    "INVALID_REQUEST",
		Message: "Invalid request",
		Status:  400,
	}

	ErrInternalServerError = &AppError{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "Internal server error",
		Status:  500,
	}

	ErrNotFound = &AppError{
		Code:    "NOT_FOUND",
		Message: "Not found",
		Status:  404,
	}

	// validation errors, surfaced to the sending connection only
	ErrEmptyMessage = &AppError{
		Code:    "EMPTY_MESSAGE",
		Message: "Message must not be empty",
		Status:  400,
	}

	ErrMessageTooLong = &AppError{
		Code:    "MESSAGE_TOO_LONG",
		Message: "Message exceeds 500 characters",
		Status:  400,
	}

	// protocol errors, never close the connection
	ErrBadFrame = &AppError{
		Code:    "BAD_FRAME",
		Message: "Invalid message format",
		Status:  400,
	}

	ErrUnknownEventType = &AppError{
		Code:    "UNKNOWN_EVENT_TYPE",
		Message: "Unknown event type",
		Status:  400,
	}
)
