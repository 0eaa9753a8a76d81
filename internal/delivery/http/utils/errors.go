package utils

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Коды ошибок, которые отдаются клиенту
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeStorage    = "STORAGE_ERROR"
	CodeDatabase   = "DATABASE_ERROR"
	CodeNetwork    = "NETWORK_ERROR"
	CodeUnknown    = "UNKNOWN_ERROR"
)

type ErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// Error отдаёт ошибку в едином формате ответа
func Error(c echo.Context, status int, code string, message string, details ...string) error {
	return c.JSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now().UTC(),
		Path:      c.Request().URL.Path,
	})
}
