// Package respond implements the JSON response envelope shared by every
// API endpoint: { "success": bool, "message": string, "data": ... }.
package respond

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the uniform API response body.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes a success envelope with the given status code.
func OK(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Error writes a failure envelope with the given status code.
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message})
}

// ErrorWithData writes a failure envelope carrying diagnostic data, such as
// the live batch listing returned with an insufficient-quantity failure.
func ErrorWithData(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{Success: false, Message: message, Data: data})
}
