package admin

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Response is the uniform API envelope. Code mirrors the HTTP status so
// clients parsing only the body agree with clients reading transport status.
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Details   string      `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Envelope writes responses and controls whether internal error details leak
// into the body.
type Envelope struct {
	debug bool
}

// NewEnvelope creates a new Envelope. debug exposes error details in
// responses and belongs only in non-production environments.
func NewEnvelope(debug bool) *Envelope {
	return &Envelope{debug: debug}
}

// OK writes a 200 envelope.
func (e *Envelope) OK(c echo.Context, data interface{}) error {
	return e.respond(c, http.StatusOK, "success", data, nil)
}

// Created writes a 201 envelope.
func (e *Envelope) Created(c echo.Context, data interface{}) error {
	return e.respond(c, http.StatusCreated, "created", data, nil)
}

// BadRequest writes a 400 envelope with an operator-readable message.
func (e *Envelope) BadRequest(c echo.Context, message string, err error) error {
	return e.respond(c, http.StatusBadRequest, message, nil, err)
}

// NotFound writes a 404 envelope.
func (e *Envelope) NotFound(c echo.Context, message string) error {
	return e.respond(c, http.StatusNotFound, message, nil, nil)
}

// Conflict writes a 409 envelope for state-machine violations.
func (e *Envelope) Conflict(c echo.Context, message string) error {
	return e.respond(c, http.StatusConflict, message, nil, nil)
}

// Internal writes a 500 envelope. The raw error reaches the body only in
// debug environments.
func (e *Envelope) Internal(c echo.Context, message string, err error) error {
	return e.respond(c, http.StatusInternalServerError, message, nil, err)
}

func (e *Envelope) respond(c echo.Context, status int, message string, data interface{}, err error) error {
	resp := Response{
		Code:      status,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err != nil && e.debug {
		resp.Details = err.Error()
	}
	return c.JSON(status, resp)
}

// ListData is the payload shape of paginated list endpoints.
type ListData struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}
