package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoke(t *testing.T, fn func(c echo.Context) error) (int, Response) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, fn(c))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestEnvelopeOK(t *testing.T) {
	env := NewEnvelope(false)
	status, resp := invoke(t, func(c echo.Context) error {
		return env.OK(c, echo.Map{"x": 1})
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "success", resp.Message)
	assert.NotNil(t, resp.Data)

	// timestamp is an ISO8601 string, not epoch millis.
	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)
}

func TestEnvelopeHidesDetailsOutsideDebug(t *testing.T) {
	env := NewEnvelope(false)
	status, resp := invoke(t, func(c echo.Context) error {
		return env.Internal(c, "boom", errors.New("secret dsn"))
	})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "boom", resp.Message)
	assert.Empty(t, resp.Details)
}

func TestEnvelopeShowsDetailsInDebug(t *testing.T) {
	env := NewEnvelope(true)
	_, resp := invoke(t, func(c echo.Context) error {
		return env.Internal(c, "boom", errors.New("root cause"))
	})
	assert.Equal(t, "root cause", resp.Details)
}

func TestEnvelopeStatusFamilies(t *testing.T) {
	env := NewEnvelope(false)

	status, resp := invoke(t, func(c echo.Context) error {
		return env.BadRequest(c, "bad input", nil)
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, status, resp.Code)

	status, resp = invoke(t, func(c echo.Context) error {
		return env.Conflict(c, "already running")
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, status, resp.Code)

	status, resp = invoke(t, func(c echo.Context) error {
		return env.NotFound(c, "missing")
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, status, resp.Code)
}
