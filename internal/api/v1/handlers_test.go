package apiv1

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camstm/voucherhub/internal/pkg/omada"
)

// statusFor runs apiError against a throwaway fiber app and returns the
// response status the mapping produced.
func statusFor(t *testing.T, err error) int {
	t.Helper()
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apiError(c, err)
	})

	resp, tErr := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, tErr)
	return resp.StatusCode
}

func TestApiErrorMapping(t *testing.T) {
	assert.Equal(t, fiber.StatusNotFound, statusFor(t, gorm.ErrRecordNotFound))
	assert.Equal(t, fiber.StatusConflict, statusFor(t, omada.ErrNotConfigured))
	assert.Equal(t, fiber.StatusBadGateway, statusFor(t, &omada.ApiError{Code: omada.CodeSiteNotFound}))
	assert.Equal(t, fiber.StatusBadGateway, statusFor(t, &omada.AuthError{Reason: "bad secret"}))
	assert.Equal(t, fiber.StatusBadGateway, statusFor(t, &omada.TransportError{Op: "GET sites", Err: errors.New("timeout")}))
	assert.Equal(t, fiber.StatusInternalServerError, statusFor(t, errors.New("unexpected")))
}

func TestParseDateQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/report", func(c *fiber.Ctx) error {
		start, err := parseDateQuery(c, "start", false)
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		end, err := parseDateQuery(c, "end", true)
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		if start == nil && end == nil {
			return c.SendString("unbounded")
		}
		if start != nil && end != nil && end.Sub(*start).Hours() < 24 {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString("bounded")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/report", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The end bound is pushed to the end of its day, so a single-day range
	// spans nearly 48 hours.
	resp, err = app.Test(httptest.NewRequest("GET", "/report?start=2026-08-01&end=2026-08-02", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/report?start=01-08-2026", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
