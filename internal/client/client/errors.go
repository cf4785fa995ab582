package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// ErrEmptyLogin is returned when the login endpoint answered 2xx without a
// user/token payload.
var ErrEmptyLogin = errors.New("login response carried no session")

// mapStatus converts a non-2xx response into a sentinel-wrapped error that
// keeps the server's message.
func mapStatus(code int, body []byte) error {
	msg := utils.StatusMessage(code)

	var env models.Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Error != "":
			msg = env.Error
		case env.Message != "":
			msg = env.Message
		}
	}

	switch {
	case code == fiber.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrUnauthorized, msg)
	case code == fiber.StatusForbidden:
		return fmt.Errorf("%w: %s", common.ErrForbidden, msg)
	case code == fiber.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, msg)
	case code == fiber.StatusBadRequest, code == fiber.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", common.ErrValidation, msg)
	case code >= fiber.StatusInternalServerError:
		return fmt.Errorf("%w: %d %s", common.ErrUnavailable, code, msg)
	default:
		return fmt.Errorf("unexpected status %d: %s", code, msg)
	}
}
