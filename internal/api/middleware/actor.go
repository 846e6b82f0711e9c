package middleware

import (
	"net/http"

	"parcel-relay/internal/models"

	"github.com/labstack/echo/v4"
)

// ActorHeader is the header the upstream auth collaborator populates after
// validating the caller's session. This service trusts its gateway for
// identity; it performs ownership checks, not authentication.
const ActorHeader = "X-Actor-ID"

// ActorRequired extracts the acting user's id from the gateway header and
// stores it in the request context for handlers to consume.
func ActorRequired() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actorID := c.Request().Header.Get(ActorHeader)
			if actorID == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Missing " + ActorHeader + " header"})
			}
			c.Set("actorID", actorID)
			return next(c)
		}
	}
}
