package utils

import (
	"errors"
	"net/http"
	"strconv"

	"parcel-relay/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes a JSON payload with the given status code.
func RespondWithJSON(c echo.Context, code int, payload interface{}) error {
	return c.JSON(code, payload)
}

// RespondWithError writes a JSON error payload with the given status code.
func RespondWithError(c echo.Context, code int, message string) error {
	return c.JSON(code, models.ErrorResponse{Message: message})
}

// HandleServiceError maps domain sentinel errors onto HTTP status codes.
// Anything unrecognized is treated as an internal error.
func HandleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrNotOwner):
		return RespondWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrParcelNotEditable),
		errors.Is(err, models.ErrParcelNotDeletable),
		errors.Is(err, models.ErrTripNotEditable),
		errors.Is(err, models.ErrTripSchedule),
		errors.Is(err, models.ErrMatchNotActionable),
		errors.Is(err, models.ErrParcelAlreadyMatched),
		errors.Is(err, models.ErrDeliveryNotConfirmable):
		return RespondWithError(c, http.StatusConflict, err.Error())
	default:
		return RespondWithError(c, http.StatusInternalServerError, "An internal error occurred")
	}
}

// GetPageLimit extracts pagination parameters with sane bounds.
func GetPageLimit(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// ExtractActorID returns the caller's identity as set by the actor middleware.
func ExtractActorID(c echo.Context) (string, error) {
	actorID, ok := c.Get("actorID").(string)
	if !ok || actorID == "" {
		return "", RespondWithError(c, http.StatusUnauthorized, "Missing actor identity")
	}
	return actorID, nil
}
