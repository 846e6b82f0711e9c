package trips

import (
	"net/http"

	"parcel-relay/internal/models"
	"parcel-relay/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for trips.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new trip handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	var req models.CreateTripRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	trip, matchesFound, err := h.svc.Create(c.Request().Context(), actorID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, map[string]interface{}{
		"trip":          trip,
		"matches_found": matchesFound,
	})
}

func (h *Handler) Get(c echo.Context) error {
	trip, err := h.svc.Get(c.Request().Context(), c.Param("tripId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, trip)
}

func (h *Handler) ListMine(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	page, limit := utils.GetPageLimit(c)
	trips, total, err := h.svc.ListMine(c.Request().Context(), actorID, page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve trips")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"trips": trips, "total": total})
}

func (h *Handler) Update(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	var req models.UpdateTripRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	trip, err := h.svc.Update(c.Request().Context(), c.Param("tripId"), actorID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, trip)
}

func (h *Handler) Cancel(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Cancel(c.Request().Context(), c.Param("tripId"), actorID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
