package matching

import (
	"net/http"

	"parcel-relay/internal/models"
	"parcel-relay/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for matches.
type Handler struct {
	svc MatchServiceInterface
}

// NewHandler creates a new match handler.
func NewHandler(svc MatchServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// ListForTrip returns the courier's candidate inbox for one trip.
func (h *Handler) ListForTrip(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	matches, err := h.svc.ListForTrip(c.Request().Context(), c.Param("tripId"), actorID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"matches": matches})
}

// ListForParcel returns every match for one of the sender's parcels.
func (h *Handler) ListForParcel(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	matches, err := h.svc.ListForParcel(c.Request().Context(), c.Param("parcelId"), actorID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"matches": matches})
}

func (h *Handler) Accept(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	var req models.AcceptMatchRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	match, err := h.svc.Accept(c.Request().Context(), c.Param("matchId"), actorID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, match)
}

func (h *Handler) Reject(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Reject(c.Request().Context(), c.Param("matchId"), actorID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ConfirmDelivery(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	match, err := h.svc.ConfirmDelivery(c.Request().Context(), c.Param("matchId"), actorID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, match)
}
