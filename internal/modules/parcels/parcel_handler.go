package parcels

import (
	"net/http"

	"parcel-relay/internal/models"
	"parcel-relay/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for parcels.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new parcel handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	var req models.CreateParcelRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	parcel, matchesFound, err := h.svc.Create(c.Request().Context(), actorID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, map[string]interface{}{
		"parcel":        parcel,
		"matches_found": matchesFound,
	})
}

func (h *Handler) Get(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	parcel, err := h.svc.Get(c.Request().Context(), c.Param("parcelId"), actorID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, parcel)
}

func (h *Handler) ListMine(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	page, limit := utils.GetPageLimit(c)
	parcels, total, err := h.svc.ListMine(c.Request().Context(), actorID, page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve parcels")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"parcels": parcels, "total": total})
}

func (h *Handler) Update(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	var req models.UpdateParcelRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	parcel, err := h.svc.Update(c.Request().Context(), c.Param("parcelId"), actorID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, parcel)
}

func (h *Handler) Delete(c echo.Context) error {
	actorID, err := utils.ExtractActorID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), c.Param("parcelId"), actorID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
