package api

import (
	"net/http"

	"parcel-relay/internal/api/middleware"
	"parcel-relay/internal/modules/matching"
	"parcel-relay/internal/modules/parcels"
	"parcel-relay/internal/modules/trips"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	parcelHandler *parcels.Handler,
	tripHandler *trips.Handler,
	matchHandler *matching.Handler,
) {
	actorRequired := middleware.ActorRequired()

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to Parcel Relay!"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Parcel (sender) Routes ---
	parcelGroup := e.Group("/parcels", actorRequired)
	{
		parcelGroup.POST("", parcelHandler.Create)
		parcelGroup.GET("", parcelHandler.ListMine)
		parcelGroup.GET("/:parcelId", parcelHandler.Get)
		parcelGroup.PUT("/:parcelId", parcelHandler.Update)
		parcelGroup.DELETE("/:parcelId", parcelHandler.Delete)
		parcelGroup.GET("/:parcelId/matches", matchHandler.ListForParcel)
	}

	// --- Trip (courier) Routes ---
	tripGroup := e.Group("/trips", actorRequired)
	{
		tripGroup.POST("", tripHandler.Create)
		tripGroup.GET("", tripHandler.ListMine)
		tripGroup.GET("/:tripId", tripHandler.Get)
		tripGroup.PUT("/:tripId", tripHandler.Update)
		tripGroup.PUT("/:tripId/cancel", tripHandler.Cancel)
		tripGroup.GET("/:tripId/matches", matchHandler.ListForTrip)
	}

	// --- Match Routes ---
	matchGroup := e.Group("/matches", actorRequired)
	{
		matchGroup.POST("/:matchId/accept", matchHandler.Accept)
		matchGroup.POST("/:matchId/reject", matchHandler.Reject)
		matchGroup.POST("/:matchId/confirm-delivery", matchHandler.ConfirmDelivery)
	}
}
