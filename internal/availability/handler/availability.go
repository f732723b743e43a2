package handler

import (
	"net/http"
	"time"

	"innkeep/internal/availability/service"
	apperrors "innkeep/pkg/errors"
	httputil "innkeep/pkg/http"
	"innkeep/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

// GetAvailableRooms lists bookable rooms, optionally for a stay window.
// check_in and check_out must be given together.
func (h *AvailabilityHandler) GetAvailableRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "GetAvailableRooms", err)
		return
	}

	property, err := httputil.ExtractProperty(r)
	if err != nil {
		h.writeError(w, "GetAvailableRooms", err)
		return
	}
	property = actor.ScopeProperty(property)

	query := r.URL.Query()
	checkInStr := query.Get("check_in")
	checkOutStr := query.Get("check_out")

	if (checkInStr == "") != (checkOutStr == "") {
		h.writeError(w, "GetAvailableRooms", apperrors.InvalidInput("check_in and check_out must be provided together"))
		return
	}

	var checkIn, checkOut *time.Time
	if checkInStr != "" {
		in, err := parseDate(checkInStr)
		if err != nil {
			h.writeError(w, "GetAvailableRooms", apperrors.InvalidInput("invalid check_in format, must be RFC3339 or YYYY-MM-DD"))
			return
		}
		out, err := parseDate(checkOutStr)
		if err != nil {
			h.writeError(w, "GetAvailableRooms", apperrors.InvalidInput("invalid check_out format, must be RFC3339 or YYYY-MM-DD"))
			return
		}
		checkIn, checkOut = &in, &out
	}

	rooms, err := h.service.AvailableRooms(r.Context(), property, checkIn, checkOut)
	if err != nil {
		h.writeError(w, "GetAvailableRooms", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailableRooms", "operation", "WriteSuccess", "error", err)
	}
}

// SynchronizeRoom forces a status recompute for one room. Used by the
// dashboard after manual data fixes.
func (h *AvailabilityHandler) SynchronizeRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "SynchronizeRoom", err)
		return
	}

	property, err := httputil.ExtractProperty(r)
	if err != nil {
		h.writeError(w, "SynchronizeRoom", err)
		return
	}
	property = actor.ScopeProperty(property)
	if property == "" {
		h.writeError(w, "SynchronizeRoom", apperrors.InvalidInput("property is required"))
		return
	}

	roomNumber := r.URL.Query().Get("room_number")
	if roomNumber == "" {
		h.writeError(w, "SynchronizeRoom", apperrors.InvalidInput("room_number is required"))
		return
	}

	if err := h.service.SynchronizeRoomStatus(r.Context(), roomNumber, property); err != nil {
		h.writeError(w, "SynchronizeRoom", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/rooms/available", h.GetAvailableRooms)
	router.POST("/api/v1/rooms/synchronize", h.SynchronizeRoom)
}
