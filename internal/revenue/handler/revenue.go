package handler

import (
	"net/http"
	"time"

	"innkeep/internal/revenue/repository"
	"innkeep/internal/revenue/service"
	apperrors "innkeep/pkg/errors"
	httputil "innkeep/pkg/http"
	"innkeep/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type RevenueHandler struct {
	service service.RevenueService
	log     *logger.Logger
}

func NewRevenueHandler(service service.RevenueService, log *logger.Logger) *RevenueHandler {
	return &RevenueHandler{
		service: service,
		log:     log,
	}
}

func (h *RevenueHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	rev, err := h.service.GetByID(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, rev); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RevenueHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	property, err := httputil.ExtractProperty(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := repository.RevenueFilter{
		Property: property,
		Source:   query.Get("source"),
		Status:   query.Get("status"),
	}

	if filter.From, err = parseDate(query.Get("from")); err != nil {
		h.writeError(w, "GetAll", apperrors.InvalidInput("Invalid from date, use YYYY-MM-DD or RFC3339"))
		return
	}
	if filter.To, err = parseDate(query.Get("to")); err != nil {
		h.writeError(w, "GetAll", apperrors.InvalidInput("Invalid to date, use YYYY-MM-DD or RFC3339"))
		return
	}

	revenues, total, err := h.service.GetAll(r.Context(), actor, filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, revenues, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *RevenueHandler) Analytics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "Analytics", err)
		return
	}

	property, err := httputil.ExtractProperty(r)
	if err != nil {
		h.writeError(w, "Analytics", err)
		return
	}

	analytics, err := h.service.Analytics(r.Context(), actor, property)
	if err != nil {
		h.writeError(w, "Analytics", err)
		return
	}

	if err := httputil.WriteSuccess(w, analytics); err != nil {
		h.log.Error("failed to write success response", "handler", "Analytics", "operation", "WriteSuccess", "error", err)
	}
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *RevenueHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *RevenueHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/revenue", h.GetAll)
	router.GET("/api/v1/revenue/analytics", h.Analytics)
	router.GET("/api/v1/revenue/id/:id", h.GetByID)
}
