package handler

import (
	"encoding/json"
	"net/http"

	"innkeep/internal/food/service"
	apperrors "innkeep/pkg/errors"
	httputil "innkeep/pkg/http"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type FoodHandler struct {
	service service.FoodService
	log     *logger.Logger
}

func NewFoodHandler(service service.FoodService, log *logger.Logger) *FoodHandler {
	return &FoodHandler{
		service: service,
		log:     log,
	}
}

// --- Items ---

func (h *FoodHandler) CreateItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "CreateItem", err)
		return
	}

	var item model.FoodItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateItem", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.CreateItem(r.Context(), actor, &item); err != nil {
		h.writeError(w, "CreateItem", err)
		return
	}

	if err := httputil.WriteCreated(w, item); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateItem", "operation", "WriteCreated", "error", err)
	}
}

func (h *FoodHandler) GetItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "GetItem", err)
		return
	}

	item, err := h.service.GetItem(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetItem", err)
		return
	}

	if err := httputil.WriteSuccess(w, item); err != nil {
		h.log.Error("failed to write success response", "handler", "GetItem", "operation", "WriteSuccess", "error", err)
	}
}

func (h *FoodHandler) GetAllItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "GetAllItems", err)
		return
	}

	property, err := httputil.ExtractProperty(r)
	if err != nil {
		h.writeError(w, "GetAllItems", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAllItems", err)
		return
	}

	category := r.URL.Query().Get("category")

	items, total, err := h.service.GetAllItems(r.Context(), actor, property, category, limit, offset)
	if err != nil {
		h.writeError(w, "GetAllItems", err)
		return
	}

	if err := httputil.WritePaginated(w, items, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAllItems", "operation", "WritePaginated", "error", err)
	}
}

func (h *FoodHandler) UpdateItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "UpdateItem", err)
		return
	}

	var updates model.FoodItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpdateItem", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	item, err := h.service.UpdateItem(r.Context(), actor, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "UpdateItem", err)
		return
	}

	if err := httputil.WriteSuccess(w, item); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateItem", "operation", "WriteSuccess", "error", err)
	}
}

func (h *FoodHandler) DeleteItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "DeleteItem", err)
		return
	}

	if err := h.service.DeleteItem(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteItem", err)
		return
	}

	httputil.WriteNoContent(w)
}

// --- Orders ---

func (h *FoodHandler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "CreateOrder", err)
		return
	}

	var order model.FoodOrder
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateOrder", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.CreateOrder(r.Context(), actor, &order); err != nil {
		h.writeError(w, "CreateOrder", err)
		return
	}

	if err := httputil.WriteCreated(w, order); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateOrder", "operation", "WriteCreated", "error", err)
	}
}

func (h *FoodHandler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "GetOrder", err)
		return
	}

	order, err := h.service.GetOrder(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetOrder", err)
		return
	}

	if err := httputil.WriteSuccess(w, order); err != nil {
		h.log.Error("failed to write success response", "handler", "GetOrder", "operation", "WriteSuccess", "error", err)
	}
}

func (h *FoodHandler) GetAllOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "GetAllOrders", err)
		return
	}

	property, err := httputil.ExtractProperty(r)
	if err != nil {
		h.writeError(w, "GetAllOrders", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAllOrders", err)
		return
	}

	bookingID := r.URL.Query().Get("booking_id")

	orders, total, err := h.service.GetAllOrders(r.Context(), actor, property, bookingID, limit, offset)
	if err != nil {
		h.writeError(w, "GetAllOrders", err)
		return
	}

	if err := httputil.WritePaginated(w, orders, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAllOrders", "operation", "WritePaginated", "error", err)
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *FoodHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "UpdateOrderStatus", err)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpdateOrderStatus", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	if req.Status == "" {
		h.writeError(w, "UpdateOrderStatus", apperrors.InvalidInput("status is required"))
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), actor, ps.ByName("id"), req.Status)
	if err != nil {
		h.writeError(w, "UpdateOrderStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, order); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateOrderStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *FoodHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *FoodHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/food/items", h.CreateItem)
	router.GET("/api/v1/food/items", h.GetAllItems)
	router.GET("/api/v1/food/items/id/:id", h.GetItem)
	router.PATCH("/api/v1/food/items/id/:id", h.UpdateItem)
	router.DELETE("/api/v1/food/items/id/:id", h.DeleteItem)

	router.POST("/api/v1/food/orders", h.CreateOrder)
	router.GET("/api/v1/food/orders", h.GetAllOrders)
	router.GET("/api/v1/food/orders/id/:id", h.GetOrder)
	router.PATCH("/api/v1/food/orders/id/:id/status", h.UpdateOrderStatus)
}
