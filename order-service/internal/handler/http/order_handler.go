package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/access"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/order"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/phone"
)

type OrderHandler struct {
	service      order.Service
	validate     *validator.Validate
	mediaBaseURL string
}

func NewOrderHandler(service order.Service, mediaBaseURL string) *OrderHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := phone.RegisterValidation(validate); err != nil {
		log.Fatal().Err(err).Msg("Failed to register phone validation")
	}

	return &OrderHandler{
		service:      service,
		validate:     validate,
		mediaBaseURL: mediaBaseURL,
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Route("/orders", func(r chi.Router) {
		r.Post("/", h.handleCreateOrder)
		r.Get("/", h.handleListOrders)
		r.Get("/history", h.handleOrderHistory)
		r.Get("/{id}", h.handleGetOrder)
		r.Put("/{id}", h.handleUpdateOrder)
		r.Patch("/{id}", h.handleUpdateOrder)
		r.Delete("/{id}", h.handleDeleteOrder)
		r.Patch("/{id}/status", h.handleUpdateStatus)
		r.Get("/{id}/cancel", h.handleCancelOrder)
		r.Post("/{id}/cancel", h.handleCancelOrder)
	})
}

func (h *OrderHandler) presenter(r *http.Request) presenter {
	return presenter{lang: requestLanguage(r), mediaBaseURL: h.mediaBaseURL}
}

// decodeAndValidate reports false after writing the error response itself.
// Unknown fields are rejected only when strict is set.
func (h *OrderHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, strict bool) bool {
	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithValidationError(w, formatValidationErrors(validationErrors))
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		log.Warn().Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return 0, false
	}
	return id, true
}

func requireActor(w http.ResponseWriter, r *http.Request) (access.Actor, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided")
	}
	return actor, ok
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var requestPayload CreateOrderRequest
	if !h.decodeAndValidate(w, r, &requestPayload, true) {
		return
	}

	created, err := h.service.CreateOrder(r.Context(), actor, requestPayload.toInput())
	if err != nil {
		log.Error().Err(err).Msg("Failed to create order via service")
		respondWithServiceError(w, err, "Failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, h.presenter(r).order(created))
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), actor)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}

	p := h.presenter(r)
	responsePayload := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responsePayload = append(responsePayload, p.order(&orders[i]))
	}

	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *OrderHandler) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	entries, err := h.service.OrderHistory(r.Context(), actor)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get order history via service")
		respondWithServiceError(w, err, "Failed to get order history")
		return
	}

	respondWithJSON(w, http.StatusOK, h.presenter(r).history(entries))
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	found, err := h.service.GetOrder(r.Context(), actor, id)
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Msg("Failed to get order via service")
		respondWithServiceError(w, err, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, h.presenter(r).order(found))
}

func (h *OrderHandler) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	// Read-only fields echoed back from a GET (id, price, created) are ignored.
	var requestPayload UpdateOrderRequest
	if !h.decodeAndValidate(w, r, &requestPayload, false) {
		return
	}

	updated, err := h.service.UpdateOrder(r.Context(), actor, id, requestPayload.toInput())
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Msg("Failed to update order via service")
		respondWithServiceError(w, err, "Failed to update order")
		return
	}

	respondWithJSON(w, http.StatusOK, h.presenter(r).order(updated))
}

func (h *OrderHandler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), actor, id); err != nil {
		log.Error().Err(err).Int64("order_id", id).Msg("Failed to delete order via service")
		respondWithServiceError(w, err, "Failed to delete order")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Order has been deleted!"})
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateStatusRequest
	if !h.decodeAndValidate(w, r, &requestPayload, true) {
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), actor, id, order.Status(requestPayload.Status))
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Msg("Failed to update order status via service")
		respondWithServiceError(w, err, "Failed to update order status")
		return
	}

	respondWithJSON(w, http.StatusOK, StatusResponse{Status: string(updated.Status)})
}

func (h *OrderHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	cancelled, err := h.service.CancelOrder(r.Context(), actor, id)
	if err != nil {
		log.Warn().Err(err).Int64("order_id", id).Msg("Failed to cancel order via service")
		respondWithServiceError(w, err, "Failed to cancel order")
		return
	}

	respondWithJSON(w, http.StatusOK, CancelResponse{
		Success:    true,
		StatusCode: http.StatusOK,
		Message:    "Order status has been changed successfully",
		Order: OrderStatusResponse{
			ID:     cancelled.ID,
			Status: string(cancelled.Status),
		},
	})
}
