package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/access"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/order"
)

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Success    bool              `json:"success"`
	StatusCode int               `json:"status_code"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// respondWithError отправляет JSON ошибку
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{StatusCode: code, Message: message})
}

func respondWithValidationError(w http.ResponseWriter, fields map[string]string) {
	respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    "Validation failed",
		Errors:     fields,
	})
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"status_code":500,"message":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	var verr *order.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, catalog.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrNotOrderOwner), errors.Is(err, order.ErrOrderNotPending):
		return http.StatusBadRequest
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func clientMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, catalog.ErrProductNotFound):
		return "Product not found"
	case errors.Is(err, order.ErrNotOrderOwner):
		return "You do not own this order"
	case errors.Is(err, order.ErrOrderNotPending):
		return "You can't change your order status"
	case errors.Is(err, access.ErrForbidden):
		return "You do not have permission to perform this action"
	default:
		return fallback
	}
}

// respondWithServiceError converts a service error into the failure envelope.
// Internal errors are replaced by fallback.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *order.ValidationError
	if errors.As(err, &verr) {
		respondWithValidationError(w, verr.Fields)
		return
	}
	respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, fallback))
}

// formatValidationErrors keys messages by JSON path, e.g. "items[0].quantity".
func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		details[field] = validationMessage(fe)
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "phone":
		return "Your phone number is in the wrong format"
	case "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "latitude", "longitude":
		return fmt.Sprintf("Enter a valid %s.", fe.Tag())
	default:
		return fmt.Sprintf("Failed on the '%s' validation.", fe.Tag())
	}
}
