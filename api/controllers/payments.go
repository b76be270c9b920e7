package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obafemi/chopwell-backend/api/responses"
	"github.com/obafemi/chopwell-backend/api/validators"
	paymentsvc "github.com/obafemi/chopwell-backend/internal/payments"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
)

type createSessionRequest struct {
	CustomerID    *uuid.UUID           `json:"customer_id"`
	CustomerName  string               `json:"customer_name" validate:"required"`
	CustomerEmail string               `json:"customer_email" validate:"required,email"`
	Carts         []createOrderRequest `json:"carts" validate:"required,min=1,dive"`
}

// CreatePaymentSession reserves a virtual account and parks the cart snapshot
// until a transfer lands.
func CreatePaymentSession(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := paymentsvc.CreateSessionInput{
			CustomerID:    payload.CustomerID,
			CustomerName:  payload.CustomerName,
			CustomerEmail: payload.CustomerEmail,
		}
		for _, cart := range payload.Carts {
			cartInput := cart.toInput()
			cartInput.CustomerID = payload.CustomerID
			input.Carts = append(input.Carts, cartInput)
		}
		dto, err := svc.CreateSession(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// VerifyPayment polls the provider and, on a qualifying transaction,
// materializes the session's orders exactly once.
func VerifyPayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := chi.URLParam(r, "accountReference")
		if reference == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "account reference required"))
			return
		}
		result, err := svc.VerifyPayment(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
