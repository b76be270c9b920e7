package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obafemi/chopwell-backend/api/responses"
	"github.com/obafemi/chopwell-backend/api/validators"
	productsvc "github.com/obafemi/chopwell-backend/internal/products"
	"github.com/obafemi/chopwell-backend/internal/stock"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
)

// ProductList serves the cached active menu.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dtos, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dtos)
	}
}

// ProductDetail serves one product by id.
func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// LowStockAlerts serves the cached at-or-below-threshold list.
func LowStockAlerts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dtos, err := svc.LowStockAlerts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dtos)
	}
}

type stockLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type bulkDeductRequest struct {
	Lines     []stockLineRequest `json:"lines" validate:"required,min=1,dive"`
	Note      string             `json:"note"`
	EnteredBy string             `json:"entered_by" validate:"required"`
}

// BulkDeductStock applies a best-effort stock-keeping correction.
func BulkDeductStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload bulkDeductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]stock.Line, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, stock.Line{ProductID: line.ProductID, Qty: line.Quantity})
		}
		ref := stock.Ref{
			Note:      validators.SanitizeString(payload.Note, 500),
			EnteredBy: validators.SanitizeString(payload.EnteredBy, 120),
		}
		results, err := svc.BulkDeduct(r.Context(), lines, ref)
		if err != nil && results == nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"results": results})
	}
}

type restockRequest struct {
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Note      string `json:"note"`
	EnteredBy string `json:"entered_by" validate:"required"`
}

// RestockProduct adds units back onto the shelf.
func RestockProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref := stock.Ref{
			Note:      validators.SanitizeString(payload.Note, 500),
			EnteredBy: validators.SanitizeString(payload.EnteredBy, 120),
		}
		dto, err := svc.Restock(r.Context(), id, payload.Quantity, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
