package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub-backend/api/middleware"
	"github.com/learnhub/learnhub-backend/api/responses"
	"github.com/learnhub/learnhub-backend/api/validators"
	checkoutsvc "github.com/learnhub/learnhub-backend/internal/checkout"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
	"github.com/learnhub/learnhub-backend/pkg/logger"
)

type errorWriter func(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error)

type checkoutRequest struct {
	CartItems    []checkoutCartItem   `json:"cartItems"`
	CardToken    string               `json:"cardToken"`
	Installments *int                 `json:"installments"`
	CustomerData checkoutCustomerData `json:"customerData"`
}

type checkoutCartItem struct {
	Course struct {
		ID    string          `json:"id"`
		Title string          `json:"title"`
		Price json.RawMessage `json:"price"`
	} `json:"course"`
}

type checkoutCustomerData struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
}

// toInput keeps only course ids from the submitted cart. Titles and prices
// are re-read from the catalog by the service.
func (p checkoutRequest) toInput(userID uuid.UUID, email string) (checkoutsvc.Input, error) {
	ids := make([]uuid.UUID, 0, len(p.CartItems))
	for i, item := range p.CartItems {
		id, err := uuid.Parse(strings.TrimSpace(item.Course.ID))
		if err != nil {
			return checkoutsvc.Input{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid course id in cart").WithDetails(map[string]any{"index": i})
		}
		ids = append(ids, id)
	}
	installments := 0
	if p.Installments != nil {
		installments = *p.Installments
	}
	return checkoutsvc.Input{
		UserID:       userID,
		Email:        email,
		CourseIDs:    ids,
		CardToken:    p.CardToken,
		Installments: installments,
		Customer: checkoutsvc.CustomerData{
			Name:     p.CustomerData.Name,
			Document: p.CustomerData.Document,
			Phone:    p.CustomerData.Phone,
		},
	}, nil
}

// FunctionCheckout serves the browser checkout contract: the gateway payload
// on success and a flat {"error": msg} body otherwise.
func FunctionCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(svc, logg, responses.WriteFunctionError)
}

// Checkout is the REST alias. Failures use the standard error envelope.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(svc, logg, responses.WriteError)
}

func checkoutHandler(svc checkoutsvc.Service, logg *logger.Logger, writeErr errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		if svc == nil {
			writeErr(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			writeErr(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeLenientJSONBody(r, &payload); err != nil {
			writeErr(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(userID, middleware.EmailFromContext(r.Context()))
		if err != nil {
			writeErr(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), input)
		if err != nil {
			writeErr(r.Context(), logg, w, err)
			return
		}

		// Any completed gateway round trip answers 200, whatever status the
		// gateway itself used.
		responses.WriteRaw(w, http.StatusOK, result.Body)
	}
}
