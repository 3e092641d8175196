package squaregw

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	sq "github.com/square/square-go-sdk"

	"github.com/learnhub/learnhub-backend/internal/payments"
	"github.com/learnhub/learnhub-backend/pkg/config"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
	"github.com/learnhub/learnhub-backend/pkg/square"
)

const maxNoteItems = 10

type paymentCreator interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
}

// Gateway charges the order total as a single Square card payment. Square
// has no per-payment split, so orders carrying split rules are refused.
type Gateway struct {
	payments paymentCreator
	currency string
}

func New(client paymentCreator, currency string) (*Gateway, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square client required")
	}
	return &Gateway{payments: client, currency: strings.ToUpper(strings.TrimSpace(currency))}, nil
}

func (g *Gateway) Provider() string {
	return config.GatewayProviderSquare
}

type responseBody struct {
	ID      string      `json:"id,omitempty"`
	Status  string      `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  []*sq.Error `json:"errors,omitempty"`
	Payment *sq.Payment `json:"payment,omitempty"`
}

// CreateOrder maps Square's payment status onto the gateway order statuses:
// COMPLETED is paid, APPROVED and PENDING are pending, CANCELED is canceled
// and anything else failed.
func (g *Gateway) CreateOrder(ctx context.Context, order payments.Order) (*payments.Response, error) {
	if len(order.Payment.Split) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "split rules are not supported by the square gateway")
	}

	payment, err := g.payments.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:    order.Total(),
		Currency:       g.currency,
		SourceID:       order.Payment.CardToken,
		BuyerEmail:     order.Customer.Email,
		IdempotencyKey: order.Code,
		ReferenceID:    order.Code,
		Note:           noteFor(order),
	})
	if err != nil {
		failure, ok := square.FailureFromError(err)
		if !ok {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayTransport, err, "square create payment")
		}
		return failureResponse(failure)
	}

	status := mapStatus(derefString(payment.GetStatus()))
	body, err := json.Marshal(responseBody{
		ID:      derefString(payment.GetID()),
		Status:  status.String(),
		Payment: payment,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayTransport, err, "encode square payment")
	}
	return &payments.Response{
		Success:    true,
		StatusCode: http.StatusOK,
		Status:     status,
		RawStatus:  derefString(payment.GetStatus()),
		OrderID:    derefString(payment.GetID()),
		Body:       body,
	}, nil
}

func failureResponse(failure *square.APIFailure) (*payments.Response, error) {
	body, err := json.Marshal(responseBody{
		Status:  enums.GatewayOrderFailed.String(),
		Message: failure.Message(),
		Errors:  failure.Errors,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayTransport, err, "encode square failure")
	}
	statusCode := failure.StatusCode
	if statusCode < 400 {
		statusCode = http.StatusBadGateway
	}
	return &payments.Response{
		Success:    false,
		StatusCode: statusCode,
		Status:     enums.GatewayOrderFailed,
		Body:       body,
	}, nil
}

func mapStatus(raw string) enums.GatewayOrderStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "COMPLETED":
		return enums.GatewayOrderPaid
	case "APPROVED", "PENDING":
		return enums.GatewayOrderPending
	case "CANCELED":
		return enums.GatewayOrderCanceled
	default:
		return enums.GatewayOrderFailed
	}
}

func noteFor(order payments.Order) string {
	parts := make([]string, 0, len(order.Items))
	for i, item := range order.Items {
		if i == maxNoteItems {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, item.Description)
	}
	return strings.Join(parts, ", ")
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
