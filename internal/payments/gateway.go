package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/learnhub/learnhub-backend/pkg/enums"
)

// DefaultErrorMessage is used when a rejection carries nothing readable.
const DefaultErrorMessage = "payment processing error"

// Gateway submits orders to a card payment provider. Implementations return
// a *Response for every completed round trip, including rejections, and a
// GATEWAY_TRANSPORT error only when no usable response was received.
type Gateway interface {
	Provider() string
	CreateOrder(ctx context.Context, order Order) (*Response, error)
}

// Response is the provider's answer. Body is the provider JSON, forwarded
// to the client untouched.
type Response struct {
	Success    bool
	StatusCode int
	Status     enums.GatewayOrderStatus
	RawStatus  string
	OrderID    string
	Body       json.RawMessage
}

// Paid reports whether access should be granted.
func (r *Response) Paid() bool {
	return r != nil && r.Success && r.Status.IsPaid()
}

// ErrorMessage extracts a readable rejection reason: the "message" field,
// else the "errors" value rendered as JSON, else DefaultErrorMessage.
func (r *Response) ErrorMessage() string {
	if r == nil || len(r.Body) == 0 {
		return DefaultErrorMessage
	}
	var payload struct {
		Message any             `json:"message"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return DefaultErrorMessage
	}
	if msg, ok := payload.Message.(string); ok && strings.TrimSpace(msg) != "" {
		return msg
	}
	if raw := strings.TrimSpace(string(payload.Errors)); raw != "" && raw != "null" {
		var compact bytes.Buffer
		if err := json.Compact(&compact, payload.Errors); err == nil {
			return compact.String()
		}
		return raw
	}
	return DefaultErrorMessage
}

// ParseStatus maps a provider status onto the known set. Unknown values
// yield "" so they never count as paid.
func ParseStatus(raw string) enums.GatewayOrderStatus {
	status, err := enums.ParseGatewayOrderStatus(raw)
	if err != nil {
		return ""
	}
	return status
}
