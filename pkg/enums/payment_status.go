package enums

import (
	"fmt"
	"strings"
)

// GatewayOrderStatus is the order status reported by the payment gateway.
type GatewayOrderStatus string

const (
	GatewayOrderPending  GatewayOrderStatus = "pending"
	GatewayOrderPaid     GatewayOrderStatus = "paid"
	GatewayOrderCanceled GatewayOrderStatus = "canceled"
	GatewayOrderFailed   GatewayOrderStatus = "failed"
)

var validGatewayOrderStatuses = []GatewayOrderStatus{
	GatewayOrderPending,
	GatewayOrderPaid,
	GatewayOrderCanceled,
	GatewayOrderFailed,
}

// String implements fmt.Stringer.
func (s GatewayOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known GatewayOrderStatus.
func (s GatewayOrderStatus) IsValid() bool {
	for _, candidate := range validGatewayOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsPaid reports whether the order was captured and access may be granted.
func (s GatewayOrderStatus) IsPaid() bool {
	return s == GatewayOrderPaid
}

// ParseGatewayOrderStatus converts raw gateway input into a GatewayOrderStatus.
// Matching is case-insensitive since providers disagree on casing.
func ParseGatewayOrderStatus(value string) (GatewayOrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validGatewayOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway order status %q", value)
}
