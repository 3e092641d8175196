package payments

import (
	"fmt"
	"strings"

	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
)

// MethodCreditCard is the only payment method checkout submits.
const MethodCreditCard = "credit_card"

// Order is built per checkout and never persisted.
type Order struct {
	// Code is our reference for the order, echoed back by the gateway.
	Code     string
	Currency string
	Items    []LineItem
	Customer Customer
	Payment  Payment
}

// LineItem amounts are in minor currency units.
type LineItem struct {
	Amount      int64
	Description string
	Quantity    int
	Code        string
}

type Customer struct {
	Name     string
	Email    string
	Document string
	Phone    Phone
}

type Phone struct {
	CountryCode string
	AreaCode    string
	Number      string
}

type Payment struct {
	Method       string
	CardToken    string
	Installments int
	Split        []SplitRule
}

// SplitRule sends Percentage of the charge to RecipientID. Liable makes the
// recipient answer for chargebacks; ChargeProcessingFee makes it pay the
// gateway fee.
type SplitRule struct {
	RecipientID         string
	Percentage          int
	Liable              bool
	ChargeProcessingFee bool
}

// Total sums amount x quantity over every line item.
func (o Order) Total() int64 {
	var total int64
	for _, item := range o.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += item.Amount * int64(qty)
	}
	return total
}

// Validate checks the order is complete enough to submit.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "order has no items")
	}
	for i, item := range o.Items {
		if item.Amount < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d has a negative amount", i))
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d has no quantity", i))
		}
	}
	if strings.TrimSpace(o.Payment.CardToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "card token is required")
	}
	if o.Payment.Installments < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "installments must be at least 1")
	}
	return ValidateSplit(o.Payment.Split)
}

// ValidateSplit requires split percentages to total exactly 100 when any
// rule is present.
func ValidateSplit(rules []SplitRule) error {
	if len(rules) == 0 {
		return nil
	}
	total := 0
	for _, rule := range rules {
		if strings.TrimSpace(rule.RecipientID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "split rule is missing a recipient")
		}
		if rule.Percentage <= 0 || rule.Percentage > 100 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("split percentage %d out of range", rule.Percentage))
		}
		total += rule.Percentage
	}
	if total != 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("split percentages must total 100, got %d", total))
	}
	return nil
}
