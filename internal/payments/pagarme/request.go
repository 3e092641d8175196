package pagarme

import (
	"github.com/learnhub/learnhub-backend/internal/payments"
)

type orderRequest struct {
	Code     string           `json:"code,omitempty"`
	Items    []itemRequest    `json:"items"`
	Customer customerRequest  `json:"customer"`
	Payments []paymentRequest `json:"payments"`
}

type itemRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Code        string `json:"code"`
}

type customerRequest struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Document string        `json:"document"`
	Type     string        `json:"type"`
	Phones   phonesRequest `json:"phones"`
}

type phonesRequest struct {
	MobilePhone phoneRequest `json:"mobile_phone"`
}

type phoneRequest struct {
	CountryCode string `json:"country_code"`
	AreaCode    string `json:"area_code"`
	Number      string `json:"number"`
}

type paymentRequest struct {
	PaymentMethod string             `json:"payment_method"`
	CreditCard    creditCardRequest  `json:"credit_card"`
	Split         []splitRuleRequest `json:"split,omitempty"`
}

type creditCardRequest struct {
	Installments        int    `json:"installments"`
	StatementDescriptor string `json:"statement_descriptor"`
	CardToken           string `json:"card_token"`
}

type splitRuleRequest struct {
	Amount      int          `json:"amount"`
	RecipientID string       `json:"recipient_id"`
	Type        string       `json:"type"`
	Options     splitOptions `json:"options"`
}

type splitOptions struct {
	ChargeProcessingFee bool `json:"charge_processing_fee"`
	ChargeRemainderFee  bool `json:"charge_remainder_fee"`
	Liable              bool `json:"liable"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func buildOrderRequest(order payments.Order) orderRequest {
	items := make([]itemRequest, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemRequest{
			Amount:      item.Amount,
			Description: item.Description,
			Quantity:    item.Quantity,
			Code:        item.Code,
		})
	}

	method := order.Payment.Method
	if method == "" {
		method = payments.MethodCreditCard
	}
	payment := paymentRequest{
		PaymentMethod: method,
		CreditCard: creditCardRequest{
			Installments:        order.Payment.Installments,
			StatementDescriptor: statementDescriptor,
			CardToken:           order.Payment.CardToken,
		},
	}
	for _, rule := range order.Payment.Split {
		payment.Split = append(payment.Split, splitRuleRequest{
			Amount:      rule.Percentage,
			RecipientID: rule.RecipientID,
			Type:        "percentage",
			Options: splitOptions{
				ChargeProcessingFee: rule.ChargeProcessingFee,
				ChargeRemainderFee:  rule.ChargeProcessingFee,
				Liable:              rule.Liable,
			},
		})
	}

	return orderRequest{
		Code:  order.Code,
		Items: items,
		Customer: customerRequest{
			Name:     order.Customer.Name,
			Email:    order.Customer.Email,
			Document: order.Customer.Document,
			Type:     "individual",
			Phones: phonesRequest{MobilePhone: phoneRequest{
				CountryCode: order.Customer.Phone.CountryCode,
				AreaCode:    order.Customer.Phone.AreaCode,
				Number:      order.Customer.Phone.Number,
			}},
		},
		Payments: []paymentRequest{payment},
	}
}
