package pagarme

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/learnhub/learnhub-backend/internal/payments"
	"github.com/learnhub/learnhub-backend/pkg/config"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
	"github.com/learnhub/learnhub-backend/pkg/logger"
)

func sampleOrder() payments.Order {
	return payments.Order{
		Code: "lh_123",
		Items: []payments.LineItem{
			{Amount: 5000, Description: "A", Quantity: 1, Code: "c1"},
			{Amount: 7550, Description: "B", Quantity: 1, Code: "c2"},
		},
		Customer: payments.Customer{
			Name:     "Ana",
			Email:    "ana@example.com",
			Document: "12345678909",
			Phone:    payments.Phone{CountryCode: "55", AreaCode: "11", Number: "987654321"},
		},
		Payment: payments.Payment{
			Method:       payments.MethodCreditCard,
			CardToken:    "token_abc",
			Installments: 1,
			Split: []payments.SplitRule{
				{RecipientID: "re_platform", Percentage: 100, Liable: true, ChargeProcessingFee: true},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(config.GatewayConfig{SecretKey: "sk_test", Timeout: time.Second},
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithLogger(logger.Nop()),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCreateOrderSendsWireFormat(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test:"))
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Errorf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"or_1","status":"paid","charges":[{"id":"ch_1"}]}`))
	})

	resp, err := client.CreateOrder(context.Background(), sampleOrder())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if !resp.Success || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Status != enums.GatewayOrderPaid || resp.OrderID != "or_1" {
		t.Fatalf("unexpected status/order id %s %s", resp.Status, resp.OrderID)
	}
	if !resp.Paid() {
		t.Fatal("expected Paid() to be true")
	}
	if string(resp.Body) != `{"id":"or_1","status":"paid","charges":[{"id":"ch_1"}]}` {
		t.Fatalf("expected body forwarded verbatim, got %s", resp.Body)
	}

	items := captured["items"].([]any)
	if len(items) != 2 || items[1].(map[string]any)["amount"].(float64) != 7550 {
		t.Fatalf("unexpected items %v", items)
	}
	customer := captured["customer"].(map[string]any)
	phone := customer["phones"].(map[string]any)["mobile_phone"].(map[string]any)
	if customer["document"] != "12345678909" || phone["area_code"] != "11" {
		t.Fatalf("unexpected customer %v", customer)
	}
	payment := captured["payments"].([]any)[0].(map[string]any)
	if payment["payment_method"] != "credit_card" {
		t.Fatalf("unexpected payment method %v", payment["payment_method"])
	}
	card := payment["credit_card"].(map[string]any)
	if card["card_token"] != "token_abc" || card["installments"].(float64) != 1 {
		t.Fatalf("unexpected card block %v", card)
	}
	split := payment["split"].([]any)[0].(map[string]any)
	options := split["options"].(map[string]any)
	if split["amount"].(float64) != 100 || split["recipient_id"] != "re_platform" || options["liable"] != true || options["charge_processing_fee"] != true {
		t.Fatalf("unexpected split %v", split)
	}
}

func TestCreateOrderOmitsEmptySplit(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		_, _ = w.Write([]byte(`{"id":"or_2","status":"pending"}`))
	})
	order := sampleOrder()
	order.Payment.Split = nil

	resp, err := client.CreateOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if resp.Paid() {
		t.Fatal("pending must not be paid")
	}
	payment := captured["payments"].([]any)[0].(map[string]any)
	if _, ok := payment["split"]; ok {
		t.Fatal("expected split to be omitted")
	}
}

func TestCreateOrderRejectedIsResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"card declined"}`))
	})

	resp, err := client.CreateOrder(context.Background(), sampleOrder())
	if err != nil {
		t.Fatalf("rejection should not be a transport error: %v", err)
	}
	if resp.Success || resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected unsuccessful response, got %+v", resp)
	}
	if resp.ErrorMessage() != "card declined" {
		t.Fatalf("unexpected message %q", resp.ErrorMessage())
	}
}

func TestCreateOrderTransportErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})
	if _, err := client.CreateOrder(context.Background(), sampleOrder()); !pkgerrors.Is(err, pkgerrors.CodeGatewayTransport) {
		t.Fatalf("expected GATEWAY_TRANSPORT for non-JSON body, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	closed, err := NewClient(config.GatewayConfig{SecretKey: "sk", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := closed.CreateOrder(context.Background(), sampleOrder()); !pkgerrors.Is(err, pkgerrors.CodeGatewayTransport) {
		t.Fatalf("expected GATEWAY_TRANSPORT for dial failure, got %v", err)
	}
}

func TestNewClientRequiresSecret(t *testing.T) {
	if _, err := NewClient(config.GatewayConfig{}); err == nil {
		t.Fatal("expected missing secret to fail")
	}
}
