package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-food-ordering/helpers"
	"go-food-ordering/logger"
	"go-food-ordering/models"

	"github.com/google/uuid"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"`
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*GatewayOrder, error)
	// FetchOrder returns the gateway's record of an order, including the
	// amount it was opened for.
	FetchOrder(ctx context.Context, orderID string) (*GatewayOrder, error)
}

// RazorpayClient creates checkout orders on the Razorpay REST API.
type RazorpayClient struct {
	keyID   string
	secret  string
	baseURL string
	http    *http.Client
}

func NewRazorpayClient(keyID, secret string) *RazorpayClient {
	return &RazorpayClient{
		keyID:   keyID,
		secret:  secret,
		baseURL: razorpayBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the client at another endpoint, for tests.
func (c *RazorpayClient) WithBaseURL(url string) *RazorpayClient {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*GatewayOrder, error) {
	body, err := json.Marshal(map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/orders", bytes.NewReader(body))
}

func (c *RazorpayClient) FetchOrder(ctx context.Context, orderID string) (*GatewayOrder, error) {
	order, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
	if helpers.IsKind(err, helpers.KindNotFound) {
		return nil, helpers.Validation("unknown payment order")
	}
	return order, err
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, body io.Reader) (*GatewayOrder, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, helpers.Unavailable("payment gateway unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, method == http.MethodGet && resp.StatusCode == http.StatusBadRequest:
		return nil, helpers.NotFound("payment order not found")
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, helpers.Internal("payment gateway rejected request", fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, msg))
	}
	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, helpers.Internal("invalid payment gateway response", err)
	}
	return &order, nil
}

type PaymentIntent struct {
	KeyID string        `json:"keyId"`
	Order *GatewayOrder `json:"order"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string          `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string          `json:"razorpay_payment_id" validate:"required"`
	Signature        string          `json:"razorpay_signature" validate:"required"`
	Order            CheckoutRequest `json:"orderData"`
}

type PaymentService struct {
	gateway PaymentGateway
	orders  *OrderService
	keyID   string
	secret  string
	log     *logger.Logger
}

// NewPaymentService returns a service that refuses online payments when
// gateway is nil or secret is empty.
func NewPaymentService(gateway PaymentGateway, orders *OrderService, keyID, secret string, log *logger.Logger) *PaymentService {
	return &PaymentService{gateway: gateway, orders: orders, keyID: keyID, secret: secret, log: log}
}

func (s *PaymentService) enabled() bool {
	return s.gateway != nil && s.secret != ""
}

// CreateOrder prices the cart and opens a gateway order for that amount.
func (s *PaymentService) CreateOrder(ctx context.Context, customer models.Principal, req CheckoutRequest) (*PaymentIntent, error) {
	if !s.enabled() {
		return nil, helpers.Unavailable("online payments are not configured")
	}
	if customer.Role != models.RoleCustomer {
		return nil, helpers.Forbidden("only customers can place orders")
	}
	total, err := s.orders.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	paise := toPaise(total)
	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]

	gwOrder, err := s.gateway.CreateOrder(ctx, paise, receipt)
	if err != nil {
		return nil, err
	}
	s.log.Info(logger.RequestID(ctx), "payment_order_created", "Gateway order created", map[string]interface{}{
		"gateway_order_id": gwOrder.ID,
		"amount_paise":     paise,
	})
	return &PaymentIntent{KeyID: s.keyID, Order: gwOrder}, nil
}

// VerifyAndPlace checks the checkout signature, looks up the amount the gateway
// order was opened for and creates the paid order only if the cart still
// prices to that amount.
func (s *PaymentService) VerifyAndPlace(ctx context.Context, customer models.Principal, req VerifyPaymentRequest) (*models.Order, error) {
	if !s.enabled() {
		return nil, helpers.Unavailable("online payments are not configured")
	}
	if !helpers.VerifyPaymentSignature(s.secret, req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		s.log.Warn(logger.RequestID(ctx), "payment_signature_mismatch", "Payment verification failed", map[string]interface{}{
			"gateway_order_id": req.GatewayOrderID,
		})
		return nil, helpers.Validation("payment verification failed")
	}
	gwOrder, err := s.gateway.FetchOrder(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	return s.orders.PlaceOnlineOrder(ctx, customer, req.Order, GatewayPayment{
		OrderID:     req.GatewayOrderID,
		PaymentID:   req.GatewayPaymentID,
		AmountPaise: gwOrder.Amount,
	})
}
